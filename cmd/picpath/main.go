package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"picpath/internal/app"
	"picpath/internal/config"
	"picpath/internal/picpath"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a PicPathApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "scan", "browse").
func newApp(operation string) (*app.PicPathApp, *config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewPicPathApp(cfg, operation)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, cfg, nil
}

// signalContext returns a context cancelled on interrupt.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

var rootCmd = &cobra.Command{
	Use:   "picpath",
	Short: "Find device images and get their paths",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		deviceID := uuid.New().String()
		cfg := config.NewConfig(deviceID, defaults.BaseDir, app.DefaultVolumes)

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Device ID: %s\n", deviceID)
		fmt.Printf("Base Dir:  %s\n", defaults.BaseDir)
		fmt.Printf("Volumes:   %v\n", cfg.Index.Volumes)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		maxSize := "unlimited"
		if n, err := cfg.Index.MaxFileSizeBytes(); err == nil && n > 0 {
			maxSize = units.HumanSize(float64(n))
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Device ID: %s\n", cfg.DeviceID)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Database:  %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Volumes:   %v\n", cfg.Index.Volumes)
		fmt.Printf("Max Size:  %s\n", maxSize)
		fmt.Printf("Category:  %s\n", cfg.Browse.DefaultCategory)
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rescan the volumes and replace the image index",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		a, _, err := newApp("scan")
		if err != nil {
			return err
		}
		defer a.Close()

		start := time.Now()
		n, err := a.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		fmt.Printf("Indexed %d image(s) in %s\n", n, time.Since(start).Truncate(time.Millisecond))
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed images",
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		rawCategory, _ := cmd.Flags().GetString("category")

		a, cfg, err := newApp("list")
		if err != nil {
			return err
		}
		defer a.Close()

		category, err := cfg.Browse.InitialCategory()
		if err != nil {
			return err
		}
		if rawCategory != "" {
			if category, err = picpath.ParseCategory(rawCategory); err != nil {
				return err
			}
		}

		images, err := a.ListImages(cmd.Context(), query, category)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			fmt.Println("No images found.")
			return nil
		}
		printImages(os.Stdout, images, 0)
		return nil
	},
}

// path command
var pathCmd = &cobra.Command{
	Use:   "path ID",
	Short: "Print the absolute path of an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		copyPath, _ := cmd.Flags().GetBool("copy")

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid image id %q: %w", args[0], err)
		}

		a, _, err := newApp("path")
		if err != nil {
			return err
		}
		defer a.Close()

		img, err := a.FindImage(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Println(img.Path)
		if copyPath {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("--copy needs a terminal on stdout")
			}
			fmt.Print(osc52(img.Path))
		}
		return nil
	},
}

// resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve URI",
	Short: "Resolve a picpath://, file:// URI or path to a filesystem path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp("resolve")
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := a.ResolvePath(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

// browse command
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Search and select images interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		a, _, err := newApp("browse")
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.NewController()
		if err != nil {
			return err
		}
		defer c.Close()

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		return newBrowseSession(c, os.Stdout, interactive).run(ctx, os.Stdin)
	},
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the image index current as the volumes change",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		a, _, err := newApp("watch")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Watch(ctx, func(n int, err error) {
			ts := time.Now().Format("15:04:05")
			if err != nil {
				fmt.Printf("%s  refresh failed: %v\n", ts, err)
				return
			}
			fmt.Printf("%s  indexed %d image(s)\n", ts, n)
		})
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View scan history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, _, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No scans recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %s  %-8s  %6d  %-8s  %s\n",
				op.ID,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				op.ImageCount,
				duration,
				op.Error,
			)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("query", "q", "", "Only images whose name contains this text")
	listCmd.Flags().StringP("category", "c", "", "Category: All, Screenshots, Camera, Downloads or Other")
	rootCmd.AddCommand(pathCmd)
	pathCmd.Flags().Bool("copy", false, "Also copy the path to the clipboard (OSC 52)")
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of scans to show")
}

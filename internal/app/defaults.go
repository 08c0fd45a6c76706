package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultVolumes are written into new configs. Volumes that do not exist
// are skipped at scan time.
var DefaultVolumes = []string{"~/Pictures", "~/DCIM", "~/Downloads"}

// Defaults are the application default locations.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
	DataDir    string
	HomeDir    string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PICPATH_CONFIG_PATH: config file location (default: ~/.config/picpath.toml)
//   - PICPATH_HOME: base directory for picpath data (default: ~/.local/share/picpath)
func GetDefaults() (*Defaults, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	configPath := os.Getenv("PICPATH_CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(homeDir, ".config", "picpath.toml")
	}

	baseDir := os.Getenv("PICPATH_HOME")
	if baseDir == "" {
		baseDir = filepath.Join(homeDir, ".local", "share", "picpath")
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		DataDir:    filepath.Join(baseDir, "db"),
		HomeDir:    homeDir,
	}, nil
}

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/docker/go-units"

	"picpath/internal/picpath"
)

// DefaultExtensions are the file extensions indexed as images.
var DefaultExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "bmp", "heic", "heif", "tif", "tiff", "avif"}

// DefaultIgnore is written into new configs.
var DefaultIgnore = []string{".thumbnails", ".trashed-*"}

// Browse defaults, as written into new configs.
const (
	DefaultDebounce      = "300ms"
	DefaultGracePeriod   = "5s"
	DefaultWatchDebounce = "2s"
	DefaultMaxFileSize   = "512MB"
)

// Config represents the main configuration for picpath.
type Config struct {
	DeviceID string         `toml:"device_id"`
	BaseDir  string         `toml:"base_dir"`
	LogDir   string         `toml:"log_dir"`
	LogLevel string         `toml:"log_level"` // "debug", "info" (default), "warn" or "error"
	Database DatabaseConfig `toml:"database"`
	Index    IndexConfig    `toml:"index"`
	Browse   BrowseConfig   `toml:"browse"`
}

// DatabaseConfig represents configuration for the image database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// IndexConfig represents configuration for the device image index.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type IndexConfig struct {
	Type string `toml:"type"` // "filesystem"

	// Filesystem-specific fields (only used when Type == "filesystem")
	Volumes        []string `toml:"volumes,omitempty"` // "~/" expands to the home directory
	Extensions     []string `toml:"extensions,omitempty"`
	Ignore         []string `toml:"ignore,omitempty"`
	FollowSymlinks bool     `toml:"follow_symlinks"`
	MaxFileSize    string   `toml:"max_file_size,omitempty"` // human size, e.g. "512MB"; empty means unlimited
}

// BrowseConfig holds the search/filter controller settings.
type BrowseConfig struct {
	Debounce        string `toml:"debounce"`
	GracePeriod     string `toml:"grace_period"`
	DefaultCategory string `toml:"default_category"`
	WatchDebounce   string `toml:"watch_debounce"`
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(deviceID, baseDir string, volumes []string) *Config {
	return &Config{
		DeviceID: deviceID,
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Index: IndexConfig{
			Type:        "filesystem",
			Volumes:     volumes,
			Extensions:  DefaultExtensions,
			Ignore:      DefaultIgnore,
			MaxFileSize: DefaultMaxFileSize,
		},
		Browse: BrowseConfig{
			Debounce:        DefaultDebounce,
			GracePeriod:     DefaultGracePeriod,
			DefaultCategory: string(picpath.DefaultCategory),
			WatchDebounce:   DefaultWatchDebounce,
		},
	}
}

// Validate checks the fields every command relies on.
func (c *Config) Validate() error {
	if c.DeviceID == "" {
		return fmt.Errorf("device_id required")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	switch c.Database.Type {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown database type: %q", c.Database.Type)
	}
	if c.Index.Type != "filesystem" {
		return fmt.Errorf("unknown index type: %q", c.Index.Type)
	}
	if len(c.Index.Volumes) == 0 {
		return fmt.Errorf("index.volumes requires at least one volume")
	}
	if _, err := c.Index.MaxFileSizeBytes(); err != nil {
		return err
	}
	if _, err := c.Browse.DebounceDuration(); err != nil {
		return err
	}
	if _, err := c.Browse.GracePeriodDuration(); err != nil {
		return err
	}
	if _, err := c.Browse.WatchDebounceDuration(); err != nil {
		return err
	}
	if _, err := c.Browse.InitialCategory(); err != nil {
		return err
	}
	return nil
}

// ExpandedVolumes returns the volumes with a leading "~/" replaced by home.
func (c IndexConfig) ExpandedVolumes(home string) []string {
	out := make([]string, len(c.Volumes))
	for i, v := range c.Volumes {
		if v == "~" {
			v = home
		} else if rest, ok := strings.CutPrefix(v, "~/"); ok {
			v = filepath.Join(home, rest)
		}
		out[i] = v
	}
	return out
}

// ExtensionsOrDefault returns the configured extensions, or DefaultExtensions if none are set.
func (c IndexConfig) ExtensionsOrDefault() []string {
	if len(c.Extensions) == 0 {
		return DefaultExtensions
	}
	return c.Extensions
}

// MaxFileSizeBytes parses MaxFileSize. Zero means unlimited.
func (c IndexConfig) MaxFileSizeBytes() (int64, error) {
	if c.MaxFileSize == "" {
		return 0, nil
	}
	size, err := units.FromHumanSize(c.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max_file_size: %w", err)
	}
	if size < 0 {
		return 0, fmt.Errorf("max_file_size must not be negative")
	}
	return size, nil
}

func (b BrowseConfig) DebounceDuration() (time.Duration, error) {
	return parseDuration("debounce", b.Debounce, picpath.DefaultDebounce)
}

func (b BrowseConfig) GracePeriodDuration() (time.Duration, error) {
	return parseDuration("grace_period", b.GracePeriod, picpath.DefaultGracePeriod)
}

func (b BrowseConfig) WatchDebounceDuration() (time.Duration, error) {
	return parseDuration("watch_debounce", b.WatchDebounce, 2*time.Second)
}

// InitialCategory parses DefaultCategory, falling back to picpath.DefaultCategory.
func (b BrowseConfig) InitialCategory() (picpath.Category, error) {
	if b.DefaultCategory == "" {
		return picpath.DefaultCategory, nil
	}
	c, err := picpath.ParseCategory(b.DefaultCategory)
	if err != nil {
		return "", fmt.Errorf("invalid default_category: %w", err)
	}
	return c, nil
}

func parseDuration(key, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// Package config loads handtype runtime configuration from a JSON file.
package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/handtype/internal/gesture"
	"github.com/ayusman/handtype/internal/session"
)

// Config holds runtime configuration. Fields may be loaded from a JSON file
// and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug"`

	// Server
	Addr      string `json:"addr"`
	DataDir   string `json:"data_dir"`
	StaticDir string `json:"static_dir"`
	PluginDir string `json:"plugin_dir"`

	// Capture
	Camera   bool `json:"camera"`
	CameraID int  `json:"camera_id"`
	FPS      int  `json:"fps"`
	Mirror   bool `json:"mirror"`

	// Debouncer tunables
	RequiredConsecutive int `json:"required_consecutive"`
	CooldownMs          int `json:"cooldown_ms"`
	QueueSize           int `json:"queue_size"`

	// Outputs
	Keyboard bool `json:"keyboard"`
	Tray     bool `json:"tray"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".handtype")

	return &Config{
		Debug:               false,
		Addr:                ":8080",
		DataDir:             dataDir,
		PluginDir:           filepath.Join(dataDir, "plugins"),
		Camera:              false,
		CameraID:            0,
		FPS:                 15,
		Mirror:              true,
		RequiredConsecutive: gesture.DefaultRequiredConsecutive,
		CooldownMs:          int(gesture.DefaultCooldown / time.Millisecond),
		QueueSize:           session.DefaultQueueSize,
		Keyboard:            false,
		Tray:                false,
	}
}

// Validate clamps values to safe ranges. Debouncer tunables are left as they
// are and reported by Tunables.
func (c *Config) Validate() error {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.FPS <= 0 {
		c.FPS = 15
	}
	if c.QueueSize <= 0 {
		c.QueueSize = session.DefaultQueueSize
	}
	if c.CameraID < 0 {
		return errors.New("camera_id must not be negative")
	}
	_, err := c.Tunables()
	return err
}

// Tunables returns the debouncer configuration.
func (c *Config) Tunables() (gesture.Config, error) {
	cfg := gesture.Config{
		RequiredConsecutive: c.RequiredConsecutive,
		Cooldown:            time.Duration(c.CooldownMs) * time.Millisecond,
	}
	return cfg, cfg.Validate()
}

// DBPath returns the SQLite database location inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "handtype.db")
}

// LogLevel returns Debug when debugging is on, Info otherwise.
func (c *Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Load attempts to read configuration from the given JSON file path. If the
// file does not exist it returns DefaultConfig().
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

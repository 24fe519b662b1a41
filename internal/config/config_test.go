package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/handtype/internal/gesture"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tun, err := cfg.Tunables()
	if err != nil {
		t.Fatalf("Tunables() error = %v", err)
	}
	if tun != gesture.DefaultConfig() {
		t.Errorf("expected default tunables, got %+v", tun)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
	if filepath.Base(cfg.DBPath()) != "handtype.db" {
		t.Errorf("unexpected db path %s", cfg.DBPath())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("expected defaults, got addr %q", cfg.Addr)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequiredConsecutive != gesture.DefaultRequiredConsecutive {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_OverridesAndClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"addr": "", "fps": 0, "required_consecutive": 3, "cooldown_ms": 250, "debug": true}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":8080" || cfg.FPS != 15 {
		t.Errorf("expected clamped addr/fps, got %q/%d", cfg.Addr, cfg.FPS)
	}
	tun, _ := cfg.Tunables()
	if tun.RequiredConsecutive != 3 || tun.Cooldown != 250*time.Millisecond {
		t.Errorf("expected 3/250ms, got %+v", tun)
	}
	if cfg.LogLevel().String() != "DEBUG" {
		t.Errorf("expected DEBUG level, got %s", cfg.LogLevel())
	}
}

func TestLoad_InvalidTunables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"required_consecutive": 0}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); !errors.Is(err, gesture.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"unknown_field": 1}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err == nil {
		t.Error("expected error for unknown field")
	}
	if cfg == nil || cfg.Addr != ":8080" {
		t.Error("expected defaults alongside the error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.CameraID = 2
	cfg.Keyboard = true
	cfg.CooldownMs = 1000

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("expected %+v, got %+v", cfg, loaded)
	}
}

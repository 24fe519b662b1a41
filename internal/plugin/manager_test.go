package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root string, dir string, manifest Manifest) {
	t.Helper()
	pluginDir := filepath.Join(root, dir)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, "keyboard", Manifest{
		Name:        "keyboard",
		Version:     "1.0.0",
		Description: "Types letters",
		Executable:  "keyboard",
		Actions:     []string{ActionType, ActionSpace, ActionBackspace},
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	plugin := plugins[0]
	if plugin.Manifest.Name != "keyboard" {
		t.Errorf("expected plugin name 'keyboard', got %q", plugin.Manifest.Name)
	}
	if len(plugin.Manifest.Actions) != 3 {
		t.Errorf("expected 3 actions, got %d", len(plugin.Manifest.Actions))
	}
	if plugin.Path != filepath.Join(tmpDir, "keyboard") {
		t.Errorf("expected path %q, got %q", filepath.Join(tmpDir, "keyboard"), plugin.Path)
	}
	if plugin.Executable != filepath.Join(tmpDir, "keyboard", "keyboard") {
		t.Errorf("unexpected executable path %q", plugin.Executable)
	}
}

func TestManager_Discover_SkipsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, "good", Manifest{Name: "good", Executable: "good"})
	writeManifest(t, tmpDir, "nameless", Manifest{Executable: "x"})
	writeManifest(t, tmpDir, "noexec", Manifest{Name: "noexec"})

	broken := filepath.Join(tmpDir, "broken")
	if err := os.MkdirAll(broken, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(broken, "plugin.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}
	if plugins[0].Manifest.Name != "good" {
		t.Errorf("expected 'good', got %q", plugins[0].Manifest.Name)
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := manager.Discover(); err != nil {
		t.Fatalf("expected missing dir to be ignored, got %v", err)
	}
	if len(manager.List()) != 0 {
		t.Errorf("expected no plugins, got %d", len(manager.List()))
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, "one", Manifest{Name: "one", Executable: "one"})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	if err := os.RemoveAll(filepath.Join(tmpDir, "one")); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, tmpDir, "two", Manifest{Name: "two", Executable: "two"})

	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}
	if _, err := manager.Get("one"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected 'one' to be gone, got %v", err)
	}
	if _, err := manager.Get("two"); err != nil {
		t.Errorf("expected 'two' to be found, got %v", err)
	}
}

func TestManager_Get(t *testing.T) {
	tmpDir := t.TempDir()
	writeManifest(t, tmpDir, "keyboard", Manifest{Name: "keyboard", Executable: "keyboard"})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	t.Run("existing plugin", func(t *testing.T) {
		plugin, err := manager.Get("keyboard")
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if plugin.Manifest.Name != "keyboard" {
			t.Errorf("expected 'keyboard', got %q", plugin.Manifest.Name)
		}
	})

	t.Run("missing plugin", func(t *testing.T) {
		_, err := manager.Get("nope")
		if !errors.Is(err, ErrPluginNotFound) {
			t.Errorf("expected ErrPluginNotFound, got %v", err)
		}
	})
}

func TestManager_List_Sorted(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		writeManifest(t, tmpDir, name, Manifest{Name: name, Executable: name})
	}

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	plugins := manager.List()
	want := []string{"alpha", "mid", "zeta"}
	if len(plugins) != len(want) {
		t.Fatalf("expected %d plugins, got %d", len(want), len(plugins))
	}
	for i, p := range plugins {
		if p.Manifest.Name != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], p.Manifest.Name)
		}
	}
}

func TestManager_PluginDir(t *testing.T) {
	manager := NewManager("/some/dir")
	if manager.PluginDir() != "/some/dir" {
		t.Errorf("expected '/some/dir', got %q", manager.PluginDir())
	}
}

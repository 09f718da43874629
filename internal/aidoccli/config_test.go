package aidoccli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "aidoc", "config.yaml")
	cfg := &Config{
		CurrentContext: "staging",
		Contexts: map[string]Context{
			"staging": {
				Name:   "staging",
				Server: "https://staging.example.com",
				Token:  "tok-123",
			},
			"local": {
				Name:   "local",
				Server: "http://localhost:8000",
				UserID: "reviewer-7",
			},
		},
	}

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o600 {
		t.Errorf("config file mode = %v, want 0600", got)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Errorf("round-trip mismatch: got %#v, want %#v", loaded, cfg)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CurrentContext != "" {
		t.Errorf("CurrentContext = %q, want empty", cfg.CurrentContext)
	}
	if len(cfg.Contexts) != 0 {
		t.Errorf("Contexts = %v, want empty map", cfg.Contexts)
	}
	if cfg.Contexts == nil {
		t.Error("Contexts map not initialized")
	}
}

func TestSetContext(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	setContext(cfg, Context{Name: "a", Server: "http://a"}, false)
	if cfg.CurrentContext != "a" {
		t.Errorf("first context should become current, got %q", cfg.CurrentContext)
	}

	setContext(cfg, Context{Name: "b", Server: "http://b"}, false)
	if cfg.CurrentContext != "a" {
		t.Errorf("current switched without makeCurrent, got %q", cfg.CurrentContext)
	}

	setContext(cfg, Context{Name: "b", Server: "http://b"}, true)
	if cfg.CurrentContext != "b" {
		t.Errorf("makeCurrent did not switch, got %q", cfg.CurrentContext)
	}

	if err := ensureContextExists(cfg, "a"); err != nil {
		t.Errorf("ensureContextExists(a): %v", err)
	}
	if err := ensureContextExists(cfg, "missing"); err == nil {
		t.Error("ensureContextExists(missing) returned nil error")
	}
}

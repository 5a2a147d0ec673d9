package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"focusmate/internal/platform/config"
)

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
data_dir: ` + dir + `
api:
  base_url: https://focus.example.com
frames:
  interval_seconds: 5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FOCUSMATE_USER_ID", "student-7")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.API.BaseURL != "https://focus.example.com" {
		t.Fatalf("expected base url from file, got %s", cfg.API.BaseURL)
	}
	if cfg.FrameInterval() != 5*time.Second || cfg.FrameWarmup() != 2*time.Second {
		t.Fatalf("unexpected frame timing %v/%v", cfg.FrameWarmup(), cfg.FrameInterval())
	}
	if cfg.UserID != "student-7" {
		t.Fatalf("expected env override for user id, got %s", cfg.UserID)
	}
	if cfg.DBPath() != filepath.Join(dir, "focusmate.db") {
		t.Fatalf("unexpected db path %s", cfg.DBPath())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("realtime:\n  url: http://wrong-scheme\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "realtime.url") {
		t.Fatalf("expected realtime url error, got %v", err)
	}
	if _, err := config.Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("explicit missing config should fail")
	}
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.SuggestionTTL() != 10*time.Second {
		t.Fatalf("expected 10s suggestion ttl, got %v", cfg.SuggestionTTL())
	}
	out, err := cfg.YAML()
	if err != nil || !strings.Contains(out, "interval_seconds: 3") {
		t.Fatalf("unexpected yaml %q (%v)", out, err)
	}
}

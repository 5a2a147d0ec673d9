package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir string `yaml:"data_dir"`
	UserID  string `yaml:"user_id"`

	API      APIConfig      `yaml:"api"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Camera   CameraConfig   `yaml:"camera"`
	Frames   FramesConfig   `yaml:"frames"`
	Session  SessionConfig  `yaml:"session"`
	Log      LogConfig      `yaml:"log"`
}

type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type RealtimeConfig struct {
	URL string `yaml:"url"`
}

type CameraConfig struct {
	Device  string   `yaml:"device"`
	Command []string `yaml:"command"`
	Width   int      `yaml:"width"`
	Height  int      `yaml:"height"`
}

type FramesConfig struct {
	WarmupSeconds   int `yaml:"warmup_seconds"`
	IntervalSeconds int `yaml:"interval_seconds"`
	MaxWidth        int `yaml:"max_width"`
	Quality         int `yaml:"quality"`
	MaxBytes        int `yaml:"max_bytes"`
}

type SessionConfig struct {
	SuggestionTTLSeconds int `yaml:"suggestion_ttl_seconds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	dataDir := ".focusmate"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".local", "share", "focusmate")
	}
	return Config{
		DataDir: dataDir,
		UserID:  "user123",
		API: APIConfig{
			BaseURL:        "http://localhost:5000",
			TimeoutSeconds: 10,
		},
		Realtime: RealtimeConfig{URL: "ws://localhost:5000"},
		Camera: CameraConfig{
			Device: "/dev/video0",
			Width:  1280,
			Height: 720,
		},
		Frames: FramesConfig{
			WarmupSeconds:   2,
			IntervalSeconds: 3,
			MaxWidth:        640,
			Quality:         80,
			MaxBytes:        256 * 1024,
		},
		Session: SessionConfig{SuggestionTTLSeconds: 10},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path when given, otherwise the first config file found in the
// default locations. A missing default file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFromFile(&cfg, path); err != nil {
			return Config{}, err
		}
	} else {
		for _, candidate := range searchPaths() {
			err := loadFromFile(&cfg, candidate)
			if err == nil {
				break
			}
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}
	applyEnv(&cfg)
	cfg.DataDir = expandTilde(cfg.DataDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func searchPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "focusmate", "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "focusmate", "config.yaml"))
	}
	return paths
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FOCUSMATE_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("FOCUSMATE_WS_URL"); v != "" {
		cfg.Realtime.URL = v
	}
	if v := os.Getenv("FOCUSMATE_USER_ID"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("FOCUSMATE_CAMERA_DEVICE"); v != "" {
		cfg.Camera.Device = v
	}
}

func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is required")
	}
	if err := validateURL("api.base_url", c.API.BaseURL, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("realtime.url", c.Realtime.URL, "ws", "wss"); err != nil {
		return err
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be positive")
	}
	if c.Frames.WarmupSeconds < 0 || c.Frames.IntervalSeconds <= 0 {
		return fmt.Errorf("frames: warmup must be >= 0 and interval > 0")
	}
	if c.Frames.Quality < 1 || c.Frames.Quality > 100 {
		return fmt.Errorf("frames.quality must be within 1..100")
	}
	if c.Frames.MaxWidth <= 0 || c.Frames.MaxBytes <= 0 {
		return fmt.Errorf("frames: max_width and max_bytes must be positive")
	}
	if c.Session.SuggestionTTLSeconds <= 0 {
		return fmt.Errorf("session.suggestion_ttl_seconds must be positive")
	}
	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%s: invalid url %q", field, raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%s: scheme must be one of %s", field, strings.Join(schemes, ", "))
}

func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "focusmate.db")
}

func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "focusmate.log")
}

func (c Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

func (c Config) FrameWarmup() time.Duration {
	return time.Duration(c.Frames.WarmupSeconds) * time.Second
}

func (c Config) FrameInterval() time.Duration {
	return time.Duration(c.Frames.IntervalSeconds) * time.Second
}

func (c Config) SuggestionTTL() time.Duration {
	return time.Duration(c.Session.SuggestionTTLSeconds) * time.Second
}

// YAML renders the effective configuration.
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}

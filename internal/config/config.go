// Package config loads mudra settings from a YAML or TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// UI modes.
const (
	ModeWindow = "window"
	ModeTray   = "tray"
)

// Environment overrides.
const (
	EnvStorePath  = "MUDRA_STORE_PATH"
	EnvCamera     = "MUDRA_CAMERA"
	EnvUIMode     = "MUDRA_UI_MODE"
	EnvServerAddr = "MUDRA_SERVER_ADDR"
)

// Config is the complete mudra configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" toml:"store"`
	Camera   CameraConfig   `yaml:"camera" toml:"camera"`
	Detector DetectorConfig `yaml:"detector" toml:"detector"`
	UI       UIConfig       `yaml:"ui" toml:"ui"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Hooks    HooksConfig    `yaml:"hooks" toml:"hooks"`
}

// StoreConfig locates the gesture snapshot. The extension selects the
// backend: .db, .sqlite and .sqlite3 use SQLite, anything else JSON.
type StoreConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// CameraConfig holds capture device settings.
type CameraConfig struct {
	Device int     `yaml:"device" toml:"device"`
	Width  int     `yaml:"width" toml:"width"`
	Height int     `yaml:"height" toml:"height"`
	MaxFPS float64 `yaml:"max_fps" toml:"max_fps"`
}

// DetectorConfig holds hand landmark detector settings.
type DetectorConfig struct {
	MaxHands              int     `yaml:"max_hands" toml:"max_hands"`
	MinConfidence         float64 `yaml:"min_confidence" toml:"min_confidence"`
	MinTrackingConfidence float64 `yaml:"min_tracking_confidence" toml:"min_tracking_confidence"`
}

// UIConfig selects the interactive surface.
type UIConfig struct {
	Mode string `yaml:"mode" toml:"mode"`
}

// ServerConfig configures the optional result server. An empty address
// disables it.
type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// HooksConfig locates the programs notified when the detected gesture changes.
type HooksConfig struct {
	Dir       string `yaml:"dir" toml:"dir"`
	TimeoutMs int    `yaml:"timeout_ms" toml:"timeout_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store:  StoreConfig{Path: defaultStorePath()},
		Camera: CameraConfig{Device: 0, Width: 640, Height: 480, MaxFPS: 15},
		Detector: DetectorConfig{
			MaxHands:              1,
			MinConfidence:         0.7,
			MinTrackingConfidence: 0.5,
		},
		UI:    UIConfig{Mode: ModeWindow},
		Hooks: HooksConfig{Dir: filepath.Join(dataDir(), "hooks"), TimeoutMs: 5000},
	}
}

// Load reads a configuration file. A missing file yields the defaults.
// Values in the file override defaults, and MUDRA_* environment variables
// override both. ${VAR} references in the file are expanded.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := decode(path, expandEnvVars(string(data)), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func decode(path, data string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(data, cfg)
		return err
	default:
		return yaml.Unmarshal([]byte(data), cfg)
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvStorePath); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv(EnvCamera); v != "" {
		device, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCamera, err)
		}
		cfg.Camera.Device = device
	}
	if v := os.Getenv(EnvUIMode); v != "" {
		cfg.UI.Mode = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Camera.Device < 0 {
		return fmt.Errorf("camera.device must be >= 0")
	}
	if c.Camera.MaxFPS <= 0 {
		return fmt.Errorf("camera.max_fps must be positive")
	}
	if c.Detector.MaxHands < 1 {
		return fmt.Errorf("detector.max_hands must be >= 1")
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector.min_confidence must be within [0, 1]")
	}
	if c.Detector.MinTrackingConfidence < 0 || c.Detector.MinTrackingConfidence > 1 {
		return fmt.Errorf("detector.min_tracking_confidence must be within [0, 1]")
	}
	if c.Hooks.TimeoutMs < 0 {
		return fmt.Errorf("hooks.timeout_ms must be >= 0")
	}
	if c.UI.Mode != ModeWindow && c.UI.Mode != ModeTray {
		return fmt.Errorf("ui.mode must be %q or %q, got %q", ModeWindow, ModeTray, c.UI.Mode)
	}
	return nil
}

// DefaultPath returns ~/.mudra/config.yaml.
func DefaultPath() string {
	return filepath.Join(dataDir(), "config.yaml")
}

func defaultStorePath() string {
	return filepath.Join(dataDir(), "gestures.json")
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

// Package config loads application configuration from a YAML file and
// MUDRA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/session"
)

// EnvPrefix prefixes environment overrides: MUDRA_SERVER_ADDR overrides
// server.addr.
const EnvPrefix = "MUDRA"

// Config is the root application configuration.
type Config struct {
	Server      ServerConfig   `mapstructure:"server"`
	Store       StoreConfig    `mapstructure:"store"`
	Log         LogConfig      `mapstructure:"log"`
	Detector    DetectorConfig `mapstructure:"detector"`
	Recognition session.Config `mapstructure:"recognition"`
	Plugins     PluginsConfig  `mapstructure:"plugins"`
	// Vocabulary is an optional path to a vocabulary YAML file replacing
	// the built-in one.
	Vocabulary string `mapstructure:"vocabulary"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// StoreConfig configures transcript persistence.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// PluginsConfig configures the confirmed-transcript plugins. An empty Dir
// disables them.
type PluginsConfig struct {
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DetectorConfig configures the camera and the landmark model for live
// recognition.
type DetectorConfig struct {
	CameraID        int `mapstructure:"camera_id"`
	detector.Config `mapstructure:",squash"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:      ServerConfig{Addr: "127.0.0.1:8080"},
		Store:       StoreConfig{Path: "mudra.db"},
		Log:         LogConfig{Level: "info", Format: "text"},
		Detector:    DetectorConfig{Config: detector.DefaultConfig()},
		Recognition: session.DefaultConfig(),
		Plugins:     PluginsConfig{Timeout: 5 * time.Second},
	}
}

// Load reads configuration from path, when non-empty, layered over the
// defaults, then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.UnmarshalExact(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("detector.camera_id", d.Detector.CameraID)
	v.SetDefault("detector.max_hands", d.Detector.MaxHands)
	v.SetDefault("detector.min_confidence", d.Detector.MinConfidence)
	v.SetDefault("detector.script_path", d.Detector.ScriptPath)
	v.SetDefault("recognition.window_capacity", d.Recognition.WindowCapacity)
	v.SetDefault("recognition.min_frames", d.Recognition.MinFrames)
	v.SetDefault("recognition.classify_interval", d.Recognition.ClassifyInterval)
	v.SetDefault("recognition.confidence_floor", d.Recognition.ConfidenceFloor)
	v.SetDefault("recognition.merge_window", d.Recognition.MergeWindow)
	v.SetDefault("recognition.max_detections", d.Recognition.MaxDetections)
	v.SetDefault("recognition.min_duration", d.Recognition.MinDuration)
	v.SetDefault("plugins.dir", d.Plugins.Dir)
	v.SetDefault("plugins.timeout", d.Plugins.Timeout)
	v.SetDefault("vocabulary", d.Vocabulary)
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is invalid; valid values: text, json", cfg.Log.Format))
	}
	if cfg.Detector.CameraID < 0 {
		errs = append(errs, fmt.Errorf("detector.camera_id must not be negative, got %d", cfg.Detector.CameraID))
	}
	if cfg.Detector.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("detector.max_hands must be at least 1, got %d", cfg.Detector.MaxHands))
	}
	if cfg.Detector.MinConfidence < 0 || cfg.Detector.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("detector.min_confidence must be in [0,1], got %g", cfg.Detector.MinConfidence))
	}
	if cfg.Plugins.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("plugins.timeout must be positive, got %s", cfg.Plugins.Timeout))
	}
	if err := cfg.Recognition.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("recognition: %w", err))
	}

	return errors.Join(errs...)
}

// Package config loads the rtfusion YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mrsinham/rtfusion/internal/convert"
	dcm "github.com/mrsinham/rtfusion/internal/dicom"
	"github.com/mrsinham/rtfusion/internal/export"
)

// Config is the complete configuration file.
type Config struct {
	// WorkDir is where scratch copies of imported files are made. Empty
	// means the system temp dir.
	WorkDir string        `yaml:"work_dir"`
	Import  ImportConfig  `yaml:"import"`
	Convert ConvertConfig `yaml:"convert"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
}

// ImportConfig holds series import settings.
type ImportConfig struct {
	HeaderCacheSize int `yaml:"header_cache_size"`
	MaxSeriesFiles  int `yaml:"max_series_files"`
}

// ConvertConfig holds contour conversion settings.
type ConvertConfig struct {
	Thresholds convert.Thresholds `yaml:"thresholds"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Import: ImportConfig{
			HeaderCacheSize: 512,
			MaxSeriesFiles:  dcm.DefaultMaxSeriesFiles,
		},
		Convert: ConvertConfig{Thresholds: convert.DefaultThresholds()},
		Logging: LoggingConfig{Level: "warn", Format: "text"},
		Output:  OutputConfig{Format: export.FormatYAML},
	}
}

// LoadConfig reads path over the defaults. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Import.HeaderCacheSize < 0 {
		return fmt.Errorf("import.header_cache_size must be >= 0, got %d", c.Import.HeaderCacheSize)
	}
	if c.Import.MaxSeriesFiles < 0 {
		return fmt.Errorf("import.max_series_files must be >= 0, got %d", c.Import.MaxSeriesFiles)
	}
	th := c.Convert.Thresholds
	if th.Corner < 0 || th.Reference < 0 || th.LesionDivisor <= 0 {
		return fmt.Errorf("convert.thresholds out of range: %+v", th)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if !export.ValidFormat(c.Output.Format) {
		return fmt.Errorf("output.format must be yaml, json or csv, got %q", c.Output.Format)
	}
	return nil
}

// NewLogger builds a logger writing to out.
func (l LoggingConfig) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)
	if l.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return log, nil
}

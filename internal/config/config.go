// Package config loads papergen settings from YAML, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/csheth/papergen/internal/export"
)

const (
	appName    = "papergen"
	envPrefix  = "PAPERGEN"
	configName = "config.yaml"

	DefaultBackendURL     = "prolific-benevolence-production.up.railway.app"
	DefaultBackendTimeout = 3 * time.Minute
	DefaultExportFilename = export.DefaultFilename
	DefaultSpeechCommand  = "espeak-ng"
	DefaultLogLevel       = "info"
)

type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Export  ExportConfig  `mapstructure:"export"`
	Speech  SpeechConfig  `mapstructure:"speech"`
	Log     LogConfig     `mapstructure:"log"`
}

type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ExportConfig struct {
	Dir      string `mapstructure:"dir"`
	Filename string `mapstructure:"filename"`
	// Fonts are font files tried for characters the built-in face lacks.
	Fonts []string `mapstructure:"fonts"`
}

type SpeechConfig struct {
	Command string `mapstructure:"command"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File is the rotating log path; an empty value disables logging.
	File string `mapstructure:"file"`
}

// DefaultPath is $XDG_CONFIG_HOME/papergen/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, configName)
}

// DefaultLogPath is $XDG_STATE_HOME/papergen/papergen.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}

// NewViper returns a viper instance with defaults and environment binding.
// Callers may bind flags to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend.base_url", DefaultBackendURL)
	v.SetDefault("backend.timeout", DefaultBackendTimeout)
	v.SetDefault("export.dir", ".")
	v.SetDefault("export.filename", DefaultExportFilename)
	v.SetDefault("speech.command", DefaultSpeechCommand)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", DefaultLogPath())
	return v
}

// Load reads path (or DefaultPath when empty) into v. A missing default file
// is not an error; a missing explicit file is.
func Load(v *viper.Viper, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = DefaultBackendTimeout
	}
	if cfg.Export.Filename == "" {
		cfg.Export.Filename = DefaultExportFilename
	}
	return cfg, nil
}

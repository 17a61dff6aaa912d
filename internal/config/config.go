// Package config loads gmfetch settings from an optional YAML file and
// GMFETCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the settings file looked up in the config directory.
const FileName = "gmfetch.yaml"

// Settings holds process-wide settings. Per-service settings live in the
// service config file named by ServiceConfig.
type Settings struct {
	Logging        LoggingSettings `mapstructure:"logging"`
	Timeout        time.Duration   `mapstructure:"timeout"`
	ServiceConfig  string          `mapstructure:"service_config"`
	DefaultService string          `mapstructure:"default_service"`
	DefaultCadence string          `mapstructure:"default_cadence"`
	MetricsFile    string          `mapstructure:"metrics_file"`
	NATS           NATSSettings    `mapstructure:"nats"`

	path string
}

type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NATSSettings enables fetch event publishing when URL is set.
type NATSSettings struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	Token         string `mapstructure:"token"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
		},
		Timeout:        5 * time.Minute,
		DefaultService: "WDC",
		DefaultCadence: "minute",
	}
}

// Path is the settings file that was consulted, whether or not it existed.
func (s *Settings) Path() string {
	return s.path
}

// NATSEnabled reports whether fetch events should be published.
func (s *Settings) NATSEnabled() bool {
	return s.NATS.URL != ""
}

// Dir returns the settings directory: $GMFETCH_CONFIG_DIR, or ~/.gmfetch.
func Dir() (string, error) {
	if dir := os.Getenv("GMFETCH_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".gmfetch"), nil
}

// Load reads settings from path, or from Dir()/gmfetch.yaml when path is
// empty. A missing file is not an error; a malformed one is. Environment
// variables such as GMFETCH_TIMEOUT or GMFETCH_LOGGING_LEVEL override file
// values.
func Load(path string) (*Settings, error) {
	explicit := path != ""
	if !explicit {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, FileName)
	}

	v := viper.New()
	def := Default()
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("service_config", "")
	v.SetDefault("default_service", def.DefaultService)
	v.SetDefault("default_cadence", def.DefaultCadence)
	v.SetDefault("metrics_file", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "")
	v.SetDefault("nats.username", "")
	v.SetDefault("nats.password", "")
	v.SetDefault("nats.token", "")

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("GMFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read settings %s: %w", path, err)
		}
		if explicit {
			return nil, fmt.Errorf("settings file %s: %w", path, fs.ErrNotExist)
		}
	}

	s := Default()
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	s.path = path
	return s, nil
}

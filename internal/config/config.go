package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name and the environment variable prefix.
	AppName = "shadestore"
	// FileName is the config file looked up in the working directory when
	// no path is given.
	FileName = "shadestore.cue"
)

//go:embed config_schema.cue
var configSchema string

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the resolved settings.
type Config struct {
	Database      string   `mapstructure:"database"`
	Driver        string   `mapstructure:"driver"`
	SearchPaths   []string `mapstructure:"search_paths"`
	ResourcePaths []string `mapstructure:"resource_paths"`
	LogLevel      string   `mapstructure:"log_level"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Database:      "shadestore.db",
		Driver:        "sqlite3",
		SearchPaths:   []string{"."},
		ResourcePaths: []string{"."},
		LogLevel:      "info",
	}
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// LoadOptions controls Load.
type LoadOptions struct {
	// ConfigFilePath names a CUE file that must exist. When empty,
	// FileName in the working directory is used if present.
	ConfigFilePath string
	// Flags are bound over file and environment values; see FlagNames.
	Flags *pflag.FlagSet
}

// FlagNames maps config keys to the command-line flags that set them.
var FlagNames = map[string]string{
	"database":       "db",
	"driver":         "driver",
	"search_paths":   "search-path",
	"resource_paths": "resource-path",
}

// Load resolves the settings. It returns the config file used, or "" when
// none was read.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("database", defaults.Database)
	v.SetDefault("driver", defaults.Driver)
	v.SetDefault("search_paths", defaults.SearchPaths)
	v.SetDefault("resource_paths", defaults.ResourcePaths)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.AutomaticEnv()

	resolved := ""
	switch {
	case opts.ConfigFilePath != "":
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		resolved = opts.ConfigFilePath
	case fileExists(FileName):
		resolved = FileName
	}
	if resolved != "" {
		if err := loadCUEIntoViper(v, resolved); err != nil {
			return nil, "", fmt.Errorf("load %s: %w", resolved, err)
		}
	}

	if opts.Flags != nil {
		for key, name := range FlagNames {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, "", fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

// Validate checks values that may come from the environment or flags and
// so bypass the schema.
func (c *Config) Validate() error {
	switch c.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("%w: driver %q", ErrInvalidConfig, c.Driver)
	}
	if c.Database == "" {
		return fmt.Errorf("%w: empty database path", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

// loadCUEIntoViper validates the file at path against #Config and merges
// it into v.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}
	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, userValue.Err())
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

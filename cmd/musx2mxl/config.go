package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix namespaces the environment variables read, e.g. MUSX2MXL_PORT
const envPrefix = "MUSX2MXL"

// Config is the resolved configuration. Flags win over the environment,
// which wins over the config file.
type Config struct {
	Verbose   bool   `mapstructure:"verbose"`
	Port      int    `mapstructure:"port"`
	OutputDir string `mapstructure:"output-dir"`
	Software  string `mapstructure:"software"`
}

// loadConfig resolves the configuration from flags, environment and the
// optional file at path.
func loadConfig(path string, flags ...*pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("verbose", false)
	v.SetDefault("port", 8080)
	v.SetDefault("output-dir", "")
	v.SetDefault("software", "musx2mxl "+version)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	for _, fs := range flags {
		if fs == nil {
			continue
		}
		for _, key := range []string{"verbose", "port", "output-dir"} {
			if f := fs.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", key, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// logger is the process-wide structured logger. Safe to use before
// initLogger is called; defaults to slog.Default().
var logger = slog.Default()

// initLogger configures the shared slog logger and makes it the default
func initLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: verbose,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

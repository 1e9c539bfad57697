package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is read from ~/.taskboard/config.yaml and TASKBOARD_* variables.
type Config struct {
	APIURL   string        `mapstructure:"api_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	LogLevel string        `mapstructure:"log_level"`
}

const (
	defaultAPIURL   = "http://localhost:8080/api"
	defaultTimeout  = 10 * time.Second
	defaultLogLevel = "warn"
)

// DefaultConfigPath returns ~/.taskboard/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".taskboard", "config.yaml")
	}
	return filepath.Join(home, ".taskboard", "config.yaml")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TASKBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_url", defaultAPIURL)
	v.SetDefault("timeout", defaultTimeout)
	v.SetDefault("log_level", defaultLogLevel)
	return v
}

// loadConfig merges the file at path (if present) with env and bound flags.
func loadConfig(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isMissing(err) {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	return cfg, nil
}

func isMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

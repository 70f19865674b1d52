package lib

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config contains runtime configuration loaded from environment variables,
// layered over an optional TOML file.
type Config struct {
	DatabaseURL   string
	FlushInterval time.Duration
	LogLevel      string
	LogFile       string
	MetricsAddr   string
}

// FileConfig mirrors the environment keys in the optional TOML file.
type FileConfig struct {
	DatabaseURL          string `toml:"database_url"`
	FlushIntervalSeconds int    `toml:"flush_interval_seconds"`
	LogLevel             string `toml:"log_level"`
	LogFile              string `toml:"log_file"`
	MetricsAddr          string `toml:"metrics_addr"`
}

func LoadConfig() (Config, error) {
	path := getOrDefault("KEYTALLY_CONFIG", DefaultConfigPath())
	file, err := LoadConfigFile(path)
	if err != nil {
		return Config{}, err
	}

	fileInterval := file.FlushIntervalSeconds
	if fileInterval == 0 {
		fileInterval = 5
	}

	cfg := Config{
		DatabaseURL:   strings.TrimSpace(getOrDefault("DATABASE_URL", file.DatabaseURL)),
		FlushInterval: time.Duration(getIntOrDefault("FLUSH_INTERVAL_SECONDS", fileInterval)) * time.Second,
		LogLevel:      getOrDefault("LOG_LEVEL", orDefault(file.LogLevel, "INFO")),
		LogFile:       getOrDefault("LOG_FILE", file.LogFile),
		MetricsAddr:   getOrDefault("METRICS_ADDR", file.MetricsAddr),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.FlushInterval <= 0 {
		return Config{}, fmt.Errorf("FLUSH_INTERVAL_SECONDS must be > 0")
	}

	return cfg, nil
}

// LoadConfigFile reads the TOML config at path. A missing file is not an error.
func LoadConfigFile(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("stat config %s: %w", path, err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/keytally/config.toml.
func DefaultConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "keytally", "config.toml")
}

func getOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getIntOrDefault(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "oscarnight.yaml"

type Config struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	Storage struct {
		// Backend is one of file, postgres or nats. The postgres backend
		// takes its connection and table from DB_* and COLLECTIONS_TABLE.
		Backend string `yaml:"backend"`
		Dir     string `yaml:"dir"`
		Bucket  string `yaml:"bucket"`
	} `yaml:"storage"`

	Writer struct {
		MaxRetries   int           `yaml:"max_retries"`
		RetryDelay   time.Duration `yaml:"retry_delay"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"writer"`

	NATS struct {
		URL          string `yaml:"url"`
		MirrorEvents bool   `yaml:"mirror_events"`
		Stream       string `yaml:"stream"`
	} `yaml:"nats"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func defaultConfig() *Config {
	cfg := &Config{
		Port:            3000,
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
	}
	cfg.Storage.Backend = "file"
	cfg.Storage.Dir = "config"
	cfg.Storage.Bucket = "oscarnight"
	cfg.Writer.MaxRetries = 3
	cfg.Writer.RetryDelay = 500 * time.Millisecond
	cfg.Writer.WriteTimeout = 5 * time.Second
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.NATS.Stream = "SESSION_EVENTS"
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// loadConfig layers defaults, the yaml file and environment overrides. A
// missing file is only an error when the path was given explicitly.
func loadConfig(path string, explicit bool) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults and environment only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.applyEnv()

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.Dir = getEnv("DATA_DIR", c.Storage.Dir)
	c.Storage.Bucket = getEnv("KV_BUCKET", c.Storage.Bucket)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.MirrorEvents = getEnvAsBool("MIRROR_EVENTS", c.NATS.MirrorEvents)
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch strings.ToLower(c.Storage.Backend) {
	case "file", "postgres", "nats":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

// resolvePort applies the command line. The positional port wins over --port.
func resolvePort(config *Config, flagPort int, args []string) error {
	if flagPort > 0 {
		config.Port = flagPort
	}
	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[0], err)
		}
		config.Port = port
	}
	return config.validate()
}

package server

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/derktes/rf-signal-collector/pulsecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the server settings. Decoder options are shared by every
// collector.
type Config struct {
	Listen         string            `yaml:"listen"`
	OriginPatterns []string          `yaml:"origin_patterns"`
	RecentEvents   int               `yaml:"recent_events"`
	MaxCaptures    int               `yaml:"max_captures"`
	StreamTimeout  time.Duration     `yaml:"stream_timeout"`
	Debug          bool              `yaml:"debug"`
	Decoder        pulsecode.Options `yaml:"decoder"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Listen:         ":8080",
		OriginPatterns: []string{"localhost:*", "192.168.*.*:*"},
		RecentEvents:   32,
		MaxCaptures:    8,
		StreamTimeout:  15 * time.Minute,
		Decoder:        pulsecode.DefaultOptions(),
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(filename)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// applyEnv overrides settings from the environment, reading a .env file
// first when one exists.
func (c *Config) applyEnv() error {
	_ = godotenv.Load()
	if listen := strings.TrimSpace(os.Getenv("RF_LISTEN")); listen != "" {
		if !strings.Contains(listen, ":") {
			listen = ":" + listen
		}
		c.Listen = listen
	}
	if origins := strings.TrimSpace(os.Getenv("RF_ORIGIN_PATTERNS")); origins != "" {
		c.OriginPatterns = strings.Split(origins, ",")
	}
	if raw := strings.TrimSpace(os.Getenv("RF_TOLERANCE")); raw != "" {
		tolerance, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("RF_TOLERANCE: %w", err)
		}
		c.Decoder.Tolerance = tolerance
	}
	if raw := strings.TrimSpace(os.Getenv("RF_DEBUG")); raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("RF_DEBUG: %w", err)
		}
		c.Debug = debug
	}
	return nil
}

// Validate checks that the config can run a server.
func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address must be set")
	}
	if c.RecentEvents < 1 {
		return fmt.Errorf("recent_events must be at least 1, got %d", c.RecentEvents)
	}
	if c.MaxCaptures < 0 {
		return fmt.Errorf("max_captures must not be negative, got %d", c.MaxCaptures)
	}
	if c.StreamTimeout <= 0 {
		return fmt.Errorf("stream_timeout must be positive, got %v", c.StreamTimeout)
	}
	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("decoder: %w", err)
	}
	return nil
}

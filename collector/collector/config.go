package collector

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/derktes/rf-signal-collector/pulsecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the collector settings. Command line flags override the
// config file, which overrides the defaults.
type Config struct {
	Serial      string            `yaml:"serial"`
	Baud        int               `yaml:"baud"`
	Server      string            `yaml:"server"`
	Port        int               `yaml:"port"`
	CollectorID string            `yaml:"collector_id"`
	Resolution  int               `yaml:"resolution"`
	CSV         string            `yaml:"csv"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Decoder     pulsecode.Options `yaml:"decoder"`
}

// MQTTConfig configures the optional publishing of locally decoded codes.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	Retain      bool   `yaml:"retain"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Baud:       9600,
		Server:     "localhost",
		Port:       8080,
		Resolution: 1,
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			TopicPrefix: "rf",
		},
		Decoder: pulsecode.DefaultOptions(),
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

// applyEnv fills credentials and the collector id from the environment,
// reading a .env file first when one exists.
func (c *Config) applyEnv() {
	_ = godotenv.Load()
	if id := strings.TrimSpace(os.Getenv("RF_COLLECTOR_ID")); id != "" {
		c.CollectorID = id
	}
	if broker := strings.TrimSpace(os.Getenv("RF_MQTT_BROKER")); broker != "" {
		c.MQTT.Broker = broker
	}
	if user := os.Getenv("RF_MQTT_USERNAME"); user != "" {
		c.MQTT.Username = user
	}
	if password := os.Getenv("RF_MQTT_PASSWORD"); password != "" {
		c.MQTT.Password = password
	}
}

// Validate checks everything but the serial port, which Start checks on
// the file system.
func (c Config) Validate() error {
	if c.CollectorID == "" {
		return errors.New("Collector ID not specified")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("baud rate must be positive, got %d", c.Baud)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Port)
	}
	if c.Resolution < 1 {
		return fmt.Errorf("resolution must be at least 1, got %d", c.Resolution)
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return errors.New("mqtt.broker must be set when mqtt is enabled")
		}
		if c.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
		}
	}
	if err := c.Decoder.Validate(); err != nil {
		return fmt.Errorf("decoder: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the traffic-light controller.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	// Name identifies this controller in telemetry, e.g. the InfluxDB
	// controller tag.
	Name     string         `yaml:"name"`
	Machine  MachineConfig  `yaml:"machine"`
	Cycle    CycleConfig    `yaml:"cycle"`
	Logging  LoggingConfig  `yaml:"logging"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
}

// MachineConfig contains the state machine settings.
type MachineConfig struct {
	IgnoreUnhandledEvents bool `yaml:"ignore_unhandled_events"`
	StatesCapacity        int  `yaml:"states_capacity"`
	TransitionsCapacity   int  `yaml:"transitions_capacity"`
	HistoryLimit          int  `yaml:"history_limit"`
}

// CycleConfig contains the periodic light-cycle driver settings.
type CycleConfig struct {
	// Interval is the time each light phase is held.
	Interval time.Duration `yaml:"interval"`
	// ErrorRate is the probability, per tick, of injecting a synthetic fault.
	ErrorRate float64 `yaml:"error_rate"`
	// MaxCycles powers the lights down after this many full red-to-red cycles.
	// Zero means unlimited.
	MaxCycles int `yaml:"max_cycles"`
	// Seed fixes the fault generator. Zero seeds from the clock.
	Seed uint64 `yaml:"seed"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// Load reads configuration from a YAML file and applies environment overrides.
//
// The loading process:
//  1. Start with defaults
//  2. Overlay the YAML file
//  3. Apply TRAFFICLIGHT_* environment variables
//  4. Validate
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with the stock controller values:
// half-second phases, a 10% fault rate and small storage hints.
func Default() *Config {
	return &Config{
		Name: "trafficlight",

		Machine: MachineConfig{
			IgnoreUnhandledEvents: false,
			StatesCapacity:        5,
			TransitionsCapacity:   5,
			HistoryLimit:          32,
		},
		Cycle: CycleConfig{
			Interval:  500 * time.Millisecond,
			ErrorRate: 0.10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "trafficlight",
			},
			QoS:         1,
			TopicPrefix: "trafficlight",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Org:           "trafficlight",
			Bucket:        "lights",
			BatchSize:     100,
			FlushInterval: 10,
		},
	}
}

// applyEnvOverrides applies TRAFFICLIGHT_* environment variables on top of
// file values. Sensitive values belong here rather than in the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRAFFICLIGHT_NAME"); v != "" {
		cfg.Name = v
	}
	if v := os.Getenv("TRAFFICLIGHT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("TRAFFICLIGHT_CYCLE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cycle.Interval = d
		}
	}
	if v := os.Getenv("TRAFFICLIGHT_CYCLE_ERROR_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Cycle.ErrorRate = f
		}
	}

	// MQTT
	if v := os.Getenv("TRAFFICLIGHT_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("TRAFFICLIGHT_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("TRAFFICLIGHT_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("TRAFFICLIGHT_INFLUXDB_URL"); v != "" {
		cfg.InfluxDB.URL = v
	}
	if v := os.Getenv("TRAFFICLIGHT_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}

	if c.Machine.StatesCapacity < 0 || c.Machine.TransitionsCapacity < 0 {
		errs = append(errs, "machine capacities must not be negative")
	}
	if c.Machine.HistoryLimit < 0 {
		errs = append(errs, "machine.history_limit must not be negative")
	}

	if c.Cycle.Interval <= 0 {
		errs = append(errs, "cycle.interval must be positive")
	}
	if c.Cycle.ErrorRate < 0 || c.Cycle.ErrorRate > 1 {
		errs = append(errs, "cycle.error_rate must be between 0 and 1")
	}
	if c.Cycle.MaxCycles < 0 {
		errs = append(errs, "cycle.max_cycles must not be negative")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.TopicPrefix == "" {
			errs = append(errs, "mqtt.topic_prefix is required")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent spool configuration stored as config.toml
// in the .spool/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Decode  DecodeConfig `toml:"decode"`
	Log     LogConfig    `toml:"log"`
	Kafka   KafkaConfig  `toml:"kafka"`
	Worker  WorkerConfig `toml:"worker"`
}

// DecodeConfig holds settings for the decode pipeline.
type DecodeConfig struct {
	// Dialect selects the wire dialect: "auto", "openai", or "anthropic".
	Dialect string `toml:"dialect,omitempty"`

	// Capture enables teeing raw stream bytes into the captures/ directory.
	Capture bool `toml:"capture,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Debug bool `toml:"debug,omitempty"`
	JSON  bool `toml:"json,omitempty"`
}

// KafkaConfig holds settings for publishing decoded messages to Kafka.
type KafkaConfig struct {
	Enabled bool     `toml:"enabled,omitempty"`
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}

// WorkerConfig holds settings for the async publish worker pool.
type WorkerConfig struct {
	NumWorkers uint `toml:"num_workers,omitempty"`
	QueueSize  uint `toml:"queue_size,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"decode.dialect": {
		get: func(c *Config) string { return c.Decode.Dialect },
		set: func(c *Config, v string) error { c.Decode.Dialect = v; return nil },
	},
	"decode.capture": {
		get: func(c *Config) string { return strconv.FormatBool(c.Decode.Capture) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for decode.capture: %w", err)
			}
			c.Decode.Capture = b
			return nil
		},
	},
	"log.debug": {
		get: func(c *Config) string { return strconv.FormatBool(c.Log.Debug) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for log.debug: %w", err)
			}
			c.Log.Debug = b
			return nil
		},
	},
	"log.json": {
		get: func(c *Config) string { return strconv.FormatBool(c.Log.JSON) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for log.json: %w", err)
			}
			c.Log.JSON = b
			return nil
		},
	},
	"kafka.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Kafka.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for kafka.enabled: %w", err)
			}
			c.Kafka.Enabled = b
			return nil
		},
	},
	"kafka.brokers": {
		get: func(c *Config) string { return strings.Join(c.Kafka.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Kafka.Brokers = splitBrokers(v)
			return nil
		},
	},
	"kafka.topic": {
		get: func(c *Config) string { return c.Kafka.Topic },
		set: func(c *Config, v string) error { c.Kafka.Topic = v; return nil },
	},
	"worker.num_workers": {
		get: func(c *Config) string {
			if c.Worker.NumWorkers == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Worker.NumWorkers), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for worker.num_workers: %w", err)
			}
			c.Worker.NumWorkers = uint(n)
			return nil
		},
	},
	"worker.queue_size": {
		get: func(c *Config) string {
			if c.Worker.QueueSize == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Worker.QueueSize), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for worker.queue_size: %w", err)
			}
			c.Worker.QueueSize = uint(n)
			return nil
		},
	},
}

// splitBrokers splits a comma-separated broker list, trimming whitespace and
// dropping empty entries.
func splitBrokers(v string) []string {
	parts := strings.Split(v, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

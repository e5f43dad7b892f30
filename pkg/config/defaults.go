package config

const (
	defaultDialect = "auto"

	defaultKafkaBroker = "localhost:9092"
	defaultKafkaTopic  = "spool.messages.decoded"

	defaultNumWorkers uint = 3
	defaultQueueSize  uint = 256
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Decode: DecodeConfig{
			Dialect: defaultDialect,
		},
		Kafka: KafkaConfig{
			Brokers: []string{defaultKafkaBroker},
			Topic:   defaultKafkaTopic,
		},
		Worker: WorkerConfig{
			NumWorkers: defaultNumWorkers,
			QueueSize:  defaultQueueSize,
		},
	}
}

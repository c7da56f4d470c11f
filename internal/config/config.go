package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	TransportMemory = "memory"
	TransportSQS    = "sqs"
	TransportKafka  = "kafka"

	StoreMemory = "memory"
	StoreRedis  = "redis"

	FailurePolicyDrop    = "drop"
	FailurePolicyRedrive = "redrive"
)

type Config struct {
	Transport     string        `env:"TRANSPORT"`
	QueueName     string        `env:"QUEUE_NAME"`
	Workers       int           `env:"WORKERS"`
	FailurePolicy string        `env:"FAILURE_POLICY"`
	DedupTTL      time.Duration `env:"DEDUP_TTL"`
	MetricsAddr   string        `env:"METRICS_ADDR"`
	LogLevel      string        `env:"LOG_LEVEL"`

	Store       string `env:"STORE"`
	RedisConfig struct {
		Addr     string `env:"REDIS_ADDR"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB"`
		Key      string `env:"REDIS_KEY"`
	}

	KafkaBrokerURL     string `env:"KAFKA_BROKER_URL"`
	KafkaConsumerGroup string `env:"KAFKA_CONSUMER_GROUP"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.Transport = strings.ToLower(getEnvOrDefault("TRANSPORT", TransportMemory))
	cfg.QueueName = getEnvOrDefault("QUEUE_NAME", "processor-queue-1")
	cfg.Workers = getEnvAsInt("WORKERS", 4)
	cfg.FailurePolicy = strings.ToLower(getEnvOrDefault("FAILURE_POLICY", FailurePolicyDrop))
	cfg.DedupTTL = getEnvAsDuration("DEDUP_TTL", 0)
	cfg.MetricsAddr = getEnvOrDefault("METRICS_ADDR", ":9090")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.Store = strings.ToLower(getEnvOrDefault("STORE", StoreMemory))
	cfg.RedisConfig.Addr = getEnvOrDefault("REDIS_ADDR", "localhost:6379")
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", "")
	cfg.RedisConfig.DB = getEnvAsInt("REDIS_DB", 0)
	cfg.RedisConfig.Key = getEnvOrDefault("REDIS_KEY", "versionrouter:order_items")

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaConsumerGroup = getEnvOrDefault("KAFKA_CONSUMER_GROUP", "productprocessor-group")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings and numeric bounds.
func (c *Config) Validate() error {
	var errs []error
	switch c.Transport {
	case TransportMemory, TransportSQS, TransportKafka:
	default:
		errs = append(errs, fmt.Errorf("unknown TRANSPORT %q (want memory, sqs or kafka)", c.Transport))
	}
	switch c.Store {
	case StoreMemory, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE %q (want memory or redis)", c.Store))
	}
	switch c.FailurePolicy {
	case FailurePolicyDrop, FailurePolicyRedrive:
	default:
		errs = append(errs, fmt.Errorf("unknown FAILURE_POLICY %q (want drop or redrive)", c.FailurePolicy))
	}
	if c.QueueName == "" {
		errs = append(errs, errors.New("QUEUE_NAME must not be empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("WORKERS must be positive, got %d", c.Workers))
	}
	if c.DedupTTL < 0 {
		errs = append(errs, fmt.Errorf("DEDUP_TTL must not be negative, got %s", c.DedupTTL))
	}
	return errors.Join(errs...)
}

func (c *Config) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokerURL, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

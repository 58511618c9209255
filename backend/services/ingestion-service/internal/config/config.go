package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "tempstream/backend/libs/config"
)

const (
	defaultPort            = "8085"
	defaultStoreTimeout    = 5 * time.Second
	defaultTopic           = "telemetry.recorded"
	defaultPartitions      = 6
	defaultPublishTimeout  = 3 * time.Second
	defaultFailureLimit    = 5
	defaultBreakerCooldown = 30 * time.Second
	defaultReplayInterval  = 10 * time.Second
	defaultReplayPageSize  = 100
)

// Config defines ingestion service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"INGESTION_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN     string        `yaml:"dsn" env:"INGESTION_POSTGRES_DSN"`
		Migrate bool          `yaml:"migrate" env:"INGESTION_POSTGRES_MIGRATE"`
		Timeout time.Duration `yaml:"timeout" env:"INGESTION_POSTGRES_TIMEOUT"`
	} `yaml:"database"`
	Kafka struct {
		Brokers        []string      `yaml:"brokers" env:"KAFKA_BROKERS"`
		Topic          string        `yaml:"topic" env:"TELEMETRY_TOPIC"`
		Partitions     int           `yaml:"partitions" env:"TELEMETRY_TOPIC_PARTITIONS"`
		PublishTimeout time.Duration `yaml:"publishTimeout" env:"INGESTION_PUBLISH_TIMEOUT"`
	} `yaml:"kafka"`
	Breaker struct {
		FailureThreshold uint32        `yaml:"failureThreshold" env:"INGESTION_BREAKER_FAILURES"`
		OpenTimeout      time.Duration `yaml:"openTimeout" env:"INGESTION_BREAKER_OPEN_TIMEOUT"`
	} `yaml:"breaker"`
	Replay struct {
		Interval time.Duration `yaml:"interval" env:"INGESTION_REPLAY_INTERVAL"`
		PageSize int           `yaml:"pageSize" env:"INGESTION_REPLAY_PAGE_SIZE"`
	} `yaml:"replay"`
	JWT struct {
		Secret string `yaml:"secret" env:"INGESTION_JWT_SECRET"`
	} `yaml:"jwt"`
}

// Load configuration using shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.Database.Migrate = true
	cfg.Database.Timeout = defaultStoreTimeout
	cfg.Kafka.Topic = defaultTopic
	cfg.Kafka.Partitions = defaultPartitions
	cfg.Kafka.PublishTimeout = defaultPublishTimeout
	cfg.Breaker.FailureThreshold = defaultFailureLimit
	cfg.Breaker.OpenTimeout = defaultBreakerCooldown
	cfg.Replay.Interval = defaultReplayInterval
	cfg.Replay.PageSize = defaultReplayPageSize

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return errors.New("config: kafka brokers required")
	}
	if strings.TrimSpace(c.Kafka.Topic) == "" {
		return errors.New("config: telemetry topic required")
	}
	if c.Kafka.PublishTimeout <= 0 {
		return errors.New("config: publish timeout must be positive")
	}
	if c.Replay.Interval <= 0 {
		return errors.New("config: replay interval must be positive")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// ReplayPageSize returns the number of fallback rows read per page.
func (c *Config) ReplayPageSize() int {
	if c.Replay.PageSize <= 0 {
		return defaultReplayPageSize
	}
	return c.Replay.PageSize
}

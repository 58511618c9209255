package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "tempstream/backend/libs/config"
)

const (
	defaultPort          = "8086"
	defaultTopic         = "telemetry.recorded"
	defaultGroupID       = "projection-updater"
	defaultRejoinBackoff = 2 * time.Second
	defaultRedisAddr     = "localhost:6379"
	defaultCacheTTL      = 24 * time.Hour
)

// Config defines projection service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"PROJECTION_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN     string `yaml:"dsn" env:"PROJECTION_POSTGRES_DSN"`
		Migrate bool   `yaml:"migrate" env:"PROJECTION_POSTGRES_MIGRATE"`
	} `yaml:"database"`
	Kafka struct {
		Brokers       []string      `yaml:"brokers" env:"KAFKA_BROKERS"`
		Topic         string        `yaml:"topic" env:"TELEMETRY_TOPIC"`
		GroupID       string        `yaml:"groupId" env:"PROJECTION_GROUP_ID"`
		Consumers     int           `yaml:"consumers" env:"PROJECTION_CONSUMERS"`
		RejoinBackoff time.Duration `yaml:"rejoinBackoff" env:"PROJECTION_REJOIN_BACKOFF"`
	} `yaml:"kafka"`
	Redis struct {
		Addr     string        `yaml:"addr" env:"PROJECTION_REDIS_ADDR"`
		Password string        `yaml:"password" env:"PROJECTION_REDIS_PASSWORD"`
		DB       int           `yaml:"db" env:"PROJECTION_REDIS_DB"`
		TTL      time.Duration `yaml:"ttl" env:"PROJECTION_REDIS_TTL"`
	} `yaml:"redis"`
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = defaultPort
	cfg.Database.Migrate = true
	cfg.Kafka.Topic = defaultTopic
	cfg.Kafka.GroupID = defaultGroupID
	cfg.Kafka.Consumers = 1
	cfg.Kafka.RejoinBackoff = defaultRejoinBackoff
	cfg.Redis.Addr = defaultRedisAddr
	cfg.Redis.TTL = defaultCacheTTL

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, errors.New("config: kafka brokers required")
	}
	if strings.TrimSpace(cfg.Kafka.GroupID) == "" {
		return nil, errors.New("config: consumer group id required")
	}
	if cfg.Kafka.Consumers <= 0 {
		return nil, errors.New("config: consumers must be positive")
	}
	return cfg, nil
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

// CacheEnabled reports whether a redis address is configured.
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// CacheTTL returns ttl for cached projections.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return defaultCacheTTL
	}
	return c.Redis.TTL
}

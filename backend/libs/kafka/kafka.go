package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"tempstream/backend/libs/logging"
)

const (
	defaultWriteTimeout = 3 * time.Second
	defaultBatchTimeout = 10 * time.Millisecond
	defaultMaxWait      = 500 * time.Millisecond
	defaultMaxBytes     = 10e6
	defaultDialTimeout  = 5 * time.Second
)

// WriterConfig configures a topic producer.
type WriterConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// ReaderConfig configures a consumer-group member.
type ReaderConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	MaxWait time.Duration
}

// NewWriter builds a producer that partitions by message key and waits for all in-sync replicas.
func NewWriter(cfg WriterConfig, logger *zap.Logger) (*kafka.Writer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: brokers required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka: topic required")
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  1,
		BatchTimeout: defaultBatchTimeout,
		WriteTimeout: timeout,
		Logger:       logging.KafkaLogger(logger),
		ErrorLogger:  logging.KafkaErrorLogger(logger),
	}, nil
}

// NewReaderConfig returns the reader settings for a group member. Offsets are never committed
// implicitly: CommitInterval stays zero so CommitMessages is synchronous and explicit.
func NewReaderConfig(cfg ReaderConfig, logger *zap.Logger) (kafka.ReaderConfig, error) {
	if len(cfg.Brokers) == 0 {
		return kafka.ReaderConfig{}, errors.New("kafka: brokers required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return kafka.ReaderConfig{}, errors.New("kafka: topic required")
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return kafka.ReaderConfig{}, errors.New("kafka: group id required")
	}
	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	return kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       defaultMaxBytes,
		MaxWait:        maxWait,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
		Logger:         logging.KafkaLogger(logger),
		ErrorLogger:    logging.KafkaErrorLogger(logger),
	}, nil
}

// EnsureTopic creates the topic on the cluster controller if it does not exist yet.
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions int) error {
	if len(brokers) == 0 {
		return errors.New("kafka: brokers required")
	}
	if partitions <= 0 {
		partitions = 1
	}

	dialer := &kafka.Dialer{Timeout: defaultDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("kafka: dial: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka: controller: %w", err)
	}

	controllerConn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("kafka: dial controller: %w", err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("kafka: create topic %s: %w", topic, err)
	}
	return nil
}

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func TestNewWriterPartitionsByKey(t *testing.T) {
	w, err := NewWriter(WriterConfig{Brokers: []string{"localhost:9092"}, Topic: "telemetry.recorded"}, zap.NewNop())
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	defer w.Close()

	if _, ok := w.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("expected hash balancer, got %T", w.Balancer)
	}
	if w.RequiredAcks != kafka.RequireAll {
		t.Fatalf("expected RequireAll, got %v", w.RequiredAcks)
	}
	if w.WriteTimeout != defaultWriteTimeout {
		t.Fatalf("expected default timeout, got %s", w.WriteTimeout)
	}
}

func TestNewWriterValidates(t *testing.T) {
	if _, err := NewWriter(WriterConfig{Topic: "t"}, zap.NewNop()); err == nil {
		t.Fatal("expected error without brokers")
	}
	if _, err := NewWriter(WriterConfig{Brokers: []string{"b:9092"}}, zap.NewNop()); err == nil {
		t.Fatal("expected error without topic")
	}
}

func TestNewReaderConfigCommitsManually(t *testing.T) {
	cfg, err := NewReaderConfig(ReaderConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "telemetry.recorded",
		GroupID: "projection-updater",
		MaxWait: time.Second,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("reader config: %v", err)
	}
	if cfg.CommitInterval != 0 {
		t.Fatalf("expected synchronous commits, got interval %s", cfg.CommitInterval)
	}
	if cfg.StartOffset != kafka.FirstOffset {
		t.Fatalf("expected first offset start, got %d", cfg.StartOffset)
	}
	if cfg.MaxWait != time.Second {
		t.Fatalf("unexpected max wait %s", cfg.MaxWait)
	}
}

func TestNewReaderConfigRequiresGroup(t *testing.T) {
	_, err := NewReaderConfig(ReaderConfig{Brokers: []string{"b:9092"}, Topic: "t"}, zap.NewNop())
	if err == nil {
		t.Fatal("expected error without group id")
	}
}

func TestEnsureTopicRequiresBrokers(t *testing.T) {
	if err := EnsureTopic(context.Background(), nil, "t", 3); err == nil {
		t.Fatal("expected error without brokers")
	}
}

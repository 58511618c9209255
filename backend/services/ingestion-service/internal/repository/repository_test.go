package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tempstream/backend/libs/db"
	"tempstream/backend/libs/telemetry"
	"tempstream/backend/services/ingestion-service/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEMPSTREAM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEMPSTREAM_TEST_POSTGRES_DSN not set, skipping integration test")
	}
	if err := db.Migrate(dsn, "up"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	conn, err := db.NewPostgresDB(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := conn.Exec(`TRUNCATE telemetry_records, fallback_events`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return conn
}

func TestTelemetryRepositoryRejectsDuplicateKey(t *testing.T) {
	repo := NewTelemetryRepository(openTestDB(t))
	ctx := context.Background()
	rec := telemetry.Telemetry{
		DeviceID:    1,
		Measurement: decimal.RequireFromString("20.000000000000000001"),
		Date:        time.Date(2026, 10, 17, 10, 0, 0, 1000, time.UTC),
	}

	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	exists, err := repo.Exists(ctx, rec.Key())
	if err != nil || !exists {
		t.Fatalf("exists = %v err = %v", exists, err)
	}
	if err := repo.Insert(ctx, rec); !errors.Is(err, ErrDuplicateRecord) {
		t.Fatalf("expected ErrDuplicateRecord, got %v", err)
	}

	if err := repo.Delete(ctx, rec.Key()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("insert after delete: %v", err)
	}
}

func TestFallbackRepositoryOrdersByFailure(t *testing.T) {
	repo := NewFallbackRepository(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

	var saved []models.FallbackEvent
	for i, offset := range []time.Duration{2 * time.Second, 0, time.Second} {
		e := telemetry.NewRecorded(telemetry.Telemetry{
			DeviceID:    int64(i + 1),
			Measurement: decimal.NewFromInt(int64(20 + i)),
			Date:        base,
		}, base)
		fe := models.FallbackEvent{Event: e, FailedAt: base.Add(offset)}
		if err := repo.Save(ctx, fe); err != nil {
			t.Fatalf("save: %v", err)
		}
		saved = append(saved, fe)
	}
	if err := repo.Save(ctx, saved[0]); err != nil {
		t.Fatalf("saving the same event twice must be a no-op: %v", err)
	}

	events, err := repo.ListOldest(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	want := []int64{2, 3, 1}
	for i, e := range events {
		if e.Event.DeviceID != want[i] {
			t.Fatalf("position %d holds device %d, want %d", i, e.Event.DeviceID, want[i])
		}
	}

	if ok, err := repo.Exists(ctx, events[0].Event.EventID); err != nil || !ok {
		t.Fatalf("exists = %v err = %v", ok, err)
	}
	if err := repo.Delete(ctx, events[0].Event.EventID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, err := repo.Exists(ctx, events[0].Event.EventID); err != nil || ok {
		t.Fatalf("exists after delete = %v err = %v", ok, err)
	}
	n, err := repo.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("count = %d err = %v", n, err)
	}
}

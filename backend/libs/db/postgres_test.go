package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestNewPostgresDBEmptyDSN(t *testing.T) {
	for _, dsn := range []string{"", "   "} {
		db, err := NewPostgresDB(context.Background(), dsn)
		if !errors.Is(err, ErrEmptyDSN) {
			t.Fatalf("dsn %q: expected ErrEmptyDSN, got %v", dsn, err)
		}
		if db != nil {
			t.Fatalf("dsn %q: expected nil db", dsn)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"unique", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"foreign key", &pgconn.PgError{Code: "23503"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("IsUniqueViolation() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMigrateRejectsBadInput(t *testing.T) {
	if err := Migrate("", "up"); !errors.Is(err, ErrEmptyDSN) {
		t.Fatalf("expected ErrEmptyDSN, got %v", err)
	}
	for _, direction := range []string{"", "sideways", "UP"} {
		if err := Migrate("postgres://localhost/tempstream", direction); err == nil {
			t.Fatalf("direction %q: expected error", direction)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("expected 3 up/down pairs, got %d files", len(entries))
	}
}

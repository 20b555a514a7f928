package testutil

// Package testutil holds shared helpers for adapter and service tests.

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// TestSecret is a signing secret long enough to pass config validation.
const TestSecret = "unit-test-signing-secret-0123456789abcdef"

// SetupTestRedis starts an in-process miniredis server and returns a client for it.
// Both are torn down when the test ends.
func SetupTestRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: failed to close redis client: %v", err)
		}
	})
	return client, srv
}

// SetupSQLMock returns a sqlmock-backed *sql.DB. Unmet expectations fail the test on cleanup.
func SetupSQLMock(t testing.TB) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
		_ = db.Close()
	})
	return db, mock
}

// TestTime returns a fixed, readable reference time for tests.
func TestTime() time.Time {
	return time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)
}

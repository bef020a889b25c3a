package persistence

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestPostgresRepository_Contract(t *testing.T) {
	runRepositoryContractTests(t, func(t *testing.T) Repository {
		t.Helper()
		db := openTestPostgresDB(t)
		repo := NewPostgresRepository(db)
		resetPostgresTables(t, db)
		return repo
	})
}

func TestPostgresRepository_MigrateIsIdempotent(t *testing.T) {
	db := openTestPostgresDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := MigratePostgres(ctx, db); err != nil {
		t.Fatalf("second MigratePostgres failed: %v", err)
	}
}

func TestMigratePostgresRejectsNilHandle(t *testing.T) {
	t.Parallel()
	if err := MigratePostgres(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil handle")
	}
}

func TestHasSQLStateMatchesWrappedPQErrors(t *testing.T) {
	t.Parallel()

	unique := &pq.Error{Code: "23505"}
	fk := &pq.Error{Code: "23503"}
	if !isUniqueViolation(unique) {
		t.Fatal("expected unique violation")
	}
	if !isForeignKeyViolation(fk) {
		t.Fatal("expected foreign key violation")
	}
	wrapped := errors.Join(errors.New("insert history"), unique)
	if !isUniqueViolation(wrapped) {
		t.Fatal("expected wrapped unique violation to match")
	}
	if isUniqueViolation(fk) || isForeignKeyViolation(errors.New("plain")) || isUniqueViolation(nil) {
		t.Fatal("unexpected sql state match")
	}
}

func openTestPostgresDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("PingContext failed: %v", err)
	}
	if err := MigratePostgres(ctx, db); err != nil {
		t.Fatalf("MigratePostgres failed: %v", err)
	}
	resetPostgresTables(t, db)

	return db
}

func resetPostgresTables(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, `TRUNCATE TABLE history_entries, sessions CASCADE`); err != nil {
		t.Fatalf("truncate tables failed: %v", err)
	}
}

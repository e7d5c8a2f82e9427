package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"facturaia/internal/config"
)

// NewDB opens the PostgreSQL pool and verifies connectivity.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	return Open(cfg.DSN(), cfg.MaxOpen, cfg.MaxIdle)
}

// Open connects to dsn with the pgx stdlib driver.
func Open(dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// withTx runs fn inside a transaction, committing on nil and rolling back otherwise.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// isUniqueViolation matches the constraint name in a duplicate key error.
func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") && (constraint == "" || strings.Contains(msg, constraint))
}

package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"
)

const schemaVersion = 1

//go:embed scripts/initdb.sql
var initSQL string

// EnsureBootstrapped applies the schema unless the meta table already records
// the current version.
func EnsureBootstrapped(ctx context.Context, db *sql.DB) error {
	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	var n int
	q := fmt.Sprintf(`SELECT COUNT(*) FROM docchat_meta WHERE version = %d`, schemaVersion)
	err := db.QueryRowContext(ctxBoot, q).Scan(&n)
	if err == nil && n > 0 {
		return nil
	}

	// A missing meta table surfaces as a query error; either way the script is idempotent.
	return runBootstrap(ctxBoot, db)
}

func runBootstrap(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, initSQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap (schema v%d): %w", schemaVersion, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	return nil
}

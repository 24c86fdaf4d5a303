// Package migrations applies the embedded postgres schema.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed *.sql
var files embed.FS

const migrationTable = "schema_migrations"

// Apply executes every embedded migration at most once, in file name order.
func Apply(ctx context.Context, db *sqlx.DB) error {
	return apply(ctx, db, files)
}

func apply(ctx context.Context, db *sqlx.DB, migrationFS fs.FS) error {
	if db == nil {
		return fmt.Errorf("sql db is required")
	}

	names, err := List(migrationFS)
	if err != nil {
		return err
	}

	createSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name       TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`, migrationTable)
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, name := range names {
		if err := applyOne(ctx, db, migrationFS, name); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(ctx context.Context, db *sqlx.DB, migrationFS fs.FS, name string) (err error) {
	content, err := fs.ReadFile(migrationFS, name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Serialises concurrent startups; released at commit.
	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, migrationTable); err != nil {
		return fmt.Errorf("lock migrations: %w", err)
	}

	var applied bool
	err = tx.GetContext(ctx, &applied,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE name = $1)`, migrationTable), name)
	if err != nil {
		return fmt.Errorf("check migration %s: %w", name, err)
	}
	if applied {
		return tx.Commit()
	}

	if _, err = tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1)`, migrationTable), name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

// List returns the .sql files of migrationFS sorted by name.
func List(migrationFS fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "embed"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the database schema to the given database. Statements in
// schema.sql are executed one at a time so the same file serves Postgres
// and SQLite.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements(schemaSQL) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func statements(script string) []string {
	var out []string
	for _, chunk := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(chunk, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		if stmt := strings.TrimSpace(strings.Join(lines, "\n")); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"chronocheck/internal/core"
	"chronocheck/pkg"
)

// Repository stores live consultation sessions in Postgres or SQLite.
// Queries are written with ? placeholders and rebound for Postgres.
type Repository struct {
	DB     *sql.DB
	Driver string
}

var _ core.SessionStore = (*Repository)(nil)

// NewRepository constructs a new Repository from an existing sql.DB. The
// caller is responsible for managing the DB connection lifecycle.
func NewRepository(db *sql.DB, driver string) *Repository {
	return &Repository{DB: db, Driver: driver}
}

// Create inserts a new session.
func (r *Repository) Create(ctx context.Context, s *core.Session) error {
	snap := s.Snapshot()
	history, err := json.Marshal(snap.History)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, r.rebind(
		`INSERT INTO consult_sessions (id, current_workflow, query_count, cumulative_savings, history, created_at_ms, updated_at_ms)
         VALUES (?, ?, ?, ?, ?, ?, ?)`),
		snap.ID, snap.CurrentWorkflow, snap.QueryCount, snap.CumulativeSavings, string(history),
		snap.CreatedAt.UnixMilli(), snap.UpdatedAt.UnixMilli(),
	)
	return err
}

// Get loads a session by id.
func (r *Repository) Get(ctx context.Context, id string) (*core.Session, error) {
	var (
		snap               pkg.SessionSnapshot
		history            string
		createdMS, updated int64
	)
	err := r.DB.QueryRowContext(ctx, r.rebind(
		`SELECT id, current_workflow, query_count, cumulative_savings, history, created_at_ms, updated_at_ms
         FROM consult_sessions
         WHERE id = ?`), id,
	).Scan(&snap.ID, &snap.CurrentWorkflow, &snap.QueryCount, &snap.CumulativeSavings, &history, &createdMS, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(history), &snap.History); err != nil {
		return nil, fmt.Errorf("decode history of session %s: %w", id, err)
	}
	snap.CreatedAt = time.UnixMilli(createdMS).UTC()
	snap.UpdatedAt = time.UnixMilli(updated).UTC()
	return core.RestoreSession(snap)
}

// Save writes the mutable state of a session.
func (r *Repository) Save(ctx context.Context, s *core.Session) error {
	snap := s.Snapshot()
	history, err := json.Marshal(snap.History)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, r.rebind(
		`UPDATE consult_sessions
         SET current_workflow = ?, query_count = ?, cumulative_savings = ?, history = ?, updated_at_ms = ?
         WHERE id = ?`),
		snap.CurrentWorkflow, snap.QueryCount, snap.CumulativeSavings, string(history), snap.UpdatedAt.UnixMilli(), snap.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(res, snap.ID)
}

// Delete removes a session at teardown.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, r.rebind(`DELETE FROM consult_sessions WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectRow(res, id)
}

// PurgeIdle deletes sessions whose last update is older than before.
func (r *Repository) PurgeIdle(ctx context.Context, before time.Time) (int, error) {
	res, err := r.DB.ExecContext(ctx, r.rebind(`DELETE FROM consult_sessions WHERE updated_at_ms < ?`), before.UnixMilli())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func expectRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	return nil
}

// rebind converts ? placeholders to $n for Postgres.
func (r *Repository) rebind(query string) string {
	if r.Driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

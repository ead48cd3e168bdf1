package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"chronocheck/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, Migrate(context.Background(), conn))
	return NewRepository(conn, "sqlite")
}

func TestRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	sess := core.NewSession("s1")
	require.NoError(t, repo.Create(ctx, sess))

	loaded, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, core.Dashboard, loaded.CurrentWorkflow())
	assert.Empty(t, loaded.History())

	loaded.RecordQuery()
	loaded.AppendHistory("What is HbA1c?", "Average blood sugar.")
	loaded.RecordSavings(5025, true)
	require.NoError(t, loaded.SelectWorkflow(core.BillAuditor))
	require.NoError(t, repo.Save(ctx, loaded))

	again, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.QueryCount())
	assert.Equal(t, int64(5025), again.CumulativeSavings())
	assert.Equal(t, core.BillAuditor, again.CurrentWorkflow())
	require.Len(t, again.History(), 1)
	assert.Equal(t, "What is HbA1c?", again.History()[0].Question)
	assert.Equal(t, loaded.UpdatedAt().UnixMilli(), again.UpdatedAt().UnixMilli())
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Save(ctx, core.NewSession("missing")), core.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), core.ErrSessionNotFound)
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(ctx, core.NewSession("s1")))
	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err := repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestRepository_PurgeIdle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(ctx, core.NewSession("old")))
	require.NoError(t, repo.Create(ctx, core.NewSession("new")))

	n, err := repo.PurgeIdle(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.PurgeIdle(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRepository_Rebind(t *testing.T) {
	pg := NewRepository(nil, "postgres")
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", pg.rebind("UPDATE t SET a = ? WHERE id = ?"))

	lite := NewRepository(nil, "sqlite")
	assert.Equal(t, "SELECT ? FROM t", lite.rebind("SELECT ? FROM t"))
}

func TestStatements(t *testing.T) {
	stmts := statements("-- comment\nCREATE TABLE a (id TEXT);\n\n-- another\nCREATE INDEX i ON a (id);\n")
	assert.Equal(t, []string{"CREATE TABLE a (id TEXT)", "CREATE INDEX i ON a (id)"}, stmts)
}

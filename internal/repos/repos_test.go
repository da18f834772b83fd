package repos_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"bazaar/internal/repos"
)

// seededDB opens an in-memory database with the demo marketplace loaded.
func seededDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.SeedDemo(context.Background(), db))
	return db
}

func userID(t *testing.T, db *sqlx.DB, username string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, db.Get(&id, `SELECT id FROM users WHERE username = ?`, username))
	return id
}

package repos_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bazaar/internal/repos"
)

func TestMigrate_Idempotent(t *testing.T) {
	db := seededDB(t)

	require.NoError(t, repos.Migrate(db))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM products`))
	assert.Equal(t, 5, n)
}

func TestSeedDemo_HashesPasswords(t *testing.T) {
	db := seededDB(t)

	var hashes []string
	require.NoError(t, db.Select(&hashes, `SELECT password_hash FROM users`))
	require.NotEmpty(t, hashes)
	for _, h := range hashes {
		assert.False(t, strings.Contains(h, "Passw0rd!"))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")))
	}
}

func TestSeedDemo_RunsOnce(t *testing.T) {
	db := seededDB(t)

	require.NoError(t, repos.SeedDemo(context.Background(), db))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM shops`))
	assert.Equal(t, 3, n)
}

func TestEnsureAdmin(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()

	require.NoError(t, repos.EnsureAdmin(ctx, db, "root", "root@bazaar.test", "s3cret"))
	require.NoError(t, repos.EnsureAdmin(ctx, db, "root", "root@bazaar.test", "other"))

	var rows []struct {
		Role     string `db:"role"`
		Approved bool   `db:"is_approved"`
		Hash     string `db:"password_hash"`
	}
	require.NoError(t, db.Select(&rows, `SELECT role, is_approved, password_hash FROM users WHERE username = 'root'`))
	require.Len(t, rows, 1)
	assert.Equal(t, "admin", rows[0].Role)
	assert.True(t, rows[0].Approved)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(rows[0].Hash), []byte("s3cret")))
}

func TestForeignKeysEnforced(t *testing.T) {
	db := seededDB(t)

	_, err := db.Exec(`INSERT INTO products(shop_id, name, price) VALUES (999, 'Ghost', '1')`)
	assert.Error(t, err)
}

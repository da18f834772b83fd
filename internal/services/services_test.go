package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

// seededDB opens an in-memory database with the demo marketplace: ada owns
// shops 1 and 2 (products 1-3), ben owns shop 3 (products 4 and the inactive 5).
func seededDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.SeedDemo(context.Background(), db))
	return db
}

func user(t *testing.T, db *sqlx.DB, username string) *domain.User {
	t.Helper()
	u, err := repos.NewUserRepo(db).ByLogin(context.Background(), username)
	require.NoError(t, err)
	return u
}

func count(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

type env struct {
	db       *sqlx.DB
	carts    *repos.CartRepo
	prods    *repos.ProductRepo
	cart     *services.CartService
	checkout *services.CheckoutService
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := seededDB(t)
	carts := repos.NewCartRepo(db)
	prods := repos.NewProductRepo(db)
	committer := services.NewOrderCommitter(repos.NewOrderRepo(db))
	return env{
		db:       db,
		carts:    carts,
		prods:    prods,
		cart:     services.NewCartService(carts, prods),
		checkout: services.NewCheckoutService(carts, prods, committer),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

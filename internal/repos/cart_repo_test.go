package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

func TestCartRepo_LoadUnknownSession(t *testing.T) {
	store := repos.NewCartRepo(seededDB(t))

	cart, err := store.Load(context.Background(), "nobody")

	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.False(t, cart.Dirty())
}

func TestCartRepo_SaveLoadKeepsOrderAndSnapshot(t *testing.T) {
	db := seededDB(t)
	store := repos.NewCartRepo(db)
	ctx := context.Background()

	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 3, Quantity: 1, UnitPrice: decimal.NewFromInt(1000), Name: "Jollof Tray"})
	cart.Add(domain.CartLine{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("500.50"), Name: "Ankara Shirt"})
	require.NoError(t, store.Save(ctx, "sid-1", cart))
	assert.False(t, cart.Dirty())

	_, err := db.Exec(`UPDATE products SET price = '999' WHERE id = 1`)
	require.NoError(t, err)

	got, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1"}, got.Keys())
	line, ok := got.Line("1")
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, decimal.RequireFromString("500.50").Equal(line.UnitPrice))
	assert.Equal(t, "Ankara Shirt", line.Name)
}

func TestCartRepo_SaveReplacesLines(t *testing.T) {
	store := repos.NewCartRepo(seededDB(t))
	ctx := context.Background()

	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(500), Name: "Ankara Shirt"})
	cart.Add(domain.CartLine{ProductID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(250), Name: "Aso Oke Cap"})
	require.NoError(t, store.Save(ctx, "sid-1", cart))

	cart.Remove("1")
	require.NoError(t, store.Save(ctx, "sid-1", cart))

	got, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, got.Keys())
}

func TestCartRepo_LinesOutliveProducts(t *testing.T) {
	db := seededDB(t)
	store := repos.NewCartRepo(db)
	ctx := context.Background()

	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 2, Quantity: 1, UnitPrice: decimal.NewFromInt(250), Name: "Aso Oke Cap"})
	require.NoError(t, store.Save(ctx, "sid-1", cart))

	_, err := db.Exec(`DELETE FROM products WHERE id = 2`)
	require.NoError(t, err)

	got, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestCartRepo_Clear(t *testing.T) {
	store := repos.NewCartRepo(seededDB(t))
	ctx := context.Background()

	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(500), Name: "Ankara Shirt"})
	require.NoError(t, store.Save(ctx, "sid-1", cart))

	require.NoError(t, store.Clear(ctx, "sid-1"))
	require.NoError(t, store.Clear(ctx, "sid-1"))

	got, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestCartRepo_PruneDropsIdleCarts(t *testing.T) {
	db := seededDB(t)
	store := repos.NewCartRepo(db)
	ctx := context.Background()

	for _, sid := range []string{"idle", "busy"} {
		cart := domain.NewCart()
		cart.Add(domain.CartLine{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(500), Name: "Ankara Shirt"})
		require.NoError(t, store.Save(ctx, sid, cart))
	}
	_, err := db.Exec(`UPDATE carts SET updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now', '-10 days') WHERE id = 'idle'`)
	require.NoError(t, err)

	n, err := store.Prune(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var items int
	require.NoError(t, db.Get(&items, `SELECT COUNT(*) FROM cart_items WHERE cart_id = 'idle'`))
	assert.Zero(t, items)
	got, err := store.Load(ctx, "busy")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

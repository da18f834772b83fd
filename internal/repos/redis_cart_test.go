package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

func setupRedisStore(t *testing.T) (*repos.RedisCartStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return repos.NewRedisCartStore(client, time.Hour), mr
}

func TestRedisCartStore_LoadMissing(t *testing.T) {
	store, _ := setupRedisStore(t)

	cart, err := store.Load(context.Background(), "nobody")

	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestRedisCartStore_SaveLoad(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 4, Quantity: 1, UnitPrice: decimal.NewFromInt(1500), Name: "USB-C Charger"})
	cart.Add(domain.CartLine{ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("499.99"), Name: "Ankara Shirt"})
	require.NoError(t, store.Save(ctx, "sid-1", cart))
	assert.False(t, cart.Dirty())

	assert.True(t, mr.Exists("cart:sid-1"))
	assert.Equal(t, time.Hour, mr.TTL("cart:sid-1"))

	got, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "1"}, got.Keys())
	line, _ := got.Line("1")
	assert.Equal(t, 3, line.Quantity)
	assert.True(t, decimal.RequireFromString("499.99").Equal(line.UnitPrice))
}

func TestRedisCartStore_Expires(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(500), Name: "Ankara Shirt"})
	require.NoError(t, store.Save(ctx, "sid-1", cart))

	mr.FastForward(2 * time.Hour)

	got, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestRedisCartStore_SaveEmptyDeletesKey(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(500), Name: "Ankara Shirt"})
	require.NoError(t, store.Save(ctx, "sid-1", cart))

	cart.Clear()
	require.NoError(t, store.Save(ctx, "sid-1", cart))

	assert.False(t, mr.Exists("cart:sid-1"))
}

func TestRedisCartStore_CorruptValue(t *testing.T) {
	store, mr := setupRedisStore(t)
	require.NoError(t, mr.Set("cart:sid-1", "not-json"))

	_, err := store.Load(context.Background(), "sid-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart")
}

func TestRedisCartStore_ConnectionError(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	store := repos.NewRedisCartStore(client, time.Hour)

	_, err := store.Load(context.Background(), "sid-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get cart")
}

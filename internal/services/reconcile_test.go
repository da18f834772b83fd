package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/domain"
	"bazaar/internal/metrics"
	"bazaar/internal/services"
)

type fakeCatalog struct {
	products map[int64]domain.CatalogProduct
	err      error
}

func (f fakeCatalog) LookupProduct(_ context.Context, id int64) (domain.CatalogProduct, bool, error) {
	if f.err != nil {
		return domain.CatalogProduct{}, false, f.err
	}
	p, ok := f.products[id]
	return p, ok, nil
}

func catalogOf(ps ...domain.CatalogProduct) fakeCatalog {
	m := map[int64]domain.CatalogProduct{}
	for _, p := range ps {
		m[p.ID] = p
	}
	return fakeCatalog{products: m}
}

func TestReconcile_AllValid(t *testing.T) {
	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 1, Quantity: 2, UnitPrice: dec("500"), Name: "A"})
	cart.Add(domain.CartLine{ProductID: 2, Quantity: 1, UnitPrice: dec("1000"), Name: "B"})
	cat := catalogOf(
		domain.CatalogProduct{ID: 1, IsActive: true, Price: dec("500"), ShopOwnerID: 10},
		domain.CatalogProduct{ID: 2, IsActive: true, Price: dec("1000"), ShopOwnerID: 20},
	)

	rec, err := services.Reconcile(context.Background(), cart, cat)

	require.NoError(t, err)
	require.Len(t, rec.Valid, 2)
	assert.Empty(t, rec.Invalid)
	assert.True(t, dec("2000").Equal(rec.Total))
	assert.True(t, dec("1000").Equal(rec.Valid[0].Subtotal))
	assert.False(t, rec.BecameEmpty)
	assert.Equal(t, 3, rec.ItemCount())
}

func TestReconcile_ExcludesInactiveAndMissing(t *testing.T) {
	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 1, Quantity: 2, UnitPrice: dec("500"), Name: "Shirt"})
	cart.Add(domain.CartLine{ProductID: 2, Quantity: 1, UnitPrice: dec("1000"), Name: "Tray"})
	cart.Add(domain.CartLine{ProductID: 3, Quantity: 4, UnitPrice: dec("10"), Name: "Gone"})
	cat := catalogOf(
		domain.CatalogProduct{ID: 1, IsActive: true, Price: dec("500")},
		domain.CatalogProduct{ID: 2, IsActive: false, Price: dec("1000")},
	)

	rec, err := services.Reconcile(context.Background(), cart, cat)

	require.NoError(t, err)
	require.Len(t, rec.Valid, 1)
	assert.Equal(t, int64(1), rec.Valid[0].Line.ProductID)
	assert.True(t, dec("1000").Equal(rec.Total))
	assert.Equal(t, []string{"Tray", "Gone"}, rec.Names())
	assert.False(t, rec.BecameEmpty)
	assert.Equal(t, 3, cart.Len(), "reconcile leaves the cart alone")
}

func TestReconcile_UsesSnapshotPrice(t *testing.T) {
	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 1, Quantity: 3, UnitPrice: dec("19.99"), Name: "Cap"})
	cat := catalogOf(domain.CatalogProduct{ID: 1, IsActive: true, Price: dec("45.00")})

	rec, err := services.Reconcile(context.Background(), cart, cat)

	require.NoError(t, err)
	assert.True(t, dec("59.97").Equal(rec.Total))
}

func TestReconcile_BecameEmpty(t *testing.T) {
	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 7, Quantity: 1, UnitPrice: dec("5"), Name: "Old"})

	rec, err := services.Reconcile(context.Background(), cart, catalogOf())

	require.NoError(t, err)
	assert.True(t, rec.BecameEmpty)
	assert.True(t, rec.Total.IsZero())

	rec, err = services.Reconcile(context.Background(), domain.NewCart(), catalogOf())
	require.NoError(t, err)
	assert.False(t, rec.BecameEmpty, "an empty cart did not become empty")
}

func TestReconcile_UnparseableKeyIsInvalid(t *testing.T) {
	cart := domain.RestoreCart([]domain.CartLine{{ProductID: 0, Quantity: 1, UnitPrice: dec("1")}})

	rec, err := services.Reconcile(context.Background(), cart, catalogOf())

	require.NoError(t, err)
	require.Len(t, rec.Invalid, 1)
	assert.Equal(t, "Product #0", rec.Invalid[0].Name)
}

func TestReconcile_CatalogErrorPropagates(t *testing.T) {
	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 1, Quantity: 1, UnitPrice: dec("1"), Name: "A"})

	_, err := services.Reconcile(context.Background(), cart, fakeCatalog{err: errors.New("db down")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestReconciliation_Evict(t *testing.T) {
	cart := domain.NewCart()
	cart.Add(domain.CartLine{ProductID: 1, Quantity: 1, UnitPrice: dec("5"), Name: "Keep"})
	cart.Add(domain.CartLine{ProductID: 2, Quantity: 1, UnitPrice: dec("5"), Name: "Drop"})
	cart.MarkClean()
	cat := catalogOf(domain.CatalogProduct{ID: 1, IsActive: true})
	before := testutil.ToFloat64(metrics.CartLinesEvicted)

	rec, err := services.Reconcile(context.Background(), cart, cat)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.Evict(cart))
	assert.Equal(t, []string{"1"}, cart.Keys())
	assert.True(t, cart.Dirty())
	assert.Equal(t, 0, rec.Evict(cart), "evicting twice removes nothing")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.CartLinesEvicted))

	again, err := services.Reconcile(context.Background(), cart, cat)
	require.NoError(t, err)
	assert.Empty(t, again.Invalid)
}

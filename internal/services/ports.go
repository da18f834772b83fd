package services

import (
	"context"

	"bazaar/internal/domain"
)

// CatalogReader resolves cart product ids against the live catalog. An
// unknown id is reported with ok=false; err is reserved for I/O failures.
type CatalogReader interface {
	LookupProduct(ctx context.Context, id int64) (p domain.CatalogProduct, ok bool, err error)
}

// CartStore persists one cart per session id. Load never fails for an unknown
// session; it returns an empty cart.
type CartStore interface {
	Load(ctx context.Context, sid string) (*domain.Cart, error)
	Save(ctx context.Context, sid string, cart *domain.Cart) error
	Clear(ctx context.Context, sid string) error
}

// OrderWriter persists an order draft atomically and returns the new order id.
type OrderWriter interface {
	Commit(ctx context.Context, d domain.OrderDraft) (int64, error)
}

package services

import (
	"context"
	"fmt"

	"bazaar/internal/domain"
)

// CheckoutService drives the cart view, checkout review and order confirmation.
type CheckoutService struct {
	Carts     CartStore
	Catalog   CatalogReader
	Committer *OrderCommitter
}

func NewCheckoutService(carts CartStore, catalog CatalogReader, committer *OrderCommitter) *CheckoutService {
	return &CheckoutService{Carts: carts, Catalog: catalog, Committer: committer}
}

// Review reconciles the session cart and persists the eviction of any
// unavailable lines, so their removal is reported exactly once.
func (s *CheckoutService) Review(ctx context.Context, sid string) (Reconciliation, error) {
	cart, err := s.Carts.Load(ctx, sid)
	if err != nil {
		return Reconciliation{}, err
	}
	return s.reconcileAndEvict(ctx, sid, cart)
}

func (s *CheckoutService) reconcileAndEvict(ctx context.Context, sid string, cart *domain.Cart) (Reconciliation, error) {
	rec, err := Reconcile(ctx, cart, s.Catalog)
	if err != nil {
		return Reconciliation{}, err
	}
	rec.Evict(cart)
	if cart.Dirty() {
		if err := s.Carts.Save(ctx, sid, cart); err != nil {
			return Reconciliation{}, fmt.Errorf("save cart: %w", err)
		}
	}
	return rec, nil
}

// Confirm re-reconciles the cart right before committing. If any line went
// stale since review it is evicted and ErrCartChanged is returned with the
// reconciliation; nothing is committed. On success the cart is cleared.
//
// A non-zero order id with a non-nil error means the order was placed but the
// cart could not be cleared.
func (s *CheckoutService) Confirm(ctx context.Context, sid string, customer *domain.User) (int64, Reconciliation, error) {
	cart, err := s.Carts.Load(ctx, sid)
	if err != nil {
		return 0, Reconciliation{}, err
	}
	if cart.IsEmpty() {
		return 0, Reconciliation{}, ErrEmptyCart
	}

	rec, err := s.reconcileAndEvict(ctx, sid, cart)
	if err != nil {
		return 0, Reconciliation{}, err
	}
	if len(rec.Invalid) > 0 {
		return 0, rec, ErrCartChanged
	}

	id, err := s.Committer.Commit(ctx, customer, rec)
	if err != nil {
		return 0, rec, err
	}
	if err := s.Carts.Clear(ctx, sid); err != nil {
		return id, rec, fmt.Errorf("clear cart after order %d: %w", id, err)
	}
	return id, rec, nil
}

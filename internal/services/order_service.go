package services

import (
	"context"
	"database/sql"
	"errors"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

type OrderService struct {
	Orders *repos.OrderRepo
}

func NewOrderService(orders *repos.OrderRepo) *OrderService {
	return &OrderService{Orders: orders}
}

func (s *OrderService) ForCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return s.Orders.ListByCustomer(ctx, customerID)
}

// CustomerOrder returns an order placed by viewer. Orders of other customers
// are reported as ErrNotFound; admins may view any order.
func (s *OrderService) CustomerOrder(ctx context.Context, viewer *domain.User, id int64) (domain.Order, []domain.OrderItem, error) {
	o, err := s.get(ctx, id)
	if err != nil {
		return domain.Order{}, nil, err
	}
	if o.CustomerID != viewer.ID && !viewer.IsAdmin() {
		return domain.Order{}, nil, ErrNotFound
	}
	items, err := s.Orders.Items(ctx, id)
	return o, items, err
}

// ForMarketer lists orders containing items from the user's shops, newest
// first. Admins see every order.
func (s *OrderService) ForMarketer(ctx context.Context, user *domain.User, limit int) ([]domain.Order, error) {
	if user.IsAdmin() {
		return s.Orders.ListLatest(ctx, limit)
	}
	return s.Orders.ListForOwner(ctx, user.ID, limit)
}

// MarketerOrder returns an order with only the lines sold by the user's
// shops; admins get every line.
func (s *OrderService) MarketerOrder(ctx context.Context, user *domain.User, id int64) (domain.Order, []domain.OrderItem, error) {
	o, err := s.get(ctx, id)
	if err != nil {
		return domain.Order{}, nil, err
	}
	if user.IsAdmin() {
		items, err := s.Orders.Items(ctx, id)
		return o, items, err
	}
	items, err := s.Orders.ItemsForOwner(ctx, id, user.ID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	if len(items) == 0 {
		return domain.Order{}, nil, ErrForbidden
	}
	return o, items, nil
}

func (s *OrderService) Latest(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.Orders.ListLatest(ctx, limit)
}

// UpdateStatus moves an order to status. Admins may update any order, a
// marketer only orders with at least one item from their shops.
func (s *OrderService) UpdateStatus(ctx context.Context, actor *domain.User, id int64, status string) error {
	if !domain.ValidStatus(status) {
		return ErrInvalidStatus
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	switch {
	case actor.IsAdmin():
	case actor.IsMarketer():
		ok, err := s.Orders.OwnerHasItem(ctx, id, actor.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	return s.Orders.UpdateStatus(ctx, id, status)
}

func (s *OrderService) get(ctx context.Context, id int64) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, ErrNotFound
	}
	return o, err
}

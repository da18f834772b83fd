package services

import (
	"context"

	"bazaar/internal/domain"
	"bazaar/internal/validate"
)

type CartService struct {
	Carts   CartStore
	Catalog CatalogReader
}

func NewCartService(carts CartStore, catalog CatalogReader) *CartService {
	return &CartService{Carts: carts, Catalog: catalog}
}

// Add puts qty units of a product in the cart, capturing its current price,
// name and image. Adding a product already in the cart adds to its quantity
// and keeps the first price.
func (s *CartService) Add(ctx context.Context, sid string, productID int64, qty int) (domain.CartLine, error) {
	if qty < 1 {
		qty = 1
	}
	if qty > validate.MaxQty {
		qty = validate.MaxQty
	}
	p, ok, err := s.Catalog.LookupProduct(ctx, productID)
	if err != nil {
		return domain.CartLine{}, err
	}
	if !ok || !p.IsActive {
		return domain.CartLine{}, ErrProductUnavailable
	}

	cart, err := s.Carts.Load(ctx, sid)
	if err != nil {
		return domain.CartLine{}, err
	}
	line := domain.CartLine{
		ProductID: p.ID,
		Quantity:  qty,
		UnitPrice: p.Price,
		Name:      p.Name,
		Image:     p.Image,
	}
	cart.Add(line)
	if cur, _ := cart.Line(line.Key()); cur.Quantity > validate.MaxQty {
		cart.SetQuantity(line.Key(), validate.MaxQty)
	}
	if err := s.save(ctx, sid, cart); err != nil {
		return domain.CartLine{}, err
	}
	out, _ := cart.Line(line.Key())
	return out, nil
}

// Update sets a line's quantity; zero removes the line. Unknown keys are ignored.
func (s *CartService) Update(ctx context.Context, sid, key string, qty int) error {
	cart, err := s.Carts.Load(ctx, sid)
	if err != nil {
		return err
	}
	if qty > validate.MaxQty {
		qty = validate.MaxQty
	}
	cart.SetQuantity(key, qty)
	return s.save(ctx, sid, cart)
}

// Remove drops a line. Removing a key that is not in the cart is not an error.
func (s *CartService) Remove(ctx context.Context, sid, key string) error {
	cart, err := s.Carts.Load(ctx, sid)
	if err != nil {
		return err
	}
	cart.Remove(key)
	return s.save(ctx, sid, cart)
}

// Count is the number of units in the cart, for the header badge.
func (s *CartService) Count(ctx context.Context, sid string) (int, error) {
	cart, err := s.Carts.Load(ctx, sid)
	if err != nil {
		return 0, err
	}
	return cart.ItemCount(), nil
}

// Move hands the cart of session from over to session to, merging into any
// lines already there. The old cart is cleared.
func (s *CartService) Move(ctx context.Context, from, to string) error {
	src, err := s.Carts.Load(ctx, from)
	if err != nil {
		return err
	}
	if src.IsEmpty() {
		return nil
	}
	dst, err := s.Carts.Load(ctx, to)
	if err != nil {
		return err
	}
	for _, l := range src.Lines() {
		dst.Add(l)
	}
	if err := s.save(ctx, to, dst); err != nil {
		return err
	}
	return s.Carts.Clear(ctx, from)
}

func (s *CartService) save(ctx context.Context, sid string, cart *domain.Cart) error {
	if !cart.Dirty() {
		return nil
	}
	return s.Carts.Save(ctx, sid, cart)
}

package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/metrics"
)

// ValidLine is a cart line whose product is still for sale.
type ValidLine struct {
	Line     domain.CartLine
	Product  domain.CatalogProduct
	Subtotal decimal.Decimal
}

// InvalidLine is a cart line whose product was deleted or deactivated.
type InvalidLine struct {
	Key  string
	Name string
}

// Reconciliation is a cart partitioned against the catalog. Totals use the
// price captured in the cart, never the live catalog price.
type Reconciliation struct {
	Valid       []ValidLine
	Invalid     []InvalidLine
	Total       decimal.Decimal
	BecameEmpty bool
}

// Reconcile checks every line of cart against catalog. It does not modify the
// cart; apply Evict to drop the invalid lines.
func Reconcile(ctx context.Context, cart *domain.Cart, catalog CatalogReader) (Reconciliation, error) {
	rec := Reconciliation{Total: decimal.Zero}
	for _, line := range cart.Lines() {
		key := line.Key()
		id, ok := domain.ParseCartKey(key)
		if !ok {
			rec.Invalid = append(rec.Invalid, InvalidLine{Key: key, Name: displayName(line)})
			continue
		}
		p, found, err := catalog.LookupProduct(ctx, id)
		if err != nil {
			return Reconciliation{}, fmt.Errorf("lookup product %d: %w", id, err)
		}
		if !found || !p.IsActive {
			rec.Invalid = append(rec.Invalid, InvalidLine{Key: key, Name: displayName(line)})
			continue
		}
		sub := line.Subtotal()
		rec.Valid = append(rec.Valid, ValidLine{Line: line, Product: p, Subtotal: sub})
		rec.Total = rec.Total.Add(sub)
	}
	rec.BecameEmpty = len(rec.Valid) == 0 && !cart.IsEmpty()
	return rec, nil
}

func displayName(l domain.CartLine) string {
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("Product #%d", l.ProductID)
}

// Names lists the display names of the invalid lines, in cart order.
func (r Reconciliation) Names() []string {
	out := make([]string, 0, len(r.Invalid))
	for _, l := range r.Invalid {
		out = append(out, l.Name)
	}
	return out
}

// Evict removes the invalid lines from cart and returns how many were removed.
func (r Reconciliation) Evict(cart *domain.Cart) int {
	n := 0
	for _, l := range r.Invalid {
		if cart.Remove(l.Key) {
			n++
		}
	}
	metrics.CartLinesEvicted.Add(float64(n))
	return n
}

// ItemCount is the number of units across valid lines.
func (r Reconciliation) ItemCount() int {
	n := 0
	for _, l := range r.Valid {
		n += l.Line.Quantity
	}
	return n
}

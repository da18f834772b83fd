package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/metrics"
)

// OrderCommitter turns a fully valid reconciliation into a Pending order with
// one notification per distinct shop owner.
type OrderCommitter struct {
	Orders OrderWriter
}

func NewOrderCommitter(orders OrderWriter) *OrderCommitter {
	return &OrderCommitter{Orders: orders}
}

func (c *OrderCommitter) Commit(ctx context.Context, customer *domain.User, rec Reconciliation) (int64, error) {
	if customer == nil {
		return 0, ErrForbidden
	}
	if len(rec.Invalid) > 0 {
		return 0, ErrInvalidLines
	}
	if len(rec.Valid) == 0 {
		return 0, ErrEmptyCart
	}

	d := domain.OrderDraft{
		CustomerID: customer.ID,
		TotalPrice: decimal.Zero,
		Items:      make([]domain.DraftItem, 0, len(rec.Valid)),
	}
	seen := map[int64]bool{}
	for _, v := range rec.Valid {
		d.TotalPrice = d.TotalPrice.Add(v.Line.Subtotal())
		d.Items = append(d.Items, domain.DraftItem{
			ProductID:       v.Product.ID,
			ShopID:          v.Product.ShopID,
			ProductName:     v.Product.Name,
			Quantity:        v.Line.Quantity,
			PriceAtPurchase: v.Line.UnitPrice,
		})
		if owner := v.Product.ShopOwnerID; !seen[owner] {
			seen[owner] = true
			d.Recipients = append(d.Recipients, owner)
		}
	}
	username := customer.Username
	d.Notify = func(orderID int64) (string, string) {
		return fmt.Sprintf("New order #%d from %s", orderID, username),
			fmt.Sprintf("/marketer/orders/%d", orderID)
	}

	id, err := c.Orders.Commit(ctx, d)
	if err != nil {
		metrics.OrderCommitFailures.Inc()
		return 0, fmt.Errorf("commit order: %w", err)
	}
	metrics.OrdersCommitted.Inc()
	metrics.NotificationsCreated.Add(float64(len(d.Recipients)))
	return id, nil
}

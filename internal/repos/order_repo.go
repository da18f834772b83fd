package repos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// Commit writes the order, its items and the owner notifications in one
// transaction. Nothing is persisted unless every insert succeeds.
func (r *OrderRepo) Commit(ctx context.Context, d domain.OrderDraft) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	  INSERT INTO orders(customer_id, total_price, status, created_at, updated_at)
	  VALUES(?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, d.CustomerID, d.TotalPrice, domain.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, it := range d.Items {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO order_items(order_id, product_id, shop_id, product_name, quantity, price_at_purchase)
		  VALUES(?, ?, ?, ?, ?, ?)
		`, orderID, it.ProductID, it.ShopID, it.ProductName, it.Quantity, it.PriceAtPurchase); err != nil {
			return 0, fmt.Errorf("insert order item: %w", err)
		}
	}

	if d.Notify != nil {
		for _, uid := range d.Recipients {
			msg, link := d.Notify(orderID)
			if _, err := tx.ExecContext(ctx, `
			  INSERT INTO notifications(user_id, order_id, message, link, is_read, created_at)
			  VALUES(?, ?, ?, ?, 0, CURRENT_TIMESTAMP)
			`, uid, orderID, msg, link); err != nil {
				return 0, fmt.Errorf("insert notification: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return orderID, nil
}

const orderCols = `o.id, o.customer_id, u.username AS customer, o.total_price, o.status, o.created_at, o.updated_at`

func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := r.db.GetContext(ctx, &o, `
	  SELECT `+orderCols+`
	  FROM orders o JOIN users u ON u.id = o.customer_id
	  WHERE o.id = ?
	`, id)
	return o, err
}

// Items returns an order's lines. Shop names come from the live shop row
// and are empty once the shop has been deleted.
func (r *OrderRepo) Items(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	var out []domain.OrderItem
	err := r.db.SelectContext(ctx, &out, `
	  SELECT oi.id, oi.order_id, oi.product_id, oi.shop_id, COALESCE(s.name,'') AS shop_name,
	         oi.product_name, oi.quantity, oi.price_at_purchase
	  FROM order_items oi
	  LEFT JOIN shops s ON s.id = oi.shop_id
	  WHERE oi.order_id = ?
	  ORDER BY oi.id
	`, orderID)
	return out, err
}

// ItemsForOwner returns only the lines of an order sold by userID's shops.
func (r *OrderRepo) ItemsForOwner(ctx context.Context, orderID, userID int64) ([]domain.OrderItem, error) {
	var out []domain.OrderItem
	err := r.db.SelectContext(ctx, &out, `
	  SELECT oi.id, oi.order_id, oi.product_id, oi.shop_id, s.name AS shop_name,
	         oi.product_name, oi.quantity, oi.price_at_purchase
	  FROM order_items oi
	  JOIN shops s ON s.id = oi.shop_id
	  WHERE oi.order_id = ? AND s.user_id = ?
	  ORDER BY oi.id
	`, orderID, userID)
	return out, err
}

func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+orderCols+`
	  FROM orders o JOIN users u ON u.id = o.customer_id
	  WHERE o.customer_id = ?
	  ORDER BY o.created_at DESC, o.id DESC
	`, customerID)
	return out, err
}

// ListForOwner returns orders containing at least one item from userID's shops.
func (r *OrderRepo) ListForOwner(ctx context.Context, userID int64, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = -1
	}
	var out []domain.Order
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+orderCols+`
	  FROM orders o JOIN users u ON u.id = o.customer_id
	  WHERE o.id IN (
	    SELECT oi.order_id FROM order_items oi JOIN shops s ON s.id = oi.shop_id WHERE s.user_id = ?
	  )
	  ORDER BY o.created_at DESC, o.id DESC
	  LIMIT ?
	`, userID, limit)
	return out, err
}

func (r *OrderRepo) PendingCountForOwner(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
	  SELECT COUNT(*) FROM orders o
	  WHERE o.status = ? AND o.id IN (
	    SELECT oi.order_id FROM order_items oi JOIN shops s ON s.id = oi.shop_id WHERE s.user_id = ?
	  )
	`, domain.StatusPending, userID)
	return n, err
}

// OwnerHasItem reports whether any line of the order was sold by userID's shops.
func (r *OrderRepo) OwnerHasItem(ctx context.Context, orderID, userID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
	  SELECT COUNT(*) FROM order_items oi JOIN shops s ON s.id = oi.shop_id
	  WHERE oi.order_id = ? AND s.user_id = ?
	`, orderID, userID)
	return n > 0, err
}

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Order
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+orderCols+`
	  FROM orders o JOIN users u ON u.id = o.customer_id
	  ORDER BY o.created_at DESC, o.id DESC
	  LIMIT ?
	`, limit)
	return out, err
}

func (r *OrderRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders`)
	return n, err
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *OrderRepo) CountByCustomer(ctx context.Context, customerID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders WHERE customer_id = ?`, customerID)
	return n, err
}

package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
)

// CartRepo keeps session carts in SQLite. Lines are stored with their price
// snapshot and name so a cart still renders after its products are gone.
type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

type cartItemRow struct {
	ProductID  int64           `db:"product_id"`
	Qty        int             `db:"qty"`
	PriceAtAdd decimal.Decimal `db:"price_at_add"`
	Name       string          `db:"name"`
	Image      string          `db:"image"`
}

// Load returns the cart for a session; an unknown session gets an empty cart.
func (r *CartRepo) Load(ctx context.Context, sid string) (*domain.Cart, error) {
	var rows []cartItemRow
	if err := r.db.SelectContext(ctx, &rows, `
	  SELECT product_id, qty, price_at_add, name, image
	  FROM cart_items
	  WHERE cart_id = ?
	  ORDER BY position
	`, sid); err != nil {
		return nil, err
	}
	lines := make([]domain.CartLine, 0, len(rows))
	for _, it := range rows {
		lines = append(lines, domain.CartLine{
			ProductID: it.ProductID,
			Quantity:  it.Qty,
			UnitPrice: it.PriceAtAdd,
			Name:      it.Name,
			Image:     it.Image,
		})
	}
	return domain.RestoreCart(lines), nil
}

// Save replaces the stored lines with the cart's current contents.
func (r *CartRepo) Save(ctx context.Context, sid string, cart *domain.Cart) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
	  INSERT INTO carts(id, updated_at) VALUES(?, ?)
	  ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, sid, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, sid); err != nil {
		return err
	}
	for i, l := range cart.Lines() {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO cart_items(cart_id, line_key, product_id, qty, price_at_add, name, image, position)
		  VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		`, sid, l.Key(), l.ProductID, l.Quantity, l.UnitPrice, l.Name, l.Image, i); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	cart.MarkClean()
	return nil
}

func (r *CartRepo) Clear(ctx context.Context, sid string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = ?`, sid)
	return err
}

// Prune drops carts untouched since before cutoff; their lines cascade.
func (r *CartRepo) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE datetime(updated_at) < datetime(?)`, sqliteTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// ListGlobal returns categories not tied to a shop.
func (r *CategoryRepo) ListGlobal(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, name, shop_id FROM categories WHERE shop_id IS NULL ORDER BY name
	`)
	return out, err
}

func (r *CategoryRepo) ListByShop(ctx context.Context, shopID int64) ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, name, shop_id FROM categories WHERE shop_id = ? ORDER BY name
	`, shopID)
	return out, err
}

// ListForShop returns the categories a shop's products may use: global ones
// plus the shop's own.
func (r *CategoryRepo) ListForShop(ctx context.Context, shopID int64) ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, name, shop_id FROM categories
	  WHERE shop_id IS NULL OR shop_id = ?
	  ORDER BY shop_id IS NOT NULL, name
	`, shopID)
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, `SELECT id, name, shop_id FROM categories WHERE id = ?`, id)
	return c, err
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories(name, shop_id) VALUES(?, ?)`, c.Name, c.ShopID)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (r *CategoryRepo) Rename(ctx context.Context, id int64, name string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	return err
}

func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

func (r *CategoryRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`)
	return n, err
}

package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    p.id, p.shop_id, p.category_id, p.name, p.description, p.price, p.image, p.is_active,
    p.created_at, COALESCE(p.updated_at,'') AS updated_at`

// LookupProduct reads the catalog state the cart flow depends on. A missing
// product is reported with ok=false, not as an error.
func (r *ProductRepo) LookupProduct(ctx context.Context, id int64) (domain.CatalogProduct, bool, error) {
	var p domain.CatalogProduct
	err := r.db.GetContext(ctx, &p, `
	  SELECT p.id, p.name, p.price, p.image, p.is_active, p.shop_id, s.user_id AS shop_owner_id
	  FROM products p
	  JOIN shops s ON s.id = p.shop_id
	  WHERE p.id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CatalogProduct{}, false, nil
	}
	if err != nil {
		return domain.CatalogProduct{}, false, err
	}
	return p, true, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productCols+` FROM products p WHERE p.id = ?`, id)
	return p, err
}

func (r *ProductRepo) ListNewestActive(ctx context.Context, limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+`
	  FROM products p
	  WHERE p.is_active = 1
	  ORDER BY p.created_at DESC, p.id DESC
	  LIMIT ?
	`, limit)
	return out, err
}

// ProductWithShop is a row for the admin product list.
type ProductWithShop struct {
	domain.Product
	Shop     string `db:"shop"`
	ShopSlug string `db:"shop_slug"`
}

// ListAllWithShop returns every product, newest first.
func (r *ProductRepo) ListAllWithShop(ctx context.Context) ([]ProductWithShop, error) {
	var out []ProductWithShop
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+`, s.name AS shop, s.slug AS shop_slug
	  FROM products p JOIN shops s ON s.id = p.shop_id
	  ORDER BY p.created_at DESC, p.id DESC
	`)
	return out, err
}

// ListByShop returns every product of a shop, inactive ones included.
func (r *ProductRepo) ListByShop(ctx context.Context, shopID int64) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+`
	  FROM products p
	  WHERE p.shop_id = ?
	  ORDER BY p.name
	`, shopID)
	return out, err
}

func (r *ProductRepo) CountByShop(ctx context.Context, shopID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products WHERE shop_id = ?`, shopID)
	return n, err
}

// CountByOwner counts products across all shops owned by userID.
func (r *ProductRepo) CountByOwner(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
	  SELECT COUNT(*) FROM products p JOIN shops s ON s.id = p.shop_id WHERE s.user_id = ?
	`, userID)
	return n, err
}

func (r *ProductRepo) SearchByName(ctx context.Context, q string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+productCols+`
	  FROM products p
	  WHERE LOWER(p.name) LIKE LOWER(?)
	  ORDER BY p.name
	  LIMIT 50
	`, "%"+q+"%")
	return out, err
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO products(shop_id, category_id, name, description, price, image, is_active, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, p.ShopID, p.CategoryID, p.Name, p.Description, p.Price, p.Image, p.IsActive)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE products
	  SET shop_id = ?, category_id = ?, name = ?, description = ?, price = ?, image = ?,
	      is_active = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?
	`, p.ShopID, p.CategoryID, p.Name, p.Description, p.Price, p.Image, p.IsActive, p.ID)
	return err
}

func (r *ProductRepo) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE products SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, active, id)
	return err
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}

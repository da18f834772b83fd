package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type ShopRepo struct{ db *sqlx.DB }

func NewShopRepo(db *sqlx.DB) *ShopRepo { return &ShopRepo{db: db} }

const shopCols = `s.id, s.user_id, s.name, s.slug, s.description, s.location, s.whatsapp_number, s.logo, s.created_at`

func (r *ShopRepo) Get(ctx context.Context, id int64) (domain.Shop, error) {
	var s domain.Shop
	err := r.db.GetContext(ctx, &s, `SELECT `+shopCols+` FROM shops s WHERE s.id = ?`, id)
	return s, err
}

func (r *ShopRepo) BySlug(ctx context.Context, slug string) (domain.Shop, error) {
	var s domain.Shop
	err := r.db.GetContext(ctx, &s, `SELECT `+shopCols+` FROM shops s WHERE s.slug = ?`, slug)
	return s, err
}

func (r *ShopRepo) SlugTaken(ctx context.Context, slug string, exceptID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM shops WHERE slug = ? AND id != ?`, slug, exceptID)
	return n > 0, err
}

func (r *ShopRepo) ListByOwner(ctx context.Context, userID int64) ([]domain.Shop, error) {
	var out []domain.Shop
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+shopCols+` FROM shops s WHERE s.user_id = ? ORDER BY s.created_at DESC, s.id DESC
	`, userID)
	return out, err
}

func (r *ShopRepo) ListNewest(ctx context.Context, limit int) ([]domain.Shop, error) {
	var out []domain.Shop
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+shopCols+` FROM shops s ORDER BY s.created_at DESC, s.id DESC LIMIT ?
	`, limit)
	return out, err
}

type ShopFilter struct {
	CategoryID int64
	Location   string
	Query      string
}

// List returns shops matching every non-empty filter. The category filter
// matches shops selling at least one product in that category.
func (r *ShopRepo) List(ctx context.Context, f ShopFilter) ([]domain.Shop, error) {
	q := `SELECT DISTINCT ` + shopCols + ` FROM shops s`
	where := ` WHERE 1=1`
	args := []any{}
	if f.CategoryID > 0 {
		q += ` JOIN products p ON p.shop_id = s.id`
		where += ` AND p.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.Location != "" {
		where += ` AND LOWER(s.location) LIKE LOWER(?)`
		args = append(args, "%"+f.Location+"%")
	}
	if f.Query != "" {
		where += ` AND LOWER(s.name) LIKE LOWER(?)`
		args = append(args, "%"+f.Query+"%")
	}
	var out []domain.Shop
	err := r.db.SelectContext(ctx, &out, q+where+` ORDER BY s.name`, args...)
	return out, err
}

func (r *ShopRepo) Create(ctx context.Context, s *domain.Shop) error {
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO shops(user_id, name, slug, description, location, whatsapp_number, logo, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, s.UserID, s.Name, s.Slug, s.Description, s.Location, s.WhatsappNumber, s.Logo)
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

func (r *ShopRepo) Update(ctx context.Context, s domain.Shop) error {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE shops SET name = ?, slug = ?, description = ?, location = ?, whatsapp_number = ?, logo = ?
	  WHERE id = ?
	`, s.Name, s.Slug, s.Description, s.Location, s.WhatsappNumber, s.Logo, s.ID)
	return err
}

func (r *ShopRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM shops WHERE id = ?`, id)
	return err
}

func (r *ShopRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM shops`)
	return n, err
}

// ShopWithOwner is a row for the admin shop list.
type ShopWithOwner struct {
	domain.Shop
	Owner string `db:"owner"`
}

func (r *ShopRepo) ListAllWithOwner(ctx context.Context) ([]ShopWithOwner, error) {
	var out []ShopWithOwner
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+shopCols+`, u.username AS owner
	  FROM shops s JOIN users u ON u.id = s.user_id
	  ORDER BY s.created_at DESC, s.id DESC
	`)
	return out, err
}

package repos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type RatingRepo struct{ db *sqlx.DB }

func NewRatingRepo(db *sqlx.DB) *RatingRepo { return &RatingRepo{db: db} }

// Upsert stores a user's rating of a product, replacing any earlier one.
func (r *RatingRepo) Upsert(ctx context.Context, rt domain.Rating) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO ratings(product_id, user_id, shop_id, value, comment, created_at)
	  VALUES(?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(product_id, user_id) DO UPDATE
	  SET value = excluded.value, comment = excluded.comment, created_at = CURRENT_TIMESTAMP
	`, rt.ProductID, rt.UserID, rt.ShopID, rt.Value, rt.Comment)
	return err
}

func (r *RatingRepo) ForUser(ctx context.Context, productID, userID int64) (domain.Rating, bool, error) {
	var rt domain.Rating
	err := r.db.GetContext(ctx, &rt, `
	  SELECT id, product_id, user_id, shop_id, value, comment, created_at
	  FROM ratings WHERE product_id = ? AND user_id = ?
	`, productID, userID)
	if err == sql.ErrNoRows {
		return domain.Rating{}, false, nil
	}
	return rt, err == nil, err
}

func (r *RatingRepo) SummaryForProduct(ctx context.Context, productID int64) (domain.RatingSummary, error) {
	return r.summary(ctx, `product_id = ?`, productID)
}

func (r *RatingRepo) SummaryForShop(ctx context.Context, shopID int64) (domain.RatingSummary, error) {
	return r.summary(ctx, `shop_id = ?`, shopID)
}

func (r *RatingRepo) summary(ctx context.Context, where string, arg any) (domain.RatingSummary, error) {
	var row struct {
		Avg sql.NullFloat64 `db:"avg"`
		N   int             `db:"n"`
	}
	if err := r.db.GetContext(ctx, &row, `
	  SELECT ROUND(AVG(value), 2) AS avg, COUNT(*) AS n FROM ratings WHERE `+where, arg); err != nil {
		return domain.RatingSummary{}, err
	}
	return domain.RatingSummary{Average: row.Avg.Float64, Count: row.N}, nil
}

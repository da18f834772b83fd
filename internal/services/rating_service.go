package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

type RatingService struct {
	Ratings *repos.RatingRepo
	Prods   *repos.ProductRepo
}

func NewRatingService(ratings *repos.RatingRepo, prods *repos.ProductRepo) *RatingService {
	return &RatingService{Ratings: ratings, Prods: prods}
}

// Rate records the user's rating of a product, replacing an earlier one.
func (s *RatingService) Rate(ctx context.Context, user *domain.User, productID int64, value int, comment string) error {
	if value < 1 || value > 5 {
		return ErrInvalidRating
	}
	p, err := s.Prods.Get(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	r := domain.Rating{ProductID: p.ID, UserID: user.ID, ShopID: p.ShopID, Value: value}
	if c := strings.TrimSpace(comment); c != "" {
		r.Comment = sql.NullString{String: c, Valid: true}
	}
	return s.Ratings.Upsert(ctx, r)
}

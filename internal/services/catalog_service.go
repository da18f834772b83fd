package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

const homeLimit = 8

type CatalogService struct {
	Shops   *repos.ShopRepo
	Prods   *repos.ProductRepo
	Cats    *repos.CategoryRepo
	Ratings *repos.RatingRepo
}

func NewCatalogService(shops *repos.ShopRepo, prods *repos.ProductRepo, cats *repos.CategoryRepo, ratings *repos.RatingRepo) *CatalogService {
	return &CatalogService{Shops: shops, Prods: prods, Cats: cats, Ratings: ratings}
}

type HomeView struct {
	Categories []domain.Category
	Shops      []domain.Shop
	Products   []domain.Product
}

func (s *CatalogService) Home(ctx context.Context) (HomeView, error) {
	var v HomeView
	var err error
	if v.Categories, err = s.Cats.ListGlobal(ctx); err != nil {
		return HomeView{}, err
	}
	if v.Shops, err = s.Shops.ListNewest(ctx, homeLimit); err != nil {
		return HomeView{}, err
	}
	if v.Products, err = s.Prods.ListNewestActive(ctx, homeLimit); err != nil {
		return HomeView{}, err
	}
	return v, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.ListGlobal(ctx)
}

func (s *CatalogService) ListShops(ctx context.Context, f repos.ShopFilter) ([]domain.Shop, error) {
	f.Location = strings.TrimSpace(f.Location)
	f.Query = strings.TrimSpace(f.Query)
	return s.Shops.List(ctx, f)
}

// ShopSection is one category heading on a shop page.
type ShopSection struct {
	Name     string
	Products []domain.Product
}

type ShopView struct {
	Shop         domain.Shop
	Sections     []ShopSection
	ProductCount int
	Rating       domain.RatingSummary
}

func (s *CatalogService) ShopBySlug(ctx context.Context, slug string) (ShopView, error) {
	shop, err := s.Shops.BySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return ShopView{}, ErrNotFound
	}
	if err != nil {
		return ShopView{}, err
	}
	return s.shopView(ctx, shop)
}

func (s *CatalogService) ShopByID(ctx context.Context, id int64) (ShopView, error) {
	shop, err := s.Shops.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ShopView{}, ErrNotFound
	}
	if err != nil {
		return ShopView{}, err
	}
	return s.shopView(ctx, shop)
}

// shopView groups the shop's products by category in category order, with
// uncategorized products last. Empty categories are skipped.
func (s *CatalogService) shopView(ctx context.Context, shop domain.Shop) (ShopView, error) {
	v := ShopView{Shop: shop}
	cats, err := s.Cats.ListForShop(ctx, shop.ID)
	if err != nil {
		return ShopView{}, err
	}
	prods, err := s.Prods.ListByShop(ctx, shop.ID)
	if err != nil {
		return ShopView{}, err
	}
	if v.ProductCount, err = s.Prods.CountByShop(ctx, shop.ID); err != nil {
		return ShopView{}, err
	}
	if v.Rating, err = s.Ratings.SummaryForShop(ctx, shop.ID); err != nil {
		return ShopView{}, err
	}

	byCat := map[int64][]domain.Product{}
	var uncategorized []domain.Product
	known := map[int64]bool{}
	for _, c := range cats {
		known[c.ID] = true
	}
	for _, p := range prods {
		if p.CategoryID.Valid && known[p.CategoryID.Int64] {
			byCat[p.CategoryID.Int64] = append(byCat[p.CategoryID.Int64], p)
			continue
		}
		uncategorized = append(uncategorized, p)
	}
	for _, c := range cats {
		if ps := byCat[c.ID]; len(ps) > 0 {
			v.Sections = append(v.Sections, ShopSection{Name: c.Name, Products: ps})
		}
	}
	if len(uncategorized) > 0 {
		v.Sections = append(v.Sections, ShopSection{Name: "Uncategorized", Products: uncategorized})
	}
	return v, nil
}

type ProductView struct {
	Product  domain.Product
	Shop     domain.Shop
	Category string
	Rating   domain.RatingSummary
	// MyRating is the viewer's own rating, zero when none.
	MyRating int
}

func (s *CatalogService) Product(ctx context.Context, id int64, viewer *domain.User) (ProductView, error) {
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ProductView{}, ErrNotFound
	}
	if err != nil {
		return ProductView{}, err
	}
	v := ProductView{Product: p}
	if v.Shop, err = s.Shops.Get(ctx, p.ShopID); err != nil {
		return ProductView{}, err
	}
	if p.CategoryID.Valid {
		c, err := s.Cats.Get(ctx, p.CategoryID.Int64)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return ProductView{}, err
		}
		v.Category = c.Name
	}
	if v.Rating, err = s.Ratings.SummaryForProduct(ctx, p.ID); err != nil {
		return ProductView{}, err
	}
	if viewer != nil {
		r, ok, err := s.Ratings.ForUser(ctx, p.ID, viewer.ID)
		if err != nil {
			return ProductView{}, err
		}
		if ok {
			v.MyRating = r.Value
		}
	}
	return v, nil
}

type SearchResult struct {
	Query    string
	Products []domain.Product
	Shops    []domain.Shop
}

// Search matches product and shop names. Inactive products are listed too so
// shoppers can see something is sold out.
func (s *CatalogService) Search(ctx context.Context, q string) (SearchResult, error) {
	res := SearchResult{Query: q}
	var err error
	if res.Products, err = s.Prods.SearchByName(ctx, q); err != nil {
		return SearchResult{}, err
	}
	if res.Shops, err = s.Shops.List(ctx, repos.ShopFilter{Query: q}); err != nil {
		return SearchResult{}, err
	}
	return res, nil
}

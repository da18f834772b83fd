package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

const recentOrdersLimit = 5

// ShopService is the marketer's side of the marketplace: their shops,
// products, shop categories and incoming orders.
type ShopService struct {
	Shops  *repos.ShopRepo
	Prods  *repos.ProductRepo
	Cats   *repos.CategoryRepo
	Orders *repos.OrderRepo
	Notes  *repos.NotificationRepo
}

func NewShopService(shops *repos.ShopRepo, prods *repos.ProductRepo, cats *repos.CategoryRepo, orders *repos.OrderRepo, notes *repos.NotificationRepo) *ShopService {
	return &ShopService{Shops: shops, Prods: prods, Cats: cats, Orders: orders, Notes: notes}
}

type ShopInput struct {
	Name           string
	Description    string
	Location       string
	WhatsappNumber string
	Logo           string
}

func (s *ShopService) MyShops(ctx context.Context, owner *domain.User) ([]domain.Shop, error) {
	return s.Shops.ListByOwner(ctx, owner.ID)
}

// OwnedShop loads a shop the user may manage. Admins manage every shop.
func (s *ShopService) OwnedShop(ctx context.Context, owner *domain.User, id int64) (domain.Shop, error) {
	shop, err := s.Shops.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Shop{}, ErrNotFound
	}
	if err != nil {
		return domain.Shop{}, err
	}
	if shop.UserID != owner.ID && !owner.IsAdmin() {
		return domain.Shop{}, ErrForbidden
	}
	return shop, nil
}

func (s *ShopService) CreateShop(ctx context.Context, owner *domain.User, in ShopInput) (domain.Shop, error) {
	if err := s.checkShopName(ctx, owner.ID, in.Name, 0); err != nil {
		return domain.Shop{}, err
	}
	shop := domain.Shop{UserID: owner.ID}
	applyShopInput(&shop, in)
	var err error
	if shop.Slug, err = s.uniqueSlug(ctx, in.Name, 0); err != nil {
		return domain.Shop{}, err
	}
	if err := s.Shops.Create(ctx, &shop); err != nil {
		return domain.Shop{}, err
	}
	return shop, nil
}

func (s *ShopService) UpdateShop(ctx context.Context, owner *domain.User, id int64, in ShopInput) (domain.Shop, error) {
	shop, err := s.OwnedShop(ctx, owner, id)
	if err != nil {
		return domain.Shop{}, err
	}
	if err := s.checkShopName(ctx, shop.UserID, in.Name, shop.ID); err != nil {
		return domain.Shop{}, err
	}
	if !strings.EqualFold(shop.Name, in.Name) {
		if shop.Slug, err = s.uniqueSlug(ctx, in.Name, shop.ID); err != nil {
			return domain.Shop{}, err
		}
	}
	applyShopInput(&shop, in)
	if err := s.Shops.Update(ctx, shop); err != nil {
		return domain.Shop{}, err
	}
	return shop, nil
}

func (s *ShopService) DeleteShop(ctx context.Context, owner *domain.User, id int64) error {
	if _, err := s.OwnedShop(ctx, owner, id); err != nil {
		return err
	}
	return s.Shops.Delete(ctx, id)
}

func applyShopInput(shop *domain.Shop, in ShopInput) {
	shop.Name = in.Name
	shop.Description = in.Description
	shop.Location = in.Location
	shop.WhatsappNumber = in.WhatsappNumber
	shop.Logo = sql.NullString{String: in.Logo, Valid: in.Logo != ""}
}

// checkShopName enforces one shop per name per owner.
func (s *ShopService) checkShopName(ctx context.Context, ownerID int64, name string, exceptID int64) error {
	shops, err := s.Shops.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, sh := range shops {
		if sh.ID != exceptID && strings.EqualFold(sh.Name, name) {
			return ErrDuplicate
		}
	}
	return nil
}

// uniqueSlug derives a slug from name, suffixing -2, -3, ... until it is free.
func (s *ShopService) uniqueSlug(ctx context.Context, name string, exceptID int64) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "shop"
	}
	candidate := base
	for i := 2; ; i++ {
		taken, err := s.Shops.SlugTaken(ctx, candidate, exceptID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

type ProductInput struct {
	ShopID      int64
	CategoryID  int64
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
}

// OwnedProduct loads a product whose shop the user may manage.
func (s *ShopService) OwnedProduct(ctx context.Context, owner *domain.User, id int64) (domain.Product, domain.Shop, error) {
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.Shop{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, domain.Shop{}, err
	}
	shop, err := s.OwnedShop(ctx, owner, p.ShopID)
	if err != nil {
		return domain.Product{}, domain.Shop{}, err
	}
	return p, shop, nil
}

func (s *ShopService) ShopProducts(ctx context.Context, owner *domain.User, shopID int64) ([]domain.Product, error) {
	if _, err := s.OwnedShop(ctx, owner, shopID); err != nil {
		return nil, err
	}
	return s.Prods.ListByShop(ctx, shopID)
}

func (s *ShopService) CreateProduct(ctx context.Context, owner *domain.User, in ProductInput) (domain.Product, error) {
	if _, err := s.OwnedShop(ctx, owner, in.ShopID); err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{ShopID: in.ShopID, IsActive: true}
	if err := s.applyProductInput(ctx, &p, in); err != nil {
		return domain.Product{}, err
	}
	if err := s.Prods.Create(ctx, &p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// UpdateProduct edits a product. Moving it to another shop requires owning
// that shop too. Carts keep the price they captured at add time.
func (s *ShopService) UpdateProduct(ctx context.Context, owner *domain.User, id int64, in ProductInput) (domain.Product, error) {
	p, _, err := s.OwnedProduct(ctx, owner, id)
	if err != nil {
		return domain.Product{}, err
	}
	if in.ShopID != p.ShopID {
		if _, err := s.OwnedShop(ctx, owner, in.ShopID); err != nil {
			return domain.Product{}, err
		}
		p.ShopID = in.ShopID
	}
	if err := s.applyProductInput(ctx, &p, in); err != nil {
		return domain.Product{}, err
	}
	if err := s.Prods.Update(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *ShopService) applyProductInput(ctx context.Context, p *domain.Product, in ProductInput) error {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Image = in.Image
	p.CategoryID = sql.NullInt64{}
	if in.CategoryID > 0 {
		c, err := s.Cats.Get(ctx, in.CategoryID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if c.ShopID.Valid && c.ShopID.Int64 != p.ShopID {
			return ErrForbidden
		}
		p.CategoryID = sql.NullInt64{Int64: c.ID, Valid: true}
	}
	return nil
}

// SetProductActive marks a product sold out (inactive) or back on sale.
// Carts holding an inactive product drop it on their next review.
func (s *ShopService) SetProductActive(ctx context.Context, owner *domain.User, id int64, active bool) error {
	if _, _, err := s.OwnedProduct(ctx, owner, id); err != nil {
		return err
	}
	return s.Prods.SetActive(ctx, id, active)
}

// DeleteProduct removes a product. Past order lines keep its name.
func (s *ShopService) DeleteProduct(ctx context.Context, owner *domain.User, id int64) error {
	if _, _, err := s.OwnedProduct(ctx, owner, id); err != nil {
		return err
	}
	return s.Prods.Delete(ctx, id)
}

// ShopCategories returns the categories usable in the shop: global ones
// followed by the shop's own.
func (s *ShopService) ShopCategories(ctx context.Context, owner *domain.User, shopID int64) ([]domain.Category, error) {
	if _, err := s.OwnedShop(ctx, owner, shopID); err != nil {
		return nil, err
	}
	return s.Cats.ListForShop(ctx, shopID)
}

func (s *ShopService) CreateCategory(ctx context.Context, owner *domain.User, shopID int64, name string) (domain.Category, error) {
	if _, err := s.OwnedShop(ctx, owner, shopID); err != nil {
		return domain.Category{}, err
	}
	existing, err := s.Cats.ListByShop(ctx, shopID)
	if err != nil {
		return domain.Category{}, err
	}
	for _, c := range existing {
		if strings.EqualFold(c.Name, name) {
			return domain.Category{}, ErrDuplicate
		}
	}
	c := domain.Category{Name: name, ShopID: sql.NullInt64{Int64: shopID, Valid: true}}
	if err := s.Cats.Create(ctx, &c); err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

// DeleteCategory removes one of the shop's own categories; its products
// become uncategorized.
func (s *ShopService) DeleteCategory(ctx context.Context, owner *domain.User, id int64) error {
	c, err := s.Cats.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !c.ShopID.Valid {
		return ErrForbidden
	}
	if _, err := s.OwnedShop(ctx, owner, c.ShopID.Int64); err != nil {
		return err
	}
	return s.Cats.Delete(ctx, id)
}

type MarketerDashboard struct {
	Shops         []domain.Shop
	ProductCount  int
	RecentOrders  []domain.Order
	PendingOrders int
	Unread        int
}

func (s *ShopService) Dashboard(ctx context.Context, owner *domain.User) (MarketerDashboard, error) {
	var d MarketerDashboard
	var err error
	if d.Shops, err = s.Shops.ListByOwner(ctx, owner.ID); err != nil {
		return d, err
	}
	if d.ProductCount, err = s.Prods.CountByOwner(ctx, owner.ID); err != nil {
		return d, err
	}
	if d.RecentOrders, err = s.Orders.ListForOwner(ctx, owner.ID, recentOrdersLimit); err != nil {
		return d, err
	}
	if d.PendingOrders, err = s.Orders.PendingCountForOwner(ctx, owner.ID); err != nil {
		return d, err
	}
	if d.Unread, err = s.Notes.UnreadCount(ctx, owner.ID); err != nil {
		return d, err
	}
	return d, nil
}

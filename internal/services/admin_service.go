package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

const recentListLimit = 5

type AdminService struct {
	Users   *repos.UserRepo
	Shops   *repos.ShopRepo
	Cats    *repos.CategoryRepo
	Prods   *repos.ProductRepo
	Orders  *repos.OrderRepo
	Sellers *ShopService
}

func NewAdminService(users *repos.UserRepo, shops *repos.ShopRepo, cats *repos.CategoryRepo, prods *repos.ProductRepo, orders *repos.OrderRepo, sellers *ShopService) *AdminService {
	return &AdminService{Users: users, Shops: shops, Cats: cats, Prods: prods, Orders: orders, Sellers: sellers}
}

type AdminDashboard struct {
	UsersByRole      map[string]int
	TotalUsers       int
	Shops            int
	Categories       int
	Orders           int
	PendingApprovals int
	RecentUsers      []domain.User
	RecentShops      []repos.ShopWithOwner
}

func (s *AdminService) Dashboard(ctx context.Context) (AdminDashboard, error) {
	var d AdminDashboard
	var err error
	if d.UsersByRole, err = s.Users.CountByRole(ctx); err != nil {
		return d, err
	}
	for _, n := range d.UsersByRole {
		d.TotalUsers += n
	}
	if d.Shops, err = s.Shops.Count(ctx); err != nil {
		return d, err
	}
	if d.Categories, err = s.Cats.Count(ctx); err != nil {
		return d, err
	}
	if d.Orders, err = s.Orders.Count(ctx); err != nil {
		return d, err
	}
	if d.PendingApprovals, err = s.Users.PendingCount(ctx); err != nil {
		return d, err
	}
	users, err := s.Users.List(ctx, "")
	if err != nil {
		return d, err
	}
	d.RecentUsers = users[:min(len(users), recentListLimit)]
	shops, err := s.Shops.ListAllWithOwner(ctx)
	if err != nil {
		return d, err
	}
	d.RecentShops = shops[:min(len(shops), recentListLimit)]
	return d, nil
}

func (s *AdminService) ListUsers(ctx context.Context, role string) ([]domain.User, error) {
	return s.Users.List(ctx, role)
}

// UserInput is an account as the admin edits it. An empty Password leaves
// the current one in place on update.
type UserInput struct {
	Username   string
	Email      string
	Password   string
	Role       string
	IsApproved bool
}

func validRole(role string) bool {
	return role == domain.RoleCustomer || role == domain.RoleMarketer || role == domain.RoleAdmin
}

// CreateUser adds an approved account of any role. The password must be set.
func (s *AdminService) CreateUser(ctx context.Context, in UserInput) (*domain.User, error) {
	if !validRole(in.Role) || in.Password == "" {
		return nil, ErrForbidden
	}
	exists, err := s.Users.Exists(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicate
	}
	h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Username:   in.Username,
		Email:      strings.ToLower(in.Email),
		Hash:       string(h),
		Role:       in.Role,
		IsApproved: true,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AdminService) User(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// UpdateUser edits an account, including its role. A new password signs the
// user out of every session except keep. Admins cannot demote themselves.
func (s *AdminService) UpdateUser(ctx context.Context, actor *domain.User, keep string, id int64, in UserInput) (*domain.User, error) {
	if !validRole(in.Role) {
		return nil, ErrForbidden
	}
	u, err := s.User(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.ID == actor.ID && in.Role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	taken, err := s.Users.TakenByOther(ctx, id, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicate
	}
	u.Username = in.Username
	u.Email = strings.ToLower(in.Email)
	u.Role = in.Role
	u.IsApproved = in.IsApproved || in.Role == domain.RoleAdmin
	if err := s.Users.Update(ctx, *u); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return u, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u.Hash = string(h)
	if err := s.Users.SetPassword(ctx, id, u.Hash); err != nil {
		return nil, err
	}
	return u, s.Users.DeleteUserSessions(ctx, id, keep)
}

func (s *AdminService) PendingUsers(ctx context.Context) ([]domain.User, error) {
	return s.Users.ListPending(ctx)
}

func (s *AdminService) Approve(ctx context.Context, ids ...int64) error {
	return s.Users.Approve(ctx, ids...)
}

// Reject deletes pending accounts. Ids of approved users are skipped.
func (s *AdminService) Reject(ctx context.Context, ids ...int64) (int, error) {
	n := 0
	for _, id := range ids {
		u, err := s.Users.ByID(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return n, err
		}
		if u.IsApproved {
			continue
		}
		if err := s.Users.Delete(ctx, id); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// DeleteUser removes a non-admin account together with its shops. Customers
// who placed orders are kept for order history.
func (s *AdminService) DeleteUser(ctx context.Context, id int64) error {
	u, err := s.Users.ByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if u.IsAdmin() {
		return ErrForbidden
	}
	n, err := s.Orders.CountByCustomer(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasOrders
	}
	return s.Users.Delete(ctx, id)
}

func (s *AdminService) ListShops(ctx context.Context) ([]repos.ShopWithOwner, error) {
	return s.Shops.ListAllWithOwner(ctx)
}

func (s *AdminService) Shop(ctx context.Context, actor *domain.User, id int64) (domain.Shop, error) {
	return s.Sellers.OwnedShop(ctx, actor, id)
}

// UpdateShop edits any shop; names stay unique per owner.
func (s *AdminService) UpdateShop(ctx context.Context, actor *domain.User, id int64, in ShopInput) (domain.Shop, error) {
	return s.Sellers.UpdateShop(ctx, actor, id, in)
}

// ListProducts returns every product with its shop, newest first.
func (s *AdminService) ListProducts(ctx context.Context) ([]repos.ProductWithShop, error) {
	return s.Prods.ListAllWithShop(ctx)
}

func (s *AdminService) DeleteShop(ctx context.Context, id int64) error {
	if _, err := s.Shops.Get(ctx, id); errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	return s.Shops.Delete(ctx, id)
}

func (s *AdminService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.ListGlobal(ctx)
}

func (s *AdminService) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	cats, err := s.Cats.ListGlobal(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	for _, c := range cats {
		if strings.EqualFold(c.Name, name) {
			return domain.Category{}, ErrDuplicate
		}
	}
	c := domain.Category{Name: name}
	if err := s.Cats.Create(ctx, &c); err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (s *AdminService) Category(ctx context.Context, id int64) (domain.Category, error) {
	c, err := s.Cats.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, ErrNotFound
	}
	if err != nil {
		return domain.Category{}, err
	}
	if c.ShopID.Valid {
		return domain.Category{}, ErrForbidden
	}
	return c, nil
}

// UpdateCategory renames a global category.
func (s *AdminService) UpdateCategory(ctx context.Context, id int64, name string) (domain.Category, error) {
	c, err := s.Category(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	name = strings.TrimSpace(name)
	cats, err := s.Cats.ListGlobal(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	for _, other := range cats {
		if other.ID != id && strings.EqualFold(other.Name, name) {
			return domain.Category{}, ErrDuplicate
		}
	}
	if err := s.Cats.Rename(ctx, id, name); err != nil {
		return domain.Category{}, err
	}
	c.Name = name
	return c, nil
}

// DeleteCategory removes a global category; products in it become uncategorized.
func (s *AdminService) DeleteCategory(ctx context.Context, id int64) error {
	c, err := s.Cats.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if c.ShopID.Valid {
		return ErrForbidden
	}
	return s.Cats.Delete(ctx, id)
}

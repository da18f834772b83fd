package handlers

import (
	"bazaar/internal/repos"
	"bazaar/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler     *AuthHandler
	CatalogHandler  *CatalogHandler
	ProductHandler  *ProductHandler
	SearchHandler   *SearchHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	MarketerHandler *MarketerHandler
	AdminHandler    *AdminHandler
}

// NewDeps wires repositories, services and handlers. carts is the session
// cart store picked by configuration.
func NewDeps(db *sqlx.DB, carts services.CartStore, secureCookies bool) *Deps {
	userRepo := repos.NewUserRepo(db)
	shopRepo := repos.NewShopRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	noteRepo := repos.NewNotificationRepo(db)
	ratingRepo := repos.NewRatingRepo(db)

	authSvc := services.NewAuthService(userRepo)
	catalogSvc := services.NewCatalogService(shopRepo, prodRepo, catRepo, ratingRepo)
	cartSvc := services.NewCartService(carts, prodRepo)
	checkoutSvc := services.NewCheckoutService(carts, prodRepo, services.NewOrderCommitter(orderRepo))
	orderSvc := services.NewOrderService(orderRepo)
	shopSvc := services.NewShopService(shopRepo, prodRepo, catRepo, orderRepo, noteRepo)

	return &Deps{
		Auth:           authSvc,
		AuthHandler:    &AuthHandler{Auth: authSvc, Cart: cartSvc, Secure: secureCookies},
		CatalogHandler: &CatalogHandler{Catalog: catalogSvc},
		ProductHandler: &ProductHandler{Catalog: catalogSvc, Ratings: services.NewRatingService(ratingRepo, prodRepo)},
		SearchHandler:  &SearchHandler{Catalog: catalogSvc},
		CartHandler:    &CartHandler{Cart: cartSvc, Checkout: checkoutSvc},
		OrderHandler:   &OrderHandler{Checkout: checkoutSvc, Orders: orderSvc},
		MarketerHandler: &MarketerHandler{
			Shops:  shopSvc,
			Orders: orderSvc,
			Notes:  services.NewNotificationService(noteRepo),
			Auth:   authSvc,
		},
		AdminHandler: &AdminHandler{
			Admin:  services.NewAdminService(userRepo, shopRepo, catRepo, prodRepo, orderRepo, shopSvc),
			Orders: orderSvc,
		},
	}
}

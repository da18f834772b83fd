// Package http assembles the fiber application: middleware, routes and the
// error page.
package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bazaar/internal/config"
	"bazaar/internal/domain"
	"bazaar/internal/http/handlers"
	applog "bazaar/internal/log"
	"bazaar/internal/metrics"
	"bazaar/internal/services"
	"bazaar/web"
)

// ErrorHandler logs err and shows a generic page without internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	applog.Error(c, "server.error", err, nil)
	if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
		"Message": "Something went wrong. Please try again.",
	}); rerr != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
	}
	return nil
}

// New builds the application around db and the configured cart store.
func New(cfg config.Config, db *sqlx.DB, carts services.CartStore) *fiber.App {
	deps := handlers.NewDeps(db, carts, cfg.CookieSecure)

	app := fiber.New(fiber.Config{
		Views:        web.NewEngine(),
		ErrorHandler: ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.Middleware())
	app.Use(logger.New())
	app.Use(helmet.New())
	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				p := c.Path()
				return strings.HasPrefix(p, "/static/") || p == "/healthz" || p == "/metrics"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.global.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests")
			},
		}))
	}
	app.Use(handlers.Session(deps.Auth, cfg.CookieSecure))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		ContextKey:     "csrf",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"form": c.FormValue("csrf") != ""})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	app.Use("/static", filesystem.New(filesystem.Config{Root: web.StaticFS(), MaxAge: 3600}))

	// ---------- Catalog ----------
	app.Get("/", deps.CatalogHandler.Home)
	app.Get("/shops", deps.CatalogHandler.Shops)
	app.Get("/shops/:slug", deps.CatalogHandler.Shop)
	app.Get("/products/:id", deps.ProductHandler.Detail)
	app.Post("/products/:id/rate", handlers.RequireUser(), deps.ProductHandler.Rate)
	app.Get("/search", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), deps.SearchHandler.Search)

	// ---------- Cart & Orders ----------
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart/add", deps.CartHandler.Add)
	app.Post("/cart/update", deps.CartHandler.Update)
	app.Post("/cart/remove", deps.CartHandler.Remove)

	customer := handlers.RequireRole(domain.RoleCustomer)
	app.Get("/checkout", customer, deps.OrderHandler.CheckoutPage)
	app.Post("/checkout/confirm", customer, deps.OrderHandler.Confirm)
	app.Get("/orders", handlers.RequireUser(), deps.OrderHandler.History)
	app.Get("/orders/:id", handlers.RequireUser(), deps.OrderHandler.View)

	// ---------- Auth (login throttled) ----------
	app.Get("/login", deps.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)
	app.Get("/register", deps.AuthHandler.RegisterForm)
	app.Post("/register", deps.AuthHandler.Register)
	app.Post("/logout", deps.AuthHandler.Logout)

	// ---------- Marketer ----------
	mk := deps.MarketerHandler
	m := app.Group("/marketer", handlers.RequireRole(domain.RoleMarketer, domain.RoleAdmin))
	m.Get("/", mk.Dashboard)
	m.Get("/shops", mk.ShopList)
	m.Get("/shops/new", mk.NewShop)
	m.Post("/shops", mk.CreateShop)
	m.Get("/shops/:id/edit", mk.EditShop)
	m.Post("/shops/:id", mk.UpdateShop)
	m.Post("/shops/:id/delete", mk.DeleteShop)
	m.Get("/shops/:id/products", mk.ShopProducts)
	m.Get("/shops/:id/categories", mk.Categories)
	m.Post("/shops/:id/categories", mk.CreateCategory)
	m.Post("/categories/:id/delete", mk.DeleteCategory)
	m.Get("/products/new", mk.NewProduct)
	m.Post("/products", mk.CreateProduct)
	m.Get("/products/:id/edit", mk.EditProduct)
	m.Post("/products/:id", mk.UpdateProduct)
	m.Post("/products/:id/active", mk.SetProductActive)
	m.Post("/products/:id/delete", mk.DeleteProduct)
	m.Get("/orders", mk.OrderList)
	m.Get("/orders/:id", mk.Order)
	m.Post("/orders/:id/status", mk.UpdateStatus)
	m.Get("/notifications", mk.Notifications)
	m.Post("/notifications/read-all", mk.MarkAllRead)
	m.Post("/notifications/:id/read", mk.MarkRead)
	m.Get("/profile", mk.Profile)
	m.Post("/profile", mk.UpdateProfile)
	m.Post("/password", mk.ChangePassword)

	// ---------- Admin ----------
	ad := deps.AdminHandler
	admin := app.Group("/admin", handlers.RequireRole(domain.RoleAdmin))
	admin.Get("/", ad.Dashboard)
	admin.Get("/orders", ad.OrdersPage)
	admin.Post("/orders/:id/status", ad.UpdateOrderStatus)
	admin.Get("/users", ad.UsersPage)
	admin.Get("/users/new", ad.NewUser)
	admin.Post("/users", ad.CreateUser)
	admin.Get("/users/:id/edit", ad.EditUser)
	admin.Post("/users/:id", ad.UpdateUser)
	admin.Post("/users/:id/approve", ad.ApproveUser)
	admin.Post("/users/:id/delete", ad.DeleteUser)
	admin.Get("/approvals", ad.Approvals)
	admin.Post("/approvals", ad.BulkApprove)
	admin.Get("/shops", ad.ShopsPage)
	admin.Get("/shops/:id/edit", ad.EditShop)
	admin.Post("/shops/:id", ad.UpdateShop)
	admin.Post("/shops/:id/delete", ad.DeleteShop)
	admin.Get("/products", ad.ProductsPage)
	admin.Get("/categories", ad.CategoriesPage)
	admin.Post("/categories", ad.CreateCategory)
	admin.Get("/categories/:id/edit", ad.EditCategory)
	admin.Post("/categories/:id", ad.UpdateCategory)
	admin.Post("/categories/:id/delete", ad.DeleteCategory)

	// ---------- Health, metrics & 404 ----------
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	return app
}

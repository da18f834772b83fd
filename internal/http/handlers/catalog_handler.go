package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/log"
	"bazaar/internal/repos"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	v, err := h.Catalog.Home(c.UserContext())
	if err != nil {
		return fail(c, "catalog.home", err)
	}
	return render(c, "home", fiber.Map{"Categories": v.Categories, "Shops": v.Shops, "Products": v.Products})
}

// GET /shops?category=&location=&q=
func (h *CatalogHandler) Shops(c *fiber.Ctx) error {
	var f repos.ShopFilter
	if raw := c.Query("category"); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			return c.Status(fiber.StatusBadRequest).Render("notfound", fiber.Map{"Message": "Invalid category"})
		}
		f.CategoryID = id
	}
	f.Location = c.Query("location")
	f.Query = c.Query("q")

	shops, err := h.Catalog.ListShops(c.UserContext(), f)
	if err != nil {
		return fail(c, "catalog.shops", err)
	}
	cats, err := h.Catalog.Categories(c.UserContext())
	if err != nil {
		return fail(c, "catalog.shops", err)
	}
	return render(c, "shops", fiber.Map{"Shops": shops, "Categories": cats, "Filter": f})
}

// GET /shops/:slug  (a numeric id works too)
func (h *CatalogHandler) Shop(c *fiber.Ctx) error {
	key := c.Params("slug")
	v, err := h.Catalog.ShopBySlug(c.UserContext(), key)
	if id, ok := validate.ID(key); ok && errors.Is(err, services.ErrNotFound) {
		v, err = h.Catalog.ShopByID(c.UserContext(), id)
	}
	if err != nil {
		return fail(c, "catalog.shop", err)
	}
	return render(c, "shop", fiber.Map{"View": v})
}

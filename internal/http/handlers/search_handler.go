package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type SearchHandler struct {
	Catalog *services.CatalogService
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		return c.Redirect("/")
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		c.Status(fiber.StatusBadRequest)
		return render(c, "search", fiber.Map{"Q": "", "Err": "Enter a valid keyword (letters and numbers only)"})
	}

	res, err := h.Catalog.Search(c.UserContext(), q)
	if err != nil {
		log.Error(c, "search.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load results. Please retry."})
	}
	return render(c, "search", fiber.Map{
		"Q":        res.Query,
		"Products": res.Products,
		"Shops":    res.Shops,
		"Count":    len(res.Products) + len(res.Shops),
	})
}

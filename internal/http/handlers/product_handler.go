package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Ratings *services.RatingService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, "This item is no longer available")
	}
	v, err := h.Catalog.Product(c.UserContext(), id, currentUser(c))
	if errors.Is(err, services.ErrNotFound) {
		return notFound(c, "This item is no longer available")
	}
	if err != nil {
		return fail(c, "product.detail", err)
	}
	return render(c, "product", fiber.Map{"View": v, "MaxQty": validate.MaxQty})
}

// POST /products/:id/rate
func (h *ProductHandler) Rate(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, "This item is no longer available")
	}
	dest := "/products/" + c.Params("id")

	var form validate.RatingForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("bad form")
	}
	form.Trim()
	if err := validate.Struct(form); err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "rating"})
		flash(c, "danger", "Choose a rating between 1 and 5.")
		return redirect(c, dest)
	}

	err := h.Ratings.Rate(c.UserContext(), currentUser(c), id, form.Value, form.Comment)
	switch {
	case errors.Is(err, services.ErrInvalidRating):
		flash(c, "danger", "Choose a rating between 1 and 5.")
		return redirect(c, dest)
	case err != nil:
		return fail(c, "product.rate", err)
	}
	log.Audit(c, "product.rate", map[string]any{"product_id": id, "value": form.Value})
	flash(c, "success", "Thanks for your rating!")
	return redirect(c, dest)
}

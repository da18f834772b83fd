package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type CartHandler struct {
	Cart     *services.CartService
	Checkout *services.CheckoutService
}

// reviewCart reconciles the session cart and turns every evicted line into a
// flash message.
func reviewCart(c *fiber.Ctx, checkout *services.CheckoutService) (services.Reconciliation, error) {
	rec, err := checkout.Review(c.UserContext(), sessionID(c))
	if err != nil {
		return rec, err
	}
	flashEvicted(c, rec)
	return rec, nil
}

func flashEvicted(c *fiber.Ctx, rec services.Reconciliation) {
	names := rec.Names()
	if len(names) == 0 {
		return
	}
	for _, n := range names {
		flash(c, "warning", "“"+n+"” is no longer available and was removed from your cart.")
	}
	if rec.BecameEmpty {
		flash(c, "info", "Your cart is now empty.")
	}
	log.Info(c, "cart.lines.evicted", map[string]any{"count": len(names), "emptied": rec.BecameEmpty})
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	rec, err := reviewCart(c, h.Checkout)
	if err != nil {
		log.Error(c, "cart.view", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	return render(c, "cart", fiber.Map{"Cart": rec, "MaxQty": validate.MaxQty})
}

// POST /cart/add
func (h *CartHandler) Add(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return c.Status(fiber.StatusBadRequest).SendString("missing product_id")
	}
	qty := validate.Qty(c.FormValue("qty"))

	line, err := h.Cart.Add(c.UserContext(), sessionID(c), productID, qty)
	if errors.Is(err, services.ErrProductUnavailable) {
		flash(c, "warning", "Sorry, this product is no longer available.")
		return back(c, "/")
	}
	if err != nil {
		return fail(c, "cart.add", err)
	}
	flash(c, "success", "Added “"+line.Name+"” to your cart.")
	return redirect(c, "/cart")
}

// POST /cart/update
func (h *CartHandler) Update(c *fiber.Ctx) error {
	key := c.FormValue("key")
	qty, ok := validate.Quantity(c.FormValue("qty"))
	if key == "" || !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "qty"})
		flash(c, "danger", "Quantity must be between 0 and 50.")
		return redirect(c, "/cart")
	}
	if err := h.Cart.Update(c.UserContext(), sessionID(c), key, qty); err != nil {
		return fail(c, "cart.update", err)
	}
	return redirect(c, "/cart")
}

// POST /cart/remove
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	if err := h.Cart.Remove(c.UserContext(), sessionID(c), c.FormValue("key")); err != nil {
		return fail(c, "cart.remove", err)
	}
	flash(c, "info", "Item removed from your cart.")
	return redirect(c, "/cart")
}

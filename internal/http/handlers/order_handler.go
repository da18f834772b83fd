package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type OrderHandler struct {
	Checkout *services.CheckoutService
	Orders   *services.OrderService
}

// GET /checkout
func (h *OrderHandler) CheckoutPage(c *fiber.Ctx) error {
	rec, err := reviewCart(c, h.Checkout)
	if err != nil {
		applog.Error(c, "checkout.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	if len(rec.Valid) == 0 {
		if !rec.BecameEmpty {
			flash(c, "info", "Your cart is empty.")
		}
		return redirect(c, "/cart")
	}
	return render(c, "checkout", fiber.Map{"Cart": rec})
}

// POST /checkout/confirm
func (h *OrderHandler) Confirm(c *fiber.Ctx) error {
	u := currentUser(c)
	id, rec, err := h.Checkout.Confirm(c.UserContext(), sessionID(c), u)
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		applog.Info(c, "order.place.empty", nil)
		flash(c, "info", "Your cart is empty.")
		return redirect(c, "/cart")
	case errors.Is(err, services.ErrCartChanged):
		flashEvicted(c, rec)
		if rec.BecameEmpty {
			return redirect(c, "/cart")
		}
		flash(c, "info", "Please review your order again before confirming.")
		return redirect(c, "/checkout")
	case err != nil && id == 0:
		applog.Error(c, "order.commit.fail", err, map[string]any{"customer_id": u.ID})
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Something went wrong. Please try again."})
	case err != nil:
		// the order exists; only the cart could not be emptied
		applog.Error(c, "order.cart.clear.fail", err, map[string]any{"order_id": id, "customer_id": u.ID})
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id": id,
		"total":    rec.Total.StringFixed(2),
		"lines":    len(rec.Valid),
	})
	flash(c, "success", "Thank you! Your order #"+strconv.FormatInt(id, 10)+" has been placed.")
	return redirect(c, "/orders/"+strconv.FormatInt(id, 10))
}

// GET /orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Orders.ForCustomer(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "orders.history", err)
	}
	return render(c, "orders", fiber.Map{"Orders": orders})
}

// GET /orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Order not found")
	}
	o, items, err := h.Orders.CustomerOrder(c.UserContext(), currentUser(c), id)
	if errors.Is(err, services.ErrNotFound) {
		applog.Security(c, "order.view.denied", map[string]any{"order_id": id})
		return notFound(c, "Order not found")
	}
	if err != nil {
		return fail(c, "orders.view", err)
	}
	return render(c, "order", fiber.Map{"Order": o, "Items": items})
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
	"bazaar/internal/services"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	data["Flashes"] = takeFlashes(c)
	return c.Render(tmpl, data)
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// fail turns a service error into a response. Lookups and ownership failures
// get their own pages; anything else is logged and shown as a generic error.
func fail(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return notFound(c, "Not found")
	case errors.Is(err, services.ErrForbidden):
		applog.Security(c, "access.denied", map[string]any{"action": action})
		return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
	}
	applog.Error(c, action+".fail", err, nil)
	return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Something went wrong. Please try again."})
}

// back redirects to the referring page when it is local, otherwise to fallback.
func back(c *fiber.Ctx, fallback string) error {
	return redirect(c, localPath(c.Get(fiber.HeaderReferer), c.BaseURL(), fallback))
}

package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
	"bazaar/internal/services"
)

const sidCookie = "sid"

// Session makes sure every visitor has a server-issued sid cookie and
// attaches the signed-in user, if any, to Locals("user"). A cookie naming a
// session the server does not know is replaced, never adopted.
func Session(auth *services.AuthService, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		sid := c.Cookies(sidCookie)
		known := false
		if sid != "" {
			u, ok, err := auth.Resume(ctx, sid)
			if err != nil {
				applog.Error(c, "session.resume.fail", err, nil)
				ok = true
			}
			known = ok
			if u != nil {
				c.Locals("user", u)
			}
		}
		if !known {
			fresh, err := auth.StartSession(ctx)
			if err != nil {
				applog.Error(c, "session.start.fail", err, nil)
			}
			sid = fresh
			setSID(c, sid, secure)
		}
		c.Locals(sidCookie, sid)
		return c.Next()
	}
}

func setSID(c *fiber.Ctx, sid string, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
	})
}

func sessionID(c *fiber.Ctx) string {
	if sid, _ := c.Locals(sidCookie).(string); sid != "" {
		return sid
	}
	return c.Cookies(sidCookie)
}

func toLogin(c *fiber.Ctx) error {
	return c.Redirect("/login?next=" + url.QueryEscape(c.OriginalURL()))
}

// RequireUser enforces that a user is logged in; otherwise redirect to login.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return toLogin(c)
		}
		return c.Next()
	}
}

// RequireRole admits approved users holding one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return toLogin(c)
		}
		if hasRole(u, roles) && (u.IsApproved || u.IsAdmin()) {
			return c.Next()
		}
		applog.Security(c, "access.denied", map[string]any{"role": u.Role, "need": roles})
		return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
	}
}

func hasRole(u *domain.User, roles []string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

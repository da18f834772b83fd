package handlers

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	flashCookie = "flash"
	flashLocals = "flashes"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"k"` // success, info, warning or danger
	Message string `json:"m"`
}

func flash(c *fiber.Ctx, kind, msg string) {
	pending, _ := c.Locals(flashLocals).([]Flash)
	c.Locals(flashLocals, append(pending, Flash{Kind: kind, Message: msg}))
}

// redirect carries pending flashes over to the next request.
func redirect(c *fiber.Ctx, to string) error {
	if pending, _ := c.Locals(flashLocals).([]Flash); len(pending) > 0 {
		all := append(readFlashCookie(c), pending...)
		if b, err := json.Marshal(all); err == nil {
			c.Cookie(&fiber.Cookie{
				Name:     flashCookie,
				Value:    base64.RawURLEncoding.EncodeToString(b),
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(flashLocals, nil)
	}
	return c.Redirect(to)
}

// takeFlashes returns the messages carried by the cookie plus the ones added
// during this request, and consumes the cookie.
func takeFlashes(c *fiber.Ctx) []Flash {
	out := readFlashCookie(c)
	if len(out) > 0 {
		c.Cookie(&fiber.Cookie{Name: flashCookie, Value: "", Path: "/", Expires: time.Unix(0, 0), HTTPOnly: true})
	}
	if pending, _ := c.Locals(flashLocals).([]Flash); len(pending) > 0 {
		out = append(out, pending...)
		c.Locals(flashLocals, nil)
	}
	return out
}

func readFlashCookie(c *fiber.Ctx) []Flash {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var out []Flash
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

// localPath returns ref as a same-site path, or fallback when ref points
// elsewhere.
func localPath(ref, baseURL, fallback string) string {
	if ref == "" {
		return fallback
	}
	if baseURL != "" && strings.HasPrefix(ref, baseURL) {
		ref = strings.TrimPrefix(ref, baseURL)
	}
	if !strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") || strings.Contains(ref, `\`) {
		return fallback
	}
	return ref
}

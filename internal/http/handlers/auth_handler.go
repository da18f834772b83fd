package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/domain"
	"bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

type AuthHandler struct {
	Auth   *services.AuthService
	Cart   *services.CartService
	Secure bool
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": "", "Next": c.Query("next")})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := sessionID(c)
	var form validate.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("bad form")
	}
	next := c.FormValue("next")
	loginFail := func(status int, msg string, fields map[string]any) error {
		log.Security(c, "auth.login.fail", fields)
		c.Status(status)
		return render(c, "login", fiber.Map{"Err": msg, "Login": form.Login, "Next": next})
	}

	if err := validate.Struct(form); err != nil {
		return loginFail(fiber.StatusUnauthorized, "Invalid username or password", map[string]any{"login": form.Login, "reason": "bad_format"})
	}
	u, newSid, err := h.Auth.Login(c.UserContext(), sid, form.Login, form.Password)
	switch {
	case errors.Is(err, services.ErrNotApproved):
		return loginFail(fiber.StatusForbidden, "Your account is awaiting admin approval.", map[string]any{"login": form.Login, "reason": "not_approved"})
	case errors.Is(err, services.ErrBadCreds):
		return loginFail(fiber.StatusUnauthorized, "Invalid username or password", map[string]any{"login": form.Login})
	case err != nil:
		return err
	}

	if err := h.Cart.Move(c.UserContext(), sid, newSid); err != nil {
		log.Error(c, "cart.move.fail", err, nil)
	}
	setSID(c, newSid, h.Secure)
	c.Locals(sidCookie, newSid)
	c.Locals("user", u)
	log.Audit(c, "auth.login.success", map[string]any{"login": form.Login})
	flash(c, "success", "Welcome back, "+u.Username+"!")
	return redirect(c, landing(u, next))
}

// landing picks where a user goes after signing in.
func landing(u *domain.User, next string) string {
	if next = localPath(next, "", ""); next != "" {
		return next
	}
	switch u.Role {
	case domain.RoleAdmin:
		return "/admin"
	case domain.RoleMarketer:
		return "/marketer"
	}
	return "/"
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	return render(c, "register", fiber.Map{"Form": validate.RegisterForm{Role: domain.RoleCustomer}})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var form validate.RegisterForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("bad form")
	}
	form.Trim()
	rerender := func(errs map[string]string, msg string) error {
		c.Status(fiber.StatusBadRequest)
		form.Password, form.Confirm = "", ""
		return render(c, "register", fiber.Map{"Form": form, "Errors": errs, "Err": msg})
	}

	if err := validate.Struct(form); err != nil {
		var ve *validate.ValidationError
		if errors.As(err, &ve) {
			log.Security(c, "validation.fail", map[string]any{"form": "register", "fields": ve.Fields()})
			return rerender(ve.Fields(), "")
		}
		return err
	}

	u, err := h.Auth.Register(c.UserContext(), services.Registration{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		Role:     form.Role,
	})
	switch {
	case errors.Is(err, services.ErrDuplicate):
		return rerender(nil, "That username or email is already registered.")
	case errors.Is(err, services.ErrForbidden):
		log.Security(c, "auth.register.role", map[string]any{"role": form.Role})
		return rerender(map[string]string{"role": "must be one of: customer marketer"}, "")
	case err != nil:
		return err
	}

	log.Audit(c, "auth.register", map[string]any{"username": u.Username, "role": u.Role})
	if u.IsApproved {
		flash(c, "success", "Account created. Please sign in.")
	} else {
		flash(c, "info", "Account created. An administrator must approve marketer accounts before you can sign in.")
	}
	return redirect(c, "/login")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := sessionID(c)
	_ = h.Auth.Logout(c.UserContext(), sid)
	// Expire cookie
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.Secure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/")
}

package handlers

import (
	"errors"
	"strconv"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Admin  *services.AdminService
	Orders *services.OrderService
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.Admin.Dashboard(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.dashboard.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load dashboard"})
	}
	return render(c, "admin_dashboard", fiber.Map{"Dash": d})
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	ords, err := h.Orders.Latest(c.UserContext(), 100)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "admin_orders", fiber.Map{"Orders": ords, "Statuses": domain.OrderStatuses})
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	return updateOrderStatus(c, h.Orders, "/admin/orders")
}

// GET /admin/users?role=
func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	role := c.Query("role")
	users, err := h.Admin.ListUsers(c.UserContext(), role)
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load users"})
	}
	return render(c, "admin_users", fiber.Map{"Users": users, "Role": role})
}

// GET /admin/approvals
func (h *AdminHandler) Approvals(c *fiber.Ctx) error {
	users, err := h.Admin.PendingUsers(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.approvals.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load pending accounts"})
	}
	return render(c, "admin_approvals", fiber.Map{"Users": users})
}

// formIDs reads every positive integer submitted under key.
func formIDs(c *fiber.Ctx, key string) []int64 {
	var ids []int64
	for _, raw := range c.Request().PostArgs().PeekMulti(key) {
		if id, ok := validate.ID(string(raw)); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// POST /admin/approvals  (action=approve|reject, ids=...)
func (h *AdminHandler) BulkApprove(c *fiber.Ctx) error {
	ids := formIDs(c, "ids")
	if len(ids) == 0 {
		flash(c, "warning", "Select at least one account.")
		return redirect(c, "/admin/approvals")
	}
	switch c.FormValue("action") {
	case "approve":
		if err := h.Admin.Approve(c.UserContext(), ids...); err != nil {
			return fail(c, "admin.users.approve", err)
		}
		applog.Audit(c, "admin.users.approve", map[string]any{"user_ids": ids})
		flash(c, "success", strconv.Itoa(len(ids))+" account(s) approved.")
	case "reject":
		n, err := h.Admin.Reject(c.UserContext(), ids...)
		if err != nil {
			return fail(c, "admin.users.reject", err)
		}
		applog.Audit(c, "admin.users.reject", map[string]any{"user_ids": ids, "deleted": n})
		flash(c, "success", strconv.Itoa(n)+" account(s) rejected.")
	default:
		applog.Security(c, "validation.fail", map[string]any{"field": "action"})
		return c.Status(fiber.StatusBadRequest).SendString("unknown action")
	}
	return redirect(c, "/admin/approvals")
}

// POST /admin/users/:id/approve
func (h *AdminHandler) ApproveUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Admin.Approve(c.UserContext(), id); err != nil {
		return fail(c, "admin.users.approve", err)
	}
	applog.Audit(c, "admin.users.approve", map[string]any{"user_ids": []int64{id}})
	flash(c, "success", "Account approved.")
	return back(c, "/admin/users")
}

// POST /admin/users/:id/delete
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	err := h.Admin.DeleteUser(c.UserContext(), id)
	if errors.Is(err, services.ErrHasOrders) {
		flash(c, "warning", "This customer has placed orders and cannot be deleted.")
		return redirect(c, "/admin/users")
	}
	if err != nil {
		return fail(c, "admin.users.delete", err)
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	flash(c, "success", "User deleted.")
	return redirect(c, "/admin/users")
}

// GET /admin/shops
func (h *AdminHandler) ShopsPage(c *fiber.Ctx) error {
	shops, err := h.Admin.ListShops(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.shops.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load shops"})
	}
	return render(c, "admin_shops", fiber.Map{"Shops": shops})
}

// POST /admin/shops/:id/delete
func (h *AdminHandler) DeleteShop(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Admin.DeleteShop(c.UserContext(), id); err != nil {
		return fail(c, "admin.shops.delete", err)
	}
	applog.Audit(c, "admin.shops.delete", map[string]any{"shop_id": id})
	flash(c, "success", "Shop deleted.")
	return redirect(c, "/admin/shops")
}

// GET /admin/categories
func (h *AdminHandler) CategoriesPage(c *fiber.Ctx) error {
	cats, err := h.Admin.Categories(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.categories.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load categories"})
	}
	return render(c, "admin_categories", fiber.Map{"Categories": cats})
}

// POST /admin/categories
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var form validate.CategoryForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("bad form")
	}
	form.Trim()
	if err := validate.Struct(form); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"form": "category"})
		flash(c, "danger", "Category name is required (max 50 characters).")
		return redirect(c, "/admin/categories")
	}
	cat, err := h.Admin.CreateCategory(c.UserContext(), form.Name)
	if errors.Is(err, services.ErrDuplicate) {
		flash(c, "warning", "Category “"+form.Name+"” already exists.")
		return redirect(c, "/admin/categories")
	}
	if err != nil {
		return fail(c, "admin.categories.create", err)
	}
	applog.Audit(c, "admin.categories.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	flash(c, "success", "Category added.")
	return redirect(c, "/admin/categories")
}

// POST /admin/categories/:id/delete
func (h *AdminHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Status(400).SendString("missing id")
	}
	if err := h.Admin.DeleteCategory(c.UserContext(), id); err != nil {
		return fail(c, "admin.categories.delete", err)
	}
	applog.Audit(c, "admin.categories.delete", map[string]any{"category_id": id})
	flash(c, "success", "Category deleted.")
	return redirect(c, "/admin/categories")
}

// ---------- account editing ----------

func userFormPage(c *fiber.Ctx, form validate.AdminUserForm, action string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	form.Password = ""
	data["Form"] = form
	data["Action"] = action
	data["Roles"] = []string{domain.RoleCustomer, domain.RoleMarketer, domain.RoleAdmin}
	return render(c, "admin_user_form", data)
}

// bindUserForm parses and checks the account form. On failure it has already
// written the response.
func bindUserForm(c *fiber.Ctx, action string, create bool) (validate.AdminUserForm, bool, error) {
	var form validate.AdminUserForm
	if err := c.BodyParser(&form); err != nil {
		return form, false, c.Status(fiber.StatusBadRequest).SendString("bad form")
	}
	form.Trim()
	errs := map[string]string{}
	if err := validate.Struct(form); err != nil {
		var ve *validate.ValidationError
		if !errors.As(err, &ve) {
			return form, false, err
		}
		errs = ve.Fields()
	}
	if create && form.Password == "" {
		errs["password"] = "is required"
	}
	if len(errs) > 0 {
		applog.Security(c, "validation.fail", map[string]any{"form": "admin_user", "fields": errs})
		c.Status(fiber.StatusBadRequest)
		return form, false, userFormPage(c, form, action, fiber.Map{"Errors": errs, "Create": create})
	}
	return form, true, nil
}

// GET /admin/users/new
func (h *AdminHandler) NewUser(c *fiber.Ctx) error {
	form := validate.AdminUserForm{Role: domain.RoleCustomer, IsApproved: true}
	return userFormPage(c, form, "/admin/users", fiber.Map{"Create": true})
}

// POST /admin/users
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	form, ok, err := bindUserForm(c, "/admin/users", true)
	if !ok {
		return err
	}
	u, err := h.Admin.CreateUser(c.UserContext(), services.UserInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		Role:     form.Role,
	})
	if errors.Is(err, services.ErrDuplicate) {
		c.Status(fiber.StatusBadRequest)
		return userFormPage(c, form, "/admin/users", fiber.Map{"Create": true, "Err": "That username or email is already registered."})
	}
	if err != nil {
		return fail(c, "admin.users.create", err)
	}
	applog.Audit(c, "admin.users.create", map[string]any{"user_id": u.ID, "role": u.Role})
	flash(c, "success", "User “"+u.Username+"” created.")
	return redirect(c, "/admin/users")
}

// GET /admin/users/:id/edit
func (h *AdminHandler) EditUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "User not found")
	}
	u, err := h.Admin.User(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.users.edit", err)
	}
	form := validate.AdminUserForm{Username: u.Username, Email: u.Email, Role: u.Role, IsApproved: u.IsApproved}
	return userFormPage(c, form, "/admin/users/"+idStr(id), nil)
}

// POST /admin/users/:id
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "User not found")
	}
	action := "/admin/users/" + idStr(id)
	form, ok, err := bindUserForm(c, action, false)
	if !ok {
		return err
	}
	u, err := h.Admin.UpdateUser(c.UserContext(), currentUser(c), sessionID(c), id, services.UserInput{
		Username:   form.Username,
		Email:      form.Email,
		Password:   form.Password,
		Role:       form.Role,
		IsApproved: form.IsApproved,
	})
	switch {
	case errors.Is(err, services.ErrDuplicate):
		c.Status(fiber.StatusBadRequest)
		return userFormPage(c, form, action, fiber.Map{"Err": "That username or email is already registered."})
	case errors.Is(err, services.ErrForbidden):
		applog.Security(c, "admin.users.self_demote", map[string]any{"role": form.Role})
		c.Status(fiber.StatusBadRequest)
		return userFormPage(c, form, action, fiber.Map{"Err": "You cannot remove your own admin role."})
	case err != nil:
		return fail(c, "admin.users.update", err)
	}
	applog.Audit(c, "admin.users.update", map[string]any{"user_id": u.ID, "role": u.Role, "password_reset": form.Password != ""})
	flash(c, "success", "User “"+u.Username+"” updated.")
	return redirect(c, "/admin/users")
}

// ---------- shop, category and product oversight ----------

// GET /admin/shops/:id/edit
func (h *AdminHandler) EditShop(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Shop not found")
	}
	shop, err := h.Admin.Shop(c.UserContext(), currentUser(c), id)
	if err != nil {
		return fail(c, "admin.shops.edit", err)
	}
	form := validate.ShopForm{
		Name:           shop.Name,
		Description:    shop.Description,
		Location:       shop.Location,
		WhatsappNumber: shop.WhatsappNumber,
		Logo:           shop.Logo.String,
	}
	return render(c, "marketer_shop_form", fiber.Map{"Form": form, "Shop": shop, "Action": "/admin/shops/" + idStr(id), "AdminNav": true})
}

// POST /admin/shops/:id
func (h *AdminHandler) UpdateShop(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Shop not found")
	}
	action := "/admin/shops/" + idStr(id)
	in, ok, err := parseShop(c, action, true)
	if !ok {
		return err
	}
	shop, err := h.Admin.UpdateShop(c.UserContext(), currentUser(c), id, in)
	if errors.Is(err, services.ErrDuplicate) {
		c.Status(fiber.StatusBadRequest)
		return render(c, "marketer_shop_form", fiber.Map{
			"Form": in, "Errors": map[string]string{"name": "the owner already has a shop with this name"}, "Action": action, "AdminNav": true,
		})
	}
	if err != nil {
		return fail(c, "admin.shops.update", err)
	}
	applog.Audit(c, "admin.shops.update", map[string]any{"shop_id": shop.ID})
	flash(c, "success", "Shop updated.")
	return redirect(c, "/admin/shops")
}

// GET /admin/products
func (h *AdminHandler) ProductsPage(c *fiber.Ctx) error {
	prods, err := h.Admin.ListProducts(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.products.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	return render(c, "admin_products", fiber.Map{"Products": prods})
}

// GET /admin/categories/:id/edit
func (h *AdminHandler) EditCategory(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Category not found")
	}
	cat, err := h.Admin.Category(c.UserContext(), id)
	if err != nil {
		return fail(c, "admin.categories.edit", err)
	}
	return render(c, "admin_category_form", fiber.Map{"Category": cat, "Form": validate.CategoryForm{Name: cat.Name}})
}

// POST /admin/categories/:id
func (h *AdminHandler) UpdateCategory(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Category not found")
	}
	var form validate.CategoryForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("bad form")
	}
	form.Trim()
	page := fiber.Map{"Category": domain.Category{ID: id}, "Form": form}
	if err := validate.Struct(form); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"form": "category"})
		page["Err"] = "Category name is required (max 50 characters)."
		c.Status(fiber.StatusBadRequest)
		return render(c, "admin_category_form", page)
	}
	cat, err := h.Admin.UpdateCategory(c.UserContext(), id, form.Name)
	if errors.Is(err, services.ErrDuplicate) {
		page["Err"] = "Category “" + form.Name + "” already exists."
		c.Status(fiber.StatusBadRequest)
		return render(c, "admin_category_form", page)
	}
	if err != nil {
		return fail(c, "admin.categories.update", err)
	}
	applog.Audit(c, "admin.categories.update", map[string]any{"category_id": cat.ID, "name": cat.Name})
	flash(c, "success", "Category updated.")
	return redirect(c, "/admin/categories")
}

package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
	"bazaar/internal/services"
	"bazaar/internal/validate"
)

// MarketerHandler serves /marketer: a seller's shops, products, categories,
// incoming orders and notifications.
type MarketerHandler struct {
	Shops  *services.ShopService
	Orders *services.OrderService
	Notes  *services.NotificationService
	Auth   *services.AuthService
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, ok := validate.ID(c.Params(name))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": name})
	}
	return id, ok
}

func idStr(id int64) string { return strconv.FormatInt(id, 10) }

// GET /marketer
func (h *MarketerHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.Shops.Dashboard(c.UserContext(), currentUser(c))
	if err != nil {
		return fail(c, "marketer.dashboard", err)
	}
	return render(c, "marketer_dashboard", fiber.Map{"Dash": d})
}

// ---------- shops ----------

// GET /marketer/shops
func (h *MarketerHandler) ShopList(c *fiber.Ctx) error {
	shops, err := h.Shops.MyShops(c.UserContext(), currentUser(c))
	if err != nil {
		return fail(c, "marketer.shops", err)
	}
	return render(c, "marketer_shops", fiber.Map{"Shops": shops})
}

// GET /marketer/shops/new
func (h *MarketerHandler) NewShop(c *fiber.Ctx) error {
	return render(c, "marketer_shop_form", fiber.Map{"Form": validate.ShopForm{}, "Action": "/marketer/shops"})
}

// GET /marketer/shops/:id/edit
func (h *MarketerHandler) EditShop(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Shop not found")
	}
	shop, err := h.Shops.OwnedShop(c.UserContext(), currentUser(c), id)
	if err != nil {
		return fail(c, "marketer.shop.edit", err)
	}
	form := validate.ShopForm{
		Name:           shop.Name,
		Description:    shop.Description,
		Location:       shop.Location,
		WhatsappNumber: shop.WhatsappNumber,
		Logo:           shop.Logo.String,
	}
	return render(c, "marketer_shop_form", fiber.Map{"Form": form, "Shop": shop, "Action": "/marketer/shops/" + idStr(id)})
}

// parseShop binds and checks a shop form, re-rendering it on failure. admin
// picks the admin navigation for the re-rendered page.
func parseShop(c *fiber.Ctx, action string, admin bool) (services.ShopInput, bool, error) {
	var form validate.ShopForm
	if err := c.BodyParser(&form); err != nil {
		return services.ShopInput{}, false, c.Status(fiber.StatusBadRequest).SendString("bad form")
	}
	form.Trim()
	if err := validate.Struct(form); err != nil {
		var ve *validate.ValidationError
		if !errors.As(err, &ve) {
			return services.ShopInput{}, false, err
		}
		applog.Security(c, "validation.fail", map[string]any{"form": "shop", "fields": ve.Fields()})
		c.Status(fiber.StatusBadRequest)
		return services.ShopInput{}, false, render(c, "marketer_shop_form", fiber.Map{"Form": form, "Errors": ve.Fields(), "Action": action, "AdminNav": admin})
	}
	phone, _ := validate.Phone(form.WhatsappNumber)
	return services.ShopInput{
		Name:           form.Name,
		Description:    form.Description,
		Location:       form.Location,
		WhatsappNumber: phone,
		Logo:           form.Logo,
	}, true, nil
}

// POST /marketer/shops
func (h *MarketerHandler) CreateShop(c *fiber.Ctx) error {
	in, ok, err := parseShop(c, "/marketer/shops", false)
	if !ok {
		return err
	}
	shop, err := h.Shops.CreateShop(c.UserContext(), currentUser(c), in)
	if errors.Is(err, services.ErrDuplicate) {
		c.Status(fiber.StatusBadRequest)
		return render(c, "marketer_shop_form", fiber.Map{
			"Form": in, "Errors": map[string]string{"name": "you already have a shop with this name"}, "Action": "/marketer/shops",
		})
	}
	if err != nil {
		return fail(c, "marketer.shop.create", err)
	}
	applog.Audit(c, "shop.create", map[string]any{"shop_id": shop.ID, "slug": shop.Slug})
	flash(c, "success", "Shop “"+shop.Name+"” created.")
	return redirect(c, "/marketer/shops")
}

// POST /marketer/shops/:id
func (h *MarketerHandler) UpdateShop(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Shop not found")
	}
	action := "/marketer/shops/" + idStr(id)
	in, ok, err := parseShop(c, action, false)
	if !ok {
		return err
	}
	shop, err := h.Shops.UpdateShop(c.UserContext(), currentUser(c), id, in)
	if errors.Is(err, services.ErrDuplicate) {
		c.Status(fiber.StatusBadRequest)
		return render(c, "marketer_shop_form", fiber.Map{
			"Form": in, "Errors": map[string]string{"name": "you already have a shop with this name"}, "Action": action,
		})
	}
	if err != nil {
		return fail(c, "marketer.shop.update", err)
	}
	applog.Audit(c, "shop.update", map[string]any{"shop_id": shop.ID})
	flash(c, "success", "Shop updated.")
	return redirect(c, "/marketer/shops")
}

// POST /marketer/shops/:id/delete
func (h *MarketerHandler) DeleteShop(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Shop not found")
	}
	if err := h.Shops.DeleteShop(c.UserContext(), currentUser(c), id); err != nil {
		return fail(c, "marketer.shop.delete", err)
	}
	applog.Audit(c, "shop.delete", map[string]any{"shop_id": id})
	flash(c, "success", "Shop deleted.")
	return redirect(c, "/marketer/shops")
}

// GET /marketer/shops/:id/products
func (h *MarketerHandler) ShopProducts(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Shop not found")
	}
	u := currentUser(c)
	shop, err := h.Shops.OwnedShop(c.UserContext(), u, id)
	if err != nil {
		return fail(c, "marketer.products", err)
	}
	prods, err := h.Shops.ShopProducts(c.UserContext(), u, id)
	if err != nil {
		return fail(c, "marketer.products", err)
	}
	return render(c, "marketer_products", fiber.Map{"Shop": shop, "Products": prods})
}

// ---------- products ----------

func (h *MarketerHandler) productForm(c *fiber.Ctx, form validate.ProductForm, errs map[string]string, action string, product *domain.Product) error {
	u := currentUser(c)
	shops, err := h.Shops.MyShops(c.UserContext(), u)
	if err != nil {
		return fail(c, "marketer.product.form", err)
	}
	var cats []domain.Category
	if form.ShopID > 0 {
		if cats, err = h.Shops.ShopCategories(c.UserContext(), u, form.ShopID); err != nil {
			return fail(c, "marketer.product.form", err)
		}
	}
	return render(c, "marketer_product_form", fiber.Map{
		"Form": form, "Errors": errs, "Action": action, "Shops": shops, "Categories": cats, "Product": product,
	})
}

// GET /marketer/products/new?shop=
func (h *MarketerHandler) NewProduct(c *fiber.Ctx) error {
	form := validate.ProductForm{}
	if id, ok := validate.ID(c.Query("shop")); ok {
		form.ShopID = id
	}
	return h.productForm(c, form, nil, "/marketer/products", nil)
}

// GET /marketer/products/:id/edit
func (h *MarketerHandler) EditProduct(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Product not found")
	}
	p, _, err := h.Shops.OwnedProduct(c.UserContext(), currentUser(c), id)
	if err != nil {
		return fail(c, "marketer.product.edit", err)
	}
	form := validate.ProductForm{
		ShopID:      p.ShopID,
		CategoryID:  p.CategoryID.Int64,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Image:       p.Image,
	}
	return h.productForm(c, form, nil, "/marketer/products/"+idStr(id), &p)
}

func (h *MarketerHandler) parseProduct(c *fiber.Ctx, action string) (services.ProductInput, bool, error) {
	var form validate.ProductForm
	if err := c.BodyParser(&form); err != nil {
		return services.ProductInput{}, false, c.Status(fiber.StatusBadRequest).SendString("bad form")
	}
	form.Trim()
	if err := validate.Struct(form); err != nil {
		var ve *validate.ValidationError
		if !errors.As(err, &ve) {
			return services.ProductInput{}, false, err
		}
		applog.Security(c, "validation.fail", map[string]any{"form": "product", "fields": ve.Fields()})
		c.Status(fiber.StatusBadRequest)
		return services.ProductInput{}, false, h.productForm(c, form, ve.Fields(), action, nil)
	}
	price, err := decimal.NewFromString(form.Price)
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return services.ProductInput{}, false, h.productForm(c, form, map[string]string{"price": "must be a number"}, action, nil)
	}
	return services.ProductInput{
		ShopID:      form.ShopID,
		CategoryID:  form.CategoryID,
		Name:        form.Name,
		Description: form.Description,
		Price:       price,
		Image:       form.Image,
	}, true, nil
}

// POST /marketer/products
func (h *MarketerHandler) CreateProduct(c *fiber.Ctx) error {
	in, ok, err := h.parseProduct(c, "/marketer/products")
	if !ok {
		return err
	}
	p, err := h.Shops.CreateProduct(c.UserContext(), currentUser(c), in)
	if err != nil {
		return fail(c, "marketer.product.create", err)
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "shop_id": p.ShopID, "price": p.Price.StringFixed(2)})
	flash(c, "success", "Product “"+p.Name+"” added.")
	return redirect(c, "/marketer/shops/"+idStr(p.ShopID)+"/products")
}

// POST /marketer/products/:id
func (h *MarketerHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Product not found")
	}
	in, ok, err := h.parseProduct(c, "/marketer/products/"+idStr(id))
	if !ok {
		return err
	}
	p, err := h.Shops.UpdateProduct(c.UserContext(), currentUser(c), id, in)
	if err != nil {
		return fail(c, "marketer.product.update", err)
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": p.ID, "price": p.Price.StringFixed(2)})
	flash(c, "success", "Product updated.")
	return redirect(c, "/marketer/shops/"+idStr(p.ShopID)+"/products")
}

// POST /marketer/products/:id/active  (active=0 marks the product sold out)
func (h *MarketerHandler) SetProductActive(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Product not found")
	}
	active := c.FormValue("active") == "1"
	u := currentUser(c)
	p, _, err := h.Shops.OwnedProduct(c.UserContext(), u, id)
	if err != nil {
		return fail(c, "marketer.product.active", err)
	}
	if err := h.Shops.SetProductActive(c.UserContext(), u, id, active); err != nil {
		return fail(c, "marketer.product.active", err)
	}
	applog.Audit(c, "product.active", map[string]any{"product_id": id, "active": active})
	if active {
		flash(c, "success", "“"+p.Name+"” is back on sale.")
	} else {
		flash(c, "success", "“"+p.Name+"” marked as sold out.")
	}
	return redirect(c, "/marketer/shops/"+idStr(p.ShopID)+"/products")
}

// POST /marketer/products/:id/delete
func (h *MarketerHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Product not found")
	}
	u := currentUser(c)
	p, _, err := h.Shops.OwnedProduct(c.UserContext(), u, id)
	if err != nil {
		return fail(c, "marketer.product.delete", err)
	}
	if err := h.Shops.DeleteProduct(c.UserContext(), u, id); err != nil {
		return fail(c, "marketer.product.delete", err)
	}
	applog.Audit(c, "product.delete", map[string]any{"product_id": id, "shop_id": p.ShopID})
	flash(c, "success", "Product deleted.")
	return redirect(c, "/marketer/shops/"+idStr(p.ShopID)+"/products")
}

// ---------- categories ----------

// GET /marketer/shops/:id/categories
func (h *MarketerHandler) Categories(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Shop not found")
	}
	u := currentUser(c)
	shop, err := h.Shops.OwnedShop(c.UserContext(), u, id)
	if err != nil {
		return fail(c, "marketer.categories", err)
	}
	cats, err := h.Shops.ShopCategories(c.UserContext(), u, id)
	if err != nil {
		return fail(c, "marketer.categories", err)
	}
	return render(c, "marketer_categories", fiber.Map{"Shop": shop, "Categories": cats})
}

// POST /marketer/shops/:id/categories
func (h *MarketerHandler) CreateCategory(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Shop not found")
	}
	dest := "/marketer/shops/" + idStr(id) + "/categories"
	var form validate.CategoryForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("bad form")
	}
	form.Trim()
	if err := validate.Struct(form); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"form": "category"})
		flash(c, "danger", "Category name is required (max 50 characters).")
		return redirect(c, dest)
	}
	cat, err := h.Shops.CreateCategory(c.UserContext(), currentUser(c), id, form.Name)
	if errors.Is(err, services.ErrDuplicate) {
		flash(c, "warning", "This shop already has a category named “"+form.Name+"”.")
		return redirect(c, dest)
	}
	if err != nil {
		return fail(c, "marketer.category.create", err)
	}
	applog.Audit(c, "category.create", map[string]any{"category_id": cat.ID, "shop_id": id})
	flash(c, "success", "Category added.")
	return redirect(c, dest)
}

// POST /marketer/categories/:id/delete
func (h *MarketerHandler) DeleteCategory(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Category not found")
	}
	if err := h.Shops.DeleteCategory(c.UserContext(), currentUser(c), id); err != nil {
		return fail(c, "marketer.category.delete", err)
	}
	applog.Audit(c, "category.delete", map[string]any{"category_id": id})
	flash(c, "success", "Category deleted.")
	return back(c, "/marketer/shops")
}

// ---------- orders ----------

// GET /marketer/orders
func (h *MarketerHandler) OrderList(c *fiber.Ctx) error {
	orders, err := h.Orders.ForMarketer(c.UserContext(), currentUser(c), 0)
	if err != nil {
		return fail(c, "marketer.orders", err)
	}
	return render(c, "marketer_orders", fiber.Map{"Orders": orders, "Statuses": domain.OrderStatuses})
}

// GET /marketer/orders/:id
func (h *MarketerHandler) Order(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Order not found")
	}
	o, items, err := h.Orders.MarketerOrder(c.UserContext(), currentUser(c), id)
	if err != nil {
		return fail(c, "marketer.order", err)
	}
	sub := decimal.Zero
	for _, it := range items {
		sub = sub.Add(it.Subtotal())
	}
	return render(c, "marketer_order", fiber.Map{"Order": o, "Items": items, "MyTotal": sub, "Statuses": domain.OrderStatuses})
}

// POST /marketer/orders/:id/status
func (h *MarketerHandler) UpdateStatus(c *fiber.Ctx) error {
	return updateOrderStatus(c, h.Orders, "/marketer/orders")
}

func updateOrderStatus(c *fiber.Ctx, orders *services.OrderService, listPath string) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Order not found")
	}
	status := c.FormValue("status")
	err := orders.UpdateStatus(c.UserContext(), currentUser(c), id, status)
	if errors.Is(err, services.ErrInvalidStatus) {
		applog.Security(c, "validation.fail", map[string]any{"field": "status", "value": status})
		flash(c, "danger", "Unknown order status.")
		return back(c, listPath)
	}
	if err != nil {
		return fail(c, "orders.status", err)
	}
	applog.Audit(c, "orders.status.update", map[string]any{"order_id": id, "status": status})
	flash(c, "success", "Order #"+idStr(id)+" is now "+status+".")
	return back(c, listPath)
}

// ---------- notifications ----------

// GET /marketer/notifications?unread=1
func (h *MarketerHandler) Notifications(c *fiber.Ctx) error {
	unread := c.Query("unread") == "1"
	notes, err := h.Notes.List(c.UserContext(), currentUser(c).ID, unread)
	if err != nil {
		return fail(c, "marketer.notifications", err)
	}
	return render(c, "marketer_notifications", fiber.Map{"Notifications": notes, "UnreadOnly": unread})
}

// POST /marketer/notifications/:id/read
func (h *MarketerHandler) MarkRead(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return notFound(c, "Notification not found")
	}
	if err := h.Notes.MarkRead(c.UserContext(), currentUser(c).ID, id); err != nil {
		return fail(c, "marketer.notifications.read", err)
	}
	return back(c, "/marketer/notifications")
}

// POST /marketer/notifications/read-all
func (h *MarketerHandler) MarkAllRead(c *fiber.Ctx) error {
	if err := h.Notes.MarkAllRead(c.UserContext(), currentUser(c).ID); err != nil {
		return fail(c, "marketer.notifications.read", err)
	}
	flash(c, "success", "All notifications marked as read.")
	return redirect(c, "/marketer/notifications")
}

// ---------- profile ----------

func (h *MarketerHandler) profilePage(c *fiber.Ctx, data fiber.Map) error {
	if _, ok := data["Form"]; !ok {
		u := currentUser(c)
		data["Form"] = validate.ProfileForm{Username: u.Username, Email: u.Email}
	}
	return render(c, "marketer_profile", data)
}

// GET /marketer/profile
func (h *MarketerHandler) Profile(c *fiber.Ctx) error {
	return h.profilePage(c, fiber.Map{})
}

// POST /marketer/profile
func (h *MarketerHandler) UpdateProfile(c *fiber.Ctx) error {
	var form validate.ProfileForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("bad form")
	}
	form.Trim()
	if err := validate.Struct(form); err != nil {
		var ve *validate.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		applog.Security(c, "validation.fail", map[string]any{"form": "profile", "fields": ve.Fields()})
		c.Status(fiber.StatusBadRequest)
		return h.profilePage(c, fiber.Map{"Form": form, "Errors": ve.Fields()})
	}
	u, err := h.Auth.UpdateProfile(c.UserContext(), currentUser(c), form.Username, form.Email)
	if errors.Is(err, services.ErrDuplicate) {
		c.Status(fiber.StatusBadRequest)
		return h.profilePage(c, fiber.Map{"Form": form, "Err": "That username or email is already taken."})
	}
	if err != nil {
		return fail(c, "marketer.profile.update", err)
	}
	c.Locals("user", u)
	applog.Audit(c, "profile.update", map[string]any{"username": u.Username})
	flash(c, "success", "Your profile has been updated!")
	return redirect(c, "/marketer/profile")
}

// POST /marketer/password
func (h *MarketerHandler) ChangePassword(c *fiber.Ctx) error {
	var form validate.PasswordForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("bad form")
	}
	if err := validate.Struct(form); err != nil {
		var ve *validate.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		applog.Security(c, "validation.fail", map[string]any{"form": "password", "fields": ve.Fields()})
		c.Status(fiber.StatusBadRequest)
		return h.profilePage(c, fiber.Map{"PwErrors": ve.Fields()})
	}
	err := h.Auth.ChangePassword(c.UserContext(), currentUser(c), sessionID(c), form.Current, form.New)
	if errors.Is(err, services.ErrBadCreds) {
		applog.Security(c, "auth.password.fail", nil)
		c.Status(fiber.StatusBadRequest)
		return h.profilePage(c, fiber.Map{"PwErr": "Incorrect current password."})
	}
	if err != nil {
		return fail(c, "marketer.password.change", err)
	}
	applog.Audit(c, "auth.password.change", nil)
	flash(c, "success", "Your password has been changed!")
	return redirect(c, "/marketer/profile")
}

package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

func newAdminService(e env) *services.AdminService {
	shops, prods, cats, orders := repos.NewShopRepo(e.db), repos.NewProductRepo(e.db), repos.NewCategoryRepo(e.db), repos.NewOrderRepo(e.db)
	sellers := services.NewShopService(shops, prods, cats, orders, repos.NewNotificationRepo(e.db))
	return services.NewAdminService(repos.NewUserRepo(e.db), shops, cats, prods, orders, sellers)
}

func TestAdminService_ApproveAndReject(t *testing.T) {
	e := newEnv(t)
	admin := newAdminService(e)
	auth := services.NewAuthService(repos.NewUserRepo(e.db))
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"m1", "m2", "m3"} {
		u, err := auth.Register(ctx, services.Registration{Username: name, Email: name + "@bazaar.test", Password: "Passw0rd!", Role: domain.RoleMarketer})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}

	pending, err := admin.PendingUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	require.NoError(t, admin.Approve(ctx, ids[0]))
	n, err := admin.Reject(ctx, ids...)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "approved accounts are not rejected")

	d, err := admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Zero(t, d.PendingApprovals)
	assert.Equal(t, 5, d.TotalUsers)
	assert.Equal(t, 3, d.UsersByRole[domain.RoleMarketer])
	assert.Equal(t, 3, d.Shops)
}

func TestAdminService_DeleteUser(t *testing.T) {
	e := newEnv(t)
	admin := newAdminService(e)
	ctx := context.Background()
	placeOrder(t, e)
	require.NoError(t, repos.EnsureAdmin(ctx, e.db, "root", "root@bazaar.test", "pw"))

	assert.ErrorIs(t, admin.DeleteUser(ctx, user(t, e.db, "cleo").ID), services.ErrHasOrders)
	assert.ErrorIs(t, admin.DeleteUser(ctx, user(t, e.db, "root").ID), services.ErrForbidden)
	assert.ErrorIs(t, admin.DeleteUser(ctx, 999), services.ErrNotFound)

	// Deleting a marketer removes their shops but keeps customers' order lines.
	require.NoError(t, admin.DeleteUser(ctx, user(t, e.db, "ada").ID))
	assert.Equal(t, 1, count(t, e.db, "shops"))
	assert.Equal(t, 1, count(t, e.db, "order_items"))
}

func TestAdminService_GlobalCategories(t *testing.T) {
	e := newEnv(t)
	admin := newAdminService(e)
	ctx := context.Background()

	c, err := admin.CreateCategory(ctx, " Books ")
	require.NoError(t, err)
	assert.Equal(t, "Books", c.Name)
	_, err = admin.CreateCategory(ctx, "FOOD")
	assert.ErrorIs(t, err, services.ErrDuplicate)

	assert.ErrorIs(t, admin.DeleteCategory(ctx, 4), services.ErrForbidden, "shop categories belong to marketers")
	require.NoError(t, admin.DeleteCategory(ctx, c.ID))

	cats, err := admin.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 3)
}

func TestAdminService_CreateAndEditUser(t *testing.T) {
	e := newEnv(t)
	admin := newAdminService(e)
	users := repos.NewUserRepo(e.db)
	auth := services.NewAuthService(users)
	ctx := context.Background()
	require.NoError(t, repos.EnsureAdmin(ctx, e.db, "root", "root@bazaar.test", "Adm1n!pass"))
	root := user(t, e.db, "root")

	m, err := admin.CreateUser(ctx, services.UserInput{Username: "gus", Email: "Gus@Bazaar.test", Password: "Str0ng!pass", Role: domain.RoleMarketer})
	require.NoError(t, err)
	assert.True(t, m.IsApproved, "admin-made accounts skip approval")
	assert.Equal(t, "gus@bazaar.test", m.Email)
	_, err = admin.CreateUser(ctx, services.UserInput{Username: "gus2", Email: "GUS@bazaar.test", Password: "Str0ng!pass", Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, services.ErrDuplicate)
	_, err = admin.CreateUser(ctx, services.UserInput{Username: "gus3", Email: "g3@bazaar.test", Password: "Str0ng!pass", Role: "owner"})
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, sid, err := auth.Login(ctx, "", "gus", "Str0ng!pass")
	require.NoError(t, err)

	// promote to admin and reset the password
	got, err := admin.UpdateUser(ctx, root, "", m.ID, services.UserInput{Username: "gus", Email: "gus@bazaar.test", Password: "N3w!passwd", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	_, known, err := auth.Resume(ctx, sid)
	require.NoError(t, err)
	assert.False(t, known, "a reset password signs the user out")
	_, _, err = auth.Login(ctx, "", "gus", "Str0ng!pass")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	_, _, err = auth.Login(ctx, "", "gus", "N3w!passwd")
	require.NoError(t, err)

	// no password keeps the old one
	_, err = admin.UpdateUser(ctx, root, "", m.ID, services.UserInput{Username: "gustav", Email: "gus@bazaar.test", Role: domain.RoleCustomer, IsApproved: true})
	require.NoError(t, err)
	_, _, err = auth.Login(ctx, "", "gustav", "N3w!passwd")
	require.NoError(t, err)

	_, err = admin.UpdateUser(ctx, root, "", m.ID, services.UserInput{Username: "ada", Email: "gus@bazaar.test", Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, services.ErrDuplicate)
	_, err = admin.UpdateUser(ctx, root, "", root.ID, services.UserInput{Username: "root", Email: "root@bazaar.test", Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, services.ErrForbidden, "admins keep their own role")
	_, err = admin.UpdateUser(ctx, root, "", 999, services.UserInput{Username: "x99", Email: "x@bazaar.test", Role: domain.RoleCustomer})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestAdminService_EditShopCategoryAndListProducts(t *testing.T) {
	e := newEnv(t)
	admin := newAdminService(e)
	ctx := context.Background()
	require.NoError(t, repos.EnsureAdmin(ctx, e.db, "root", "root@bazaar.test", "Adm1n!pass"))
	root := user(t, e.db, "root")

	shop, err := admin.UpdateShop(ctx, root, 1, services.ShopInput{Name: "Ada Fabrics", Location: "Lagos"})
	require.NoError(t, err)
	assert.Equal(t, "ada-fabrics", shop.Slug)
	assert.Equal(t, user(t, e.db, "ada").ID, shop.UserID, "the owner does not change")
	_, err = admin.UpdateShop(ctx, root, 1, services.ShopInput{Name: "ada kitchen"})
	assert.ErrorIs(t, err, services.ErrDuplicate)

	c, err := admin.UpdateCategory(ctx, 1, " Clothing ")
	require.NoError(t, err)
	assert.Equal(t, "Clothing", c.Name)
	_, err = admin.UpdateCategory(ctx, 1, "food")
	assert.ErrorIs(t, err, services.ErrDuplicate)
	_, err = admin.UpdateCategory(ctx, 4, "Tops")
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = admin.UpdateCategory(ctx, 999, "Tops")
	assert.ErrorIs(t, err, services.ErrNotFound)

	prods, err := admin.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, prods, count(t, e.db, "products"))
	var shops []string
	for _, p := range prods {
		shops = append(shops, p.Shop)
	}
	assert.Contains(t, shops, "Ben Gadgets")
}

package repos_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

func TestProductRepo_LookupProduct(t *testing.T) {
	db := seededDB(t)
	products := repos.NewProductRepo(db)
	ctx := context.Background()

	p, ok, err := products.LookupProduct(ctx, 4)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "USB-C Charger", p.Name)
	assert.Equal(t, int64(3), p.ShopID)
	assert.Equal(t, userID(t, db, "ben"), p.ShopOwnerID)
	assert.True(t, p.IsActive)

	p, ok, err = products.LookupProduct(ctx, 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, p.IsActive)

	_, ok, err = products.LookupProduct(ctx, 404)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShopRepo_ListFilters(t *testing.T) {
	shops := repos.NewShopRepo(seededDB(t))
	ctx := context.Background()

	all, err := shops.List(ctx, repos.ShopFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	lagos, err := shops.List(ctx, repos.ShopFilter{Location: "lagos"})
	require.NoError(t, err)
	assert.Len(t, lagos, 2)

	chargers, err := shops.List(ctx, repos.ShopFilter{CategoryID: 5})
	require.NoError(t, err)
	require.Len(t, chargers, 1)
	assert.Equal(t, "ben-gadgets", chargers[0].Slug)

	named, err := shops.List(ctx, repos.ShopFilter{Query: "kitchen"})
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "Ada Kitchen", named[0].Name)
}

func TestShopRepo_BySlug(t *testing.T) {
	shops := repos.NewShopRepo(seededDB(t))

	s, err := shops.BySlug(context.Background(), "ada-threads")
	require.NoError(t, err)
	assert.Equal(t, "Ada Threads", s.Name)

	_, err = shops.BySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCategoryRepo_GlobalAndShop(t *testing.T) {
	cats := repos.NewCategoryRepo(seededDB(t))
	ctx := context.Background()

	global, err := cats.ListGlobal(ctx)
	require.NoError(t, err)
	assert.Len(t, global, 3)

	forShop, err := cats.ListForShop(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, forShop, 4)
	assert.Equal(t, "Shirts", forShop[3].Name)

	err = cats.Create(ctx, &domain.Category{Name: "food"})
	assert.Error(t, err, "global names are unique regardless of case")
}

func TestRatingRepo_UpsertAndSummary(t *testing.T) {
	db := seededDB(t)
	ratings := repos.NewRatingRepo(db)
	ctx := context.Background()
	cleo, dara := userID(t, db, "cleo"), userID(t, db, "dara")

	require.NoError(t, ratings.Upsert(ctx, domain.Rating{ProductID: 1, UserID: cleo, ShopID: 1, Value: 2}))
	require.NoError(t, ratings.Upsert(ctx, domain.Rating{ProductID: 1, UserID: cleo, ShopID: 1, Value: 4}))
	require.NoError(t, ratings.Upsert(ctx, domain.Rating{ProductID: 1, UserID: dara, ShopID: 1, Value: 5}))

	sum, err := ratings.SummaryForProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	assert.InDelta(t, 4.5, sum.Average, 0.001)

	sum, err = ratings.SummaryForShop(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, sum.Count)
	assert.Zero(t, sum.Average)

	assert.Error(t, ratings.Upsert(ctx, domain.Rating{ProductID: 2, UserID: cleo, ShopID: 1, Value: 6}))
}

func TestUserRepo_ByLoginAndApprove(t *testing.T) {
	db := seededDB(t)
	users := repos.NewUserRepo(db)
	ctx := context.Background()

	u := &domain.User{Username: "eve", Email: "Eve@Bazaar.test", Hash: "x", Role: domain.RoleMarketer}
	require.NoError(t, users.Create(ctx, u))

	byEmail, err := users.ByLogin(ctx, "eve@bazaar.test")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.False(t, byEmail.IsApproved)

	require.NoError(t, users.Approve(ctx, u.ID))
	got, err := users.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)

	exists, err := users.Exists(ctx, "someone", "EVE@bazaar.test")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepo_Sessions(t *testing.T) {
	db := seededDB(t)
	users := repos.NewUserRepo(db)
	ctx := context.Background()
	cleo := userID(t, db, "cleo")

	ok, err := users.TouchSession(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, users.CreateSession(ctx, "sid-1"))
	ok, err = users.TouchSession(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = users.SessionUser(ctx, "sid-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, users.RotateSession(ctx, "sid-1", "sid-2", cleo))
	ok, err = users.TouchSession(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, ok)
	u, err := users.SessionUser(ctx, "sid-2")
	require.NoError(t, err)
	assert.Equal(t, "cleo", u.Username)

	require.NoError(t, users.DeleteSession(ctx, "sid-2"))
	_, err = users.SessionUser(ctx, "sid-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepo_DeleteUserSessionsKeepsOne(t *testing.T) {
	db := seededDB(t)
	users := repos.NewUserRepo(db)
	ctx := context.Background()
	cleo := userID(t, db, "cleo")

	for _, sid := range []string{"a", "b", "c"} {
		require.NoError(t, users.RotateSession(ctx, "", sid, cleo))
	}
	require.NoError(t, users.DeleteUserSessions(ctx, cleo, "b"))

	var left []string
	require.NoError(t, db.Select(&left, `SELECT id FROM sessions WHERE user_id = ?`, cleo))
	assert.Equal(t, []string{"b"}, left)
}

func TestUserRepo_PruneSessions(t *testing.T) {
	db := seededDB(t)
	users := repos.NewUserRepo(db)
	ctx := context.Background()

	require.NoError(t, users.CreateSession(ctx, "stale"))
	require.NoError(t, users.CreateSession(ctx, "fresh"))
	_, err := db.Exec(`UPDATE sessions SET last_seen = datetime('now', '-10 days') WHERE id = 'stale'`)
	require.NoError(t, err)

	n, err := users.PruneSessions(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err := users.TouchSession(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = users.TouchSession(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNotificationRepo_MarkReadOwnerOnly(t *testing.T) {
	db := seededDB(t)
	ctx := context.Background()
	cleo, ada, ben := userID(t, db, "cleo"), userID(t, db, "ada"), userID(t, db, "ben")

	orderID, err := repos.NewOrderRepo(db).Commit(ctx, sampleDraft(cleo, ada))
	require.NoError(t, err)
	notes := repos.NewNotificationRepo(db)
	list, err := notes.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.ErrorIs(t, notes.MarkRead(ctx, list[0].ID, ben), sql.ErrNoRows)
	require.NoError(t, notes.MarkRead(ctx, list[0].ID, ada))

	unread, err := notes.UnreadCount(ctx, ada)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

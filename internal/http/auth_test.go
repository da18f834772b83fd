package http_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordsSeededAreHashed(t *testing.T) {
	_, db := newApp(t)
	var hashes []string
	require.NoError(t, db.Select(&hashes, `SELECT password_hash FROM users`))
	require.NotEmpty(t, hashes)
	for _, h := range hashes {
		assert.True(t, strings.HasPrefix(h, "$2"), "not a bcrypt hash: %q", h)
		assert.NotEqual(t, "Passw0rd!", h)
	}
}

func TestLogin_SuccessFailureAndThrottle(t *testing.T) {
	app, _ := newApp(t)
	cl := newClient(t, app)

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp = cl.post("/login", url.Values{"login": {"cleo"}, "password": {"wrong-Passw0rd!"}})
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Invalid username or password")
	e, ok := findLog(entries, "auth.login.fail")
	require.True(t, ok)
	assert.Equal(t, "security", e.Kind)

	// login by email, case-insensitive, lands on the requested page
	resp = cl.post("/login", url.Values{"login": {"CLEO@bazaar.test"}, "password": {"Passw0rd!"}, "next": {"/orders"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/orders", resp.Header.Get("Location"))
	_, body := cl.follow(resp)
	assert.Contains(t, body, "Welcome back, cleo!")

	// an off-site next is ignored
	resp = cl.post("/login", url.Values{"login": {"cleo"}, "password": {"Passw0rd!"}, "next": {"//evil.test/x"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	for i := 0; i < 2; i++ {
		cl.post("/login", url.Values{"login": {"cleo"}, "password": {"nope-Passw0rd!"}})
	}
	entries = captureLogs(t, func() {
		resp = cl.post("/login", url.Values{"login": {"cleo"}, "password": {"Passw0rd!"}})
	})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	_, ok = findLog(entries, "rate.login.hit")
	assert.True(t, ok)
}

func TestLogin_RoleLandingPages(t *testing.T) {
	app, _ := newApp(t)

	mk := newClient(t, app)
	resp := mk.post("/login", url.Values{"login": {"ada"}, "password": {"Passw0rd!"}})
	assert.Equal(t, "/marketer", resp.Header.Get("Location"))

	ad := newClient(t, app)
	resp = ad.post("/login", url.Values{"login": {"admin"}, "password": {"Adm1n!pass"}})
	assert.Equal(t, "/admin", resp.Header.Get("Location"))
}

func TestRegister_MarketerWaitsForApproval(t *testing.T) {
	app, db := newApp(t)
	cl := newClient(t, app)

	form := url.Values{
		"username": {"femi"},
		"email":    {"Femi@Example.com"},
		"password": {"Str0ng!pass"},
		"confirm":  {"Str0ng!pass"},
		"role":     {"marketer"},
	}
	resp := cl.post("/register", form)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	_, body := cl.follow(resp)
	assert.Contains(t, body, "must approve marketer accounts")

	var email string
	require.NoError(t, db.Get(&email, `SELECT email FROM users WHERE username = 'femi'`))
	assert.Equal(t, "femi@example.com", email)

	resp = cl.post("/login", url.Values{"login": {"femi"}, "password": {"Str0ng!pass"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "awaiting admin approval")

	// an admin approves the account
	admin := newClient(t, app)
	admin.post("/login", url.Values{"login": {"admin"}, "password": {"Adm1n!pass"}})
	var id string
	require.NoError(t, db.Get(&id, `SELECT id FROM users WHERE username = 'femi'`))
	resp = admin.post("/admin/approvals", url.Values{"action": {"approve"}, "ids": {id}})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp = cl.post("/login", url.Values{"login": {"femi"}, "password": {"Str0ng!pass"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/marketer", resp.Header.Get("Location"))
}

func TestRegister_ValidationErrors(t *testing.T) {
	app, db := newApp(t)
	cl := newClient(t, app)

	resp := cl.post("/register", url.Values{
		"username": {"x"},
		"email":    {"not-an-email"},
		"password": {"weak"},
		"confirm":  {"other"},
		"role":     {"admin"},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Username must be 3-30")
	assert.Contains(t, body, "Email must be a valid email address")
	assert.Contains(t, body, "Role must be one of")

	resp = cl.post("/register", url.Values{
		"username": {"cleo"},
		"email":    {"new@bazaar.test"},
		"password": {"Str0ng!pass"},
		"confirm":  {"Str0ng!pass"},
		"role":     {"customer"},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "already registered")

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM users WHERE email = 'new@bazaar.test'`))
	assert.Zero(t, n)
}

func TestLogout_ForgetsUser(t *testing.T) {
	app, _ := newApp(t)
	cl := newClient(t, app)
	cl.login("cleo")

	resp, _ := cl.get("/orders")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = cl.post("/logout", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, _ = cl.get("/orders")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login"))
}

func TestSession_IssuedByServerAndRotatedOnLogin(t *testing.T) {
	app, db := newApp(t)
	cl := newClient(t, app)

	// a sid the server never issued is replaced
	cl.cookies["sid"] = "chosen-by-someone-else"
	cl.get("/")
	require.NotEmpty(t, cl.cookies["sid"])
	assert.NotEqual(t, "chosen-by-someone-else", cl.cookies["sid"])
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM sessions WHERE id = 'chosen-by-someone-else'`))
	assert.Zero(t, n)

	cl.addToCart("1", "2")
	anon := cl.cookies["sid"]
	cl.login("cleo")
	assert.NotEqual(t, anon, cl.cookies["sid"])

	_, body := cl.get("/cart")
	assert.Contains(t, body, "Ankara Shirt")
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM cart_items WHERE cart_id = ?`, anon))
	assert.Zero(t, n)

	// whoever kept the pre-login sid is not signed in as cleo
	other := newClient(t, app)
	other.cookies["sid"] = anon
	resp, _ := other.get("/orders")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login"))
	assert.NotEqual(t, anon, other.cookies["sid"])

	resp, _ = cl.get("/orders")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

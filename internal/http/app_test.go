package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"bazaar/internal/config"
	apphttp "bazaar/internal/http"
	applog "bazaar/internal/log"
	"bazaar/internal/repos"
)

// newApp serves the demo marketplace from an in-memory database with the SQL
// cart store and the global rate limiter off.
func newApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	return newAppWith(t, config.Config{})
}

func newAppWith(t *testing.T, cfg config.Config) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, repos.EnsureAdmin(ctx, db, "admin", "admin@bazaar.test", "Adm1n!pass"))
	require.NoError(t, repos.SeedDemo(ctx, db))
	return apphttp.New(cfg, db, repos.NewCartRepo(db)), db
}

// client is a browser stand-in: it keeps cookies between requests and knows
// the current CSRF token.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func newClient(t *testing.T, app *fiber.App) *client {
	return &client{t: t, app: app, cookies: map[string]string{}}
}

func (cl *client) do(req *http.Request) *http.Response {
	cl.t.Helper()
	for k, v := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := cl.app.Test(req, -1)
	require.NoError(cl.t, err)
	for _, ck := range resp.Cookies() {
		if ck.Value == "" || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
			delete(cl.cookies, ck.Name)
			continue
		}
		cl.cookies[ck.Name] = ck.Value
	}
	return resp
}

func (cl *client) get(path string) (*http.Response, string) {
	cl.t.Helper()
	resp := cl.do(httptest.NewRequest(http.MethodGet, path, nil))
	return resp, readBody(cl.t, resp)
}

// post submits a form, adding the CSRF token first fetched from GET /login.
func (cl *client) post(path string, form url.Values) *http.Response {
	cl.t.Helper()
	if cl.cookies["csrf_"] == "" {
		cl.get("/login")
		require.NotEmpty(cl.t, cl.cookies["csrf_"], "csrf cookie missing")
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", cl.cookies["csrf_"])
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return cl.do(req)
}

// follow fetches the Location of a redirect.
func (cl *client) follow(resp *http.Response) (*http.Response, string) {
	cl.t.Helper()
	require.Equal(cl.t, http.StatusFound, resp.StatusCode)
	return cl.get(resp.Header.Get("Location"))
}

func (cl *client) login(username string) {
	cl.t.Helper()
	resp := cl.post("/login", url.Values{"login": {username}, "password": {"Passw0rd!"}})
	require.Equal(cl.t, http.StatusFound, resp.StatusCode, "login as %s", username)
}

func (cl *client) addToCart(productID string, qty string) {
	cl.t.Helper()
	resp := cl.post("/cart/add", url.Values{"product_id": {productID}, "qty": {qty}})
	require.Equal(cl.t, http.StatusFound, resp.StatusCode)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

type logEntry struct {
	Msg    string         `json:"msg"`
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Kind   string         `json:"kind"`
	Status int            `json:"status"`
	UserID int64          `json:"user_id"`
	Fields map[string]any `json:"fields"`
	Err    string         `json:"err"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs runs fn with the application logger writing into a buffer and
// returns the decoded entries.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf lockedBuf
	restore := applog.SetOutput(&buf)
	defer restore()

	fn()

	var out []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		if line == "" {
			continue
		}
		var e logEntry
		require.NoError(t, json.Unmarshal([]byte(line), &e), line)
		out = append(out, e)
	}
	return out
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

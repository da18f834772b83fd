package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/products/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "nope") })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/products/:id", "200"))

	for _, id := range []string{"1", "2", "3"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/products/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	}
	_, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)

	assert.Equal(t, before+3, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/boom", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(httpRequestsInFlight))
}

func TestMiddleware_LabelsSurviveLaterRequests(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/labels/a", func(c *fiber.Ctx) error { return c.SendString("a") })
	app.Post("/labels/b", func(c *fiber.Ctx) error { return c.SendString("b") })

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/labels/b", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		resp, err = app.Test(httptest.NewRequest("GET", "/labels/a", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	}

	assert.Equal(t, 5.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/labels/b", "200")))
	assert.Equal(t, 5.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/labels/a", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GETT", "/labels/b", "200")))

	// a scrape fails when two series end up with the same labels
	_, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
}

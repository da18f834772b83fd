package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bazaar_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bazaar_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	// CartLinesEvicted counts cart lines dropped because their product was
	// deleted or deactivated.
	CartLinesEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazaar_cart_lines_evicted_total",
		Help: "Cart lines removed during reconciliation",
	})

	OrdersCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazaar_orders_committed_total",
		Help: "Orders persisted by checkout",
	})

	OrderCommitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazaar_order_commit_failures_total",
		Help: "Checkout transactions that were rolled back",
	})

	NotificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazaar_notifications_created_total",
		Help: "Shop owner notifications created for new orders",
	})
)

// Middleware records count, latency and in-flight requests. The path label is
// the matched route pattern so ids do not explode cardinality.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		if path == "" || path == "/" && c.Path() != "/" {
			path = "unknown"
		}
		// fasthttp reuses the request buffer; labels outlive the request.
		labels := []string{utils.CopyString(c.Method()), utils.CopyString(path), strconv.Itoa(status)}
		httpRequestsTotal.WithLabelValues(labels...).Inc()
		httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return err
	}
}

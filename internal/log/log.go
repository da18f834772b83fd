package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout, slog.LevelInfo)
)

func newLogger(w io.Writer, lvl slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the process-wide logger.
func Setup(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w, parseLevel(level))
}

// SetOutput redirects entries to w at info level and returns a func restoring
// the previous logger.
func SetOutput(w io.Writer) (restore func()) {
	mu.Lock()
	prev := logger
	logger = newLogger(w, slog.LevelInfo)
	mu.Unlock()
	return func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	}
}

// Logger returns the current process logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

type userIDer interface{ LogUserID() int64 }

func write(level slog.Level, kind string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	attrs := make([]slog.Attr, 0, 10)
	attrs = append(attrs, slog.String("action", action))
	if kind != "" {
		attrs = append(attrs, slog.String("kind", kind))
	}
	if c != nil {
		attrs = append(attrs,
			slog.String("ip", c.IP()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			attrs = append(attrs, slog.String("req_id", rid))
		}
		if u, ok := c.Locals("user").(userIDer); ok {
			attrs = append(attrs, slog.Int64("user_id", u.LogUserID()))
		}
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	if len(fields) > 0 {
		fa := make([]any, 0, len(fields))
		for k, v := range fields {
			fa = append(fa, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("fields", fa...))
	}
	Logger().LogAttrs(context.Background(), level, action, attrs...)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(slog.LevelInfo, "", c, action, nil, fields)
}

// Audit records a state change made by a user (order placed, status changed, ...).
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(slog.LevelInfo, "audit", c, action, nil, fields)
}

// Security records denied access, failed logins and rejected input.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(slog.LevelWarn, "security", c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(slog.LevelError, "", c, action, err, fields)
}

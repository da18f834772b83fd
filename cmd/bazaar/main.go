package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"bazaar/internal/config"
	apphttp "bazaar/internal/http"
	applog "bazaar/internal/log"
	"bazaar/internal/repos"
	"bazaar/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	// Optional file logging
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			slog.Warn("could not open log file", "path", cfg.LogFile, "err", err)
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	applog.Setup(out, cfg.LogLevel)
	logger := applog.Logger()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		logger.Error("open db", "dsn", cfg.DBDSN, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := repos.EnsureAdmin(ctx, db, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("bootstrap admin", "err", err)
		os.Exit(1)
	}
	if cfg.SeedDemo {
		if err := repos.SeedDemo(ctx, db); err != nil {
			logger.Error("seed demo data", "err", err)
			os.Exit(1)
		}
	}

	carts, closeCarts, err := cartStore(ctx, cfg, db)
	if err != nil {
		logger.Error("cart store", "kind", cfg.CartStore, "err", err)
		os.Exit(1)
	}
	defer closeCarts()

	prune(ctx, logger, db, cfg.CartTTL)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		t := time.NewTicker(time.Hour)
		defer t.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-t.C:
				prune(sweepCtx, logger, db, cfg.CartTTL)
			}
		}
	}()

	app := apphttp.New(cfg, db, carts)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	logger.Info("listening", "port", cfg.Port, "cart_store", cfg.CartStore)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("listen", "err", err)
		os.Exit(1)
	}
}

// prune drops SQL carts and sessions idle for longer than ttl. Redis carts
// expire on their own.
func prune(ctx context.Context, logger *slog.Logger, db *sqlx.DB, ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	carts, err := repos.NewCartRepo(db).Prune(ctx, cutoff)
	if err != nil {
		logger.Error("prune carts", "err", err)
	}
	sessions, err := repos.NewUserRepo(db).PruneSessions(ctx, cutoff)
	if err != nil {
		logger.Error("prune sessions", "err", err)
	}
	logger.Info("pruned idle state", "carts", carts, "sessions", sessions)
}

// cartStore returns the session cart backend selected by CART_STORE.
func cartStore(ctx context.Context, cfg config.Config, db *sqlx.DB) (services.CartStore, func(), error) {
	if cfg.CartStore != "redis" {
		return repos.NewCartRepo(db), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return repos.NewRedisCartStore(client, cfg.CartTTL), func() { _ = client.Close() }, nil
}

package repos

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	applog "bazaar/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// OpenDB opens the SQLite database and brings the schema up to date.
// SQLite serialises writers anyway; a single connection keeps ":memory:"
// databases and per-connection pragmas consistent.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		return nil, fmt.Errorf("sqlite pragmas: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// sqliteTime formats t the way CURRENT_TIMESTAMP does.
func sqliteTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// Migrate applies the embedded migrations.
func Migrate(db *sqlx.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin account if no user has that username.
// Safe to run on every startup.
func EnsureAdmin(ctx context.Context, db *sqlx.DB, username, email, password string) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE username = ?`, username); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO users(username, email, password_hash, role, is_approved)
		VALUES(?, ?, ?, 'admin', 1)
		ON CONFLICT DO NOTHING
	`, username, email, string(h))
	if err == nil {
		applog.Info(nil, "seed.admin", map[string]any{"username": username})
	}
	return err
}

// SeedDemo inserts a small demo marketplace when the database has no shops.
// Every seeded account uses the password "Passw0rd!".
func SeedDemo(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM shops`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.Info(nil, "seed.demo", nil)

	h, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	users := []struct{ username, email, role string }{
		{"ada", "ada@bazaar.test", "marketer"},
		{"ben", "ben@bazaar.test", "marketer"},
		{"cleo", "cleo@bazaar.test", "customer"},
		{"dara", "dara@bazaar.test", "customer"},
	}
	ids := map[string]int64{}
	for _, u := range users {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO users(username, email, password_hash, role, is_approved)
			VALUES(?, ?, ?, ?, 1)
		`, u.username, u.email, string(h), u.role)
		if err != nil {
			return err
		}
		ids[u.username], _ = res.LastInsertId()
	}

	stmts := []struct {
		q    string
		args []any
	}{
		{`INSERT INTO categories(id, name) VALUES (1, 'Fashion'), (2, 'Food'), (3, 'Electronics')`, nil},
		{`INSERT INTO shops(id, user_id, name, slug, description, location, whatsapp_number) VALUES
		  (1, ?, 'Ada Threads', 'ada-threads', 'Hand-made clothing', 'Lagos', '08031234567'),
		  (2, ?, 'Ada Kitchen', 'ada-kitchen', 'Home cooked meals', 'Lagos', '08031234567'),
		  (3, ?, 'Ben Gadgets', 'ben-gadgets', 'Phones and accessories', 'Abuja', '08039876543')`,
			[]any{ids["ada"], ids["ada"], ids["ben"]}},
		{`INSERT INTO categories(id, name, shop_id) VALUES (4, 'Shirts', 1), (5, 'Chargers', 3)`, nil},
		{`INSERT INTO products(id, shop_id, category_id, name, description, price, image, is_active) VALUES
		  (1, 1, 4, 'Ankara Shirt', 'Cotton, size M', '500', '', 1),
		  (2, 1, NULL, 'Aso Oke Cap', 'Woven cap', '250', '', 1),
		  (3, 2, NULL, 'Jollof Tray', 'Serves four', '1000', '', 1),
		  (4, 3, 5, 'USB-C Charger', '20W fast charger', '1500', '', 1),
		  (5, 3, NULL, 'Old Feature Phone', 'Discontinued', '800', '', 0)`, nil},
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.q, s.args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

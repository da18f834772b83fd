package domain

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Shop struct {
	ID             int64          `db:"id"`
	UserID         int64          `db:"user_id"`
	Name           string         `db:"name"`
	Slug           string         `db:"slug"`
	Description    string         `db:"description"`
	Location       string         `db:"location"`
	WhatsappNumber string         `db:"whatsapp_number"`
	Logo           sql.NullString `db:"logo"`
	CreatedAt      string         `db:"created_at"`
}

// Category is global when ShopID is NULL, otherwise it belongs to one shop.
type Category struct {
	ID     int64         `db:"id"`
	Name   string        `db:"name"`
	ShopID sql.NullInt64 `db:"shop_id"`
}

type Product struct {
	ID          int64           `db:"id"`
	ShopID      int64           `db:"shop_id"`
	CategoryID  sql.NullInt64   `db:"category_id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Image       string          `db:"image"`
	IsActive    bool            `db:"is_active"`
	CreatedAt   string          `db:"created_at"`
	UpdatedAt   string          `db:"updated_at"`
}

// CatalogProduct is the read-only view of a product the cart flow needs:
// whether it can still be sold and whose shop it belongs to.
type CatalogProduct struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Price       decimal.Decimal `db:"price"`
	Image       string          `db:"image"`
	IsActive    bool            `db:"is_active"`
	ShopID      int64           `db:"shop_id"`
	ShopOwnerID int64           `db:"shop_owner_id"`
}

type Rating struct {
	ID        int64          `db:"id"`
	ProductID int64          `db:"product_id"`
	UserID    int64          `db:"user_id"`
	ShopID    int64          `db:"shop_id"`
	Value     int            `db:"value"`
	Comment   sql.NullString `db:"comment"`
	CreatedAt string         `db:"created_at"`
}

// RatingSummary is the average (rounded to 2 places) and count of ratings.
type RatingSummary struct {
	Average float64
	Count   int
}

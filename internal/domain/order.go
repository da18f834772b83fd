package domain

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
)

// OrderStatuses lists the allowed statuses in workflow order.
var OrderStatuses = []string{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled}

func ValidStatus(s string) bool {
	for _, st := range OrderStatuses {
		if st == s {
			return true
		}
	}
	return false
}

type Order struct {
	ID         int64           `db:"id"`
	CustomerID int64           `db:"customer_id"`
	Customer   string          `db:"customer"`
	TotalPrice decimal.Decimal `db:"total_price"`
	Status     string          `db:"status"`
	CreatedAt  string          `db:"created_at"`
	UpdatedAt  string          `db:"updated_at"`
}

type OrderItem struct {
	ID              int64           `db:"id"`
	OrderID         int64           `db:"order_id"`
	ProductID       sql.NullInt64   `db:"product_id"`
	ShopID          sql.NullInt64   `db:"shop_id"`
	ShopName        string          `db:"shop_name"`
	ProductName     string          `db:"product_name"`
	Quantity        int             `db:"quantity"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Notification struct {
	ID        int64         `db:"id"`
	UserID    int64         `db:"user_id"`
	OrderID   sql.NullInt64 `db:"order_id"`
	Message   string        `db:"message"`
	Link      string        `db:"link"`
	IsRead    bool          `db:"is_read"`
	CreatedAt string        `db:"created_at"`
}

// OrderDraft is everything the committer persists in one transaction.
type OrderDraft struct {
	CustomerID int64
	TotalPrice decimal.Decimal
	Items      []DraftItem
	// Recipients get one notification each; Notify renders its text once the
	// order id is known.
	Recipients []int64
	Notify     func(orderID int64) (message, link string)
}

type DraftItem struct {
	ProductID       int64
	ShopID          int64
	ProductName     string
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

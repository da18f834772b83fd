package domain

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// CartLine is one product entry in a visitor's cart. UnitPrice is the price
// captured when the product was first added and is never re-read from the catalog.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
}

func (l CartLine) Key() string { return CartKey(l.ProductID) }

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartKey is the cart key for a product id.
func CartKey(productID int64) string { return strconv.FormatInt(productID, 10) }

// ParseCartKey returns the product id encoded in a cart key.
func ParseCartKey(key string) (int64, bool) {
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Cart is an insertion-ordered mapping from cart key to line. It tracks whether
// it was modified since it was loaded so callers know when to persist it.
type Cart struct {
	keys  []string
	lines map[string]CartLine
	dirty bool
}

func NewCart() *Cart {
	return &Cart{lines: map[string]CartLine{}}
}

// RestoreCart builds a clean cart from stored lines, keeping their order.
func RestoreCart(lines []CartLine) *Cart {
	c := NewCart()
	for _, l := range lines {
		k := l.Key()
		if _, ok := c.lines[k]; ok {
			continue
		}
		c.keys = append(c.keys, k)
		c.lines[k] = l
	}
	return c
}

func (c *Cart) Len() int      { return len(c.keys) }
func (c *Cart) IsEmpty() bool { return len(c.keys) == 0 }
func (c *Cart) Dirty() bool   { return c.dirty }
func (c *Cart) MarkClean()    { c.dirty = false }

func (c *Cart) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c *Cart) Line(key string) (CartLine, bool) {
	l, ok := c.lines[key]
	return l, ok
}

// Lines returns the lines in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.lines[k])
	}
	return out
}

// ItemCount is the sum of quantities.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Add appends a line or, when the product is already in the cart, adds to its
// quantity and keeps the original price snapshot.
func (c *Cart) Add(line CartLine) {
	if line.Quantity < 1 {
		return
	}
	k := line.Key()
	if cur, ok := c.lines[k]; ok {
		cur.Quantity += line.Quantity
		c.lines[k] = cur
	} else {
		c.keys = append(c.keys, k)
		c.lines[k] = line
	}
	c.dirty = true
}

// SetQuantity replaces a line's quantity; qty < 1 removes the line.
// It reports whether the key was present.
func (c *Cart) SetQuantity(key string, qty int) bool {
	cur, ok := c.lines[key]
	if !ok {
		return false
	}
	if qty < 1 {
		return c.Remove(key)
	}
	if cur.Quantity != qty {
		cur.Quantity = qty
		c.lines[key] = cur
		c.dirty = true
	}
	return true
}

// Remove deletes a line. Removing an absent key is a no-op and leaves the cart clean.
func (c *Cart) Remove(key string) bool {
	if _, ok := c.lines[key]; !ok {
		return false
	}
	delete(c.lines, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
	c.dirty = true
	return true
}

func (c *Cart) Clear() {
	if len(c.keys) == 0 {
		return
	}
	c.keys = nil
	c.lines = map[string]CartLine{}
	c.dirty = true
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Lines())
}

func (c *Cart) UnmarshalJSON(b []byte) error {
	var lines []CartLine
	if err := json.Unmarshal(b, &lines); err != nil {
		return err
	}
	*c = *RestoreCart(lines)
	return nil
}

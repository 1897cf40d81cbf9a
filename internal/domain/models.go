package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ItemKey is the composite identity of a ledger item. Two records naming the
// same product with different casing or stray whitespace collide into one key.
type ItemKey struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Size  string `json:"size"`
	Brand string `json:"brand"`
}

func normField(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NewItemKey builds a normalized key. Empty fields stay empty.
func NewItemKey(name, color, size, brand string) ItemKey {
	return ItemKey{
		Name:  normField(name),
		Color: normField(color),
		Size:  normField(size),
		Brand: normField(brand),
	}
}

// Label renders the key for humans, skipping empty fields.
func (k ItemKey) Label() string {
	parts := make([]string, 0, 4)
	for _, f := range []string{k.Brand, k.Color, k.Name, k.Size} {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

// Item is a ledger record. Quantity is never negative; only the ledger
// mutates it.
type Item struct {
	Name     string          `json:"name"`
	Color    string          `json:"color"`
	Category string          `json:"category"`
	Brand    string          `json:"brand"`
	Size     string          `json:"size"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Key returns the normalized identity of the item.
func (it Item) Key() ItemKey {
	return NewItemKey(it.Name, it.Color, it.Size, it.Brand)
}

// Order is a validated, stock-decrementing request for one item. Price is
// snapshotted at order time; invoices reflect price-at-purchase, not current
// price. Immutable once created.
type Order struct {
	ID        string          `json:"id"`
	Item      ItemKey         `json:"item"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// Subtotal is quantity × price snapshot.
func (o Order) Subtotal() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(int64(o.Quantity)))
}

// Invoice is an immutable, totaled summary of one or more orders.
// Regenerating a "final" invoice means building a new one.
type Invoice struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"timestamp"`
	Orders    []Order         `json:"orders"`
	Total     decimal.Decimal `json:"total"`
}

// User is an operator account used by the form UI.
type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
}

package repos

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"stockdesk/internal/domain"
)

// ArchiveRepo persists orders and invoices to the sqlite archive.
type ArchiveRepo struct{ db *sqlx.DB }

func NewArchiveRepo(db *sqlx.DB) *ArchiveRepo { return &ArchiveRepo{db: db} }

type orderRow struct {
	ID        string `db:"id"`
	ItemName  string `db:"item_name"`
	ItemColor string `db:"item_color"`
	ItemSize  string `db:"item_size"`
	ItemBrand string `db:"item_brand"`
	Qty       int    `db:"qty"`
	Price     string `db:"price"`
	CreatedAt string `db:"created_at"`
}

func (r orderRow) toDomain() (domain.Order, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return domain.Order{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	return domain.Order{
		ID:        r.ID,
		Item:      domain.NewItemKey(r.ItemName, r.ItemColor, r.ItemSize, r.ItemBrand),
		Quantity:  r.Qty,
		Price:     price,
		CreatedAt: ts,
	}, nil
}

// mapConstraint turns a sqlite uniqueness violation into the domain error.
func mapConstraint(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrDuplicateKey
	}
	return err
}

// SaveOrder archives a single order. Re-archiving an id that already
// exists fails with ErrDuplicateKey.
func (r *ArchiveRepo) SaveOrder(o domain.Order) error {
	_, err := r.db.Exec(`
	  INSERT INTO orders(id, item_name, item_color, item_size, item_brand, qty, price, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.Item.Name, o.Item.Color, o.Item.Size, o.Item.Brand,
		o.Quantity, o.Price.String(), o.CreatedAt.Format(time.RFC3339Nano))
	return mapConstraint(err)
}

// SaveInvoice archives an invoice and its order links in one transaction.
// Orders already archived at placement time are left untouched.
func (r *ArchiveRepo) SaveInvoice(inv domain.Invoice) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO invoices(id, total, created_at) VALUES(?, ?, ?)
	`, inv.ID, inv.Total.String(), inv.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return mapConstraint(err)
	}

	for i, o := range inv.Orders {
		if _, err := tx.Exec(`
		  INSERT OR IGNORE INTO orders(id, item_name, item_color, item_size, item_brand, qty, price, created_at)
		  VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		`, o.ID, o.Item.Name, o.Item.Color, o.Item.Size, o.Item.Brand,
			o.Quantity, o.Price.String(), o.CreatedAt.Format(time.RFC3339Nano)); err != nil {
			return err
		}
		if _, err := tx.Exec(`
		  INSERT INTO invoice_orders(invoice_id, order_id, position) VALUES(?, ?, ?)
		`, inv.ID, o.ID, i); err != nil {
			return mapConstraint(err)
		}
	}

	return tx.Commit()
}

// ListOrders returns the most recently archived orders, newest first.
func (r *ArchiveRepo) ListOrders(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []orderRow
	if err := r.db.Select(&rows, `
		SELECT id, item_name, item_color, item_size, item_brand, qty, price, created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT ?
	`, limit); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// GetInvoice reloads an archived invoice with its orders in original
// position order.
func (r *ArchiveRepo) GetInvoice(id string) (domain.Invoice, error) {
	var hdr struct {
		ID        string `db:"id"`
		Total     string `db:"total"`
		CreatedAt string `db:"created_at"`
	}
	if err := r.db.Get(&hdr, `SELECT id, total, created_at FROM invoices WHERE id = ?`, id); err != nil {
		return domain.Invoice{}, err
	}
	total, err := decimal.NewFromString(hdr.Total)
	if err != nil {
		return domain.Invoice{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, hdr.CreatedAt)
	if err != nil {
		return domain.Invoice{}, err
	}

	var rows []orderRow
	if err := r.db.Select(&rows, `
		SELECT o.id, o.item_name, o.item_color, o.item_size, o.item_brand, o.qty, o.price, o.created_at
		FROM invoice_orders io
		JOIN orders o ON o.id = io.order_id
		WHERE io.invoice_id = ?
		ORDER BY io.position
	`, id); err != nil {
		return domain.Invoice{}, err
	}
	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		o, err := row.toDomain()
		if err != nil {
			return domain.Invoice{}, err
		}
		orders = append(orders, o)
	}

	return domain.Invoice{ID: hdr.ID, CreatedAt: ts, Orders: orders, Total: total}, nil
}

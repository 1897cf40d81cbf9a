package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockdesk/internal/domain"
)

// BuildInvoice aggregates one or more orders into a totaled, timestamped
// invoice value. It owns no state and never touches the order log; clearing
// the log is a caller decision made after the invoice has been persisted.
// An empty order set is rejected: an invoice covers at least one order.
func BuildInvoice(orders []domain.Order) (domain.Invoice, error) {
	if len(orders) == 0 {
		return domain.Invoice{}, domain.ErrInvalidInput
	}

	lines := make([]domain.Order, len(orders))
	copy(lines, orders)

	total := decimal.Zero
	for _, o := range lines {
		total = total.Add(o.Subtotal())
	}

	return domain.Invoice{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Orders:    lines,
		Total:     total,
	}, nil
}

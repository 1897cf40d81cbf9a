package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"stockdesk/internal/domain"
	applog "stockdesk/internal/log"
	"stockdesk/internal/repos"
)

// OrderService validates requested orders against the ledger, decrements
// stock, and owns the append-only order log. The in-memory log is the
// authoritative record; the sqlite archive is a write-behind copy whose
// failures are logged, never propagated.
type OrderService struct {
	Ledger  *StockLedger
	Archive *repos.ArchiveRepo

	mu  sync.Mutex
	log []domain.Order
}

func NewOrderService(ledger *StockLedger, archive *repos.ArchiveRepo) *OrderService {
	return &OrderService{Ledger: ledger, Archive: archive}
}

// Place is all-or-nothing: either it returns an Order and ledger quantity
// decreased by exactly qty, or it returns an error and the ledger is
// unchanged. The stock check, the decrement, and the price snapshot happen
// inside a single Ledger.Reduce call.
func (s *OrderService) Place(key domain.ItemKey, qty int) (domain.Order, error) {
	if qty <= 0 {
		return domain.Order{}, domain.ErrInvalidInput
	}

	it, err := s.Ledger.Reduce(key, qty)
	if err != nil {
		return domain.Order{}, err
	}

	o := domain.Order{
		ID:        uuid.NewString(),
		Item:      key,
		Quantity:  qty,
		Price:     it.Price,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.log = append(s.log, o)
	s.mu.Unlock()

	if s.Archive != nil {
		if err := s.Archive.SaveOrder(o); err != nil {
			applog.Error(nil, "order.archive.fail", err, map[string]any{"order_id": o.ID})
		}
	}
	return o, nil
}

// Orders returns a copy of the order log in append order.
func (s *OrderService) Orders() []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, len(s.log))
	copy(out, s.log)
	return out
}

// Find looks up a logged order by id.
func (s *OrderService) Find(id string) (domain.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.log {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

// ClearLog empties the order log. Callers invoke it only after an invoice
// built from the log has been persisted, so a failed persistence never
// drops order history.
func (s *OrderService) ClearLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = s.log[:0]
}

package services

import (
	"fmt"
	"iter"
	"sync"

	"github.com/shopspring/decimal"

	"stockdesk/internal/domain"
)

// StockLedger is the authoritative in-memory inventory. All mutation goes
// through its methods so the quantity invariant (never negative) holds under
// concurrent access. Insertion order of keys is preserved for listing.
type StockLedger struct {
	mu    sync.RWMutex
	items map[domain.ItemKey]*domain.Item
	order []domain.ItemKey
	dirty bool
}

func NewStockLedger() *StockLedger {
	return &StockLedger{items: make(map[domain.ItemKey]*domain.Item)}
}

// Add creates the item or merges into an existing one: quantity is additive,
// price and category follow the latest call. Rejects non-positive quantity
// and negative price.
func (l *StockLedger) Add(key domain.ItemKey, qty int, price decimal.Decimal, category string) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidInput, qty)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if it, ok := l.items[key]; ok {
		it.Quantity += qty
		it.Price = price
		if category != "" {
			it.Category = category
		}
	} else {
		l.items[key] = &domain.Item{
			Name:     key.Name,
			Color:    key.Color,
			Size:     key.Size,
			Brand:    key.Brand,
			Category: category,
			Quantity: qty,
			Price:    price,
		}
		l.order = append(l.order, key)
	}
	l.dirty = true
	return nil
}

// Restock increases the quantity of an existing item.
func (l *StockLedger) Restock(key domain.ItemKey, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidInput, qty)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[key]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, key.Label())
	}
	it.Quantity += qty
	l.dirty = true
	return nil
}

// Reduce decrements the quantity and returns a snapshot of the item as it
// stood right after the decrement. Check and decrement happen under one lock
// so concurrent reducers can never overdraw; a reduce that would go below
// zero is rejected whole, never partially filled.
func (l *StockLedger) Reduce(key domain.ItemKey, qty int) (domain.Item, error) {
	if qty <= 0 {
		return domain.Item{}, fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidInput, qty)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[key]
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: %s", domain.ErrNotFound, key.Label())
	}
	if it.Quantity < qty {
		return domain.Item{}, fmt.Errorf("%w: %s has %d, requested %d",
			domain.ErrInsufficientStock, key.Label(), it.Quantity, qty)
	}
	it.Quantity -= qty
	l.dirty = true
	return *it, nil
}

// Remove drops the item from the ledger entirely, whatever its quantity.
func (l *StockLedger) Remove(key domain.ItemKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.items[key]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, key.Label())
	}
	delete(l.items, key)
	for i, k := range l.order {
		if k == key {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.dirty = true
	return nil
}

// Get returns a copy of the item, if present.
func (l *StockLedger) Get(key domain.ItemKey) (domain.Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	it, ok := l.items[key]
	if !ok {
		return domain.Item{}, false
	}
	return *it, true
}

// Snapshot copies the ledger in insertion order.
func (l *StockLedger) Snapshot() []domain.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Item, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, *l.items[k])
	}
	return out
}

// List returns a restartable sequence over a point-in-time snapshot. The
// snapshot is taken lazily on first range, so a sequence obtained early still
// reflects the ledger as of when iteration starts.
func (l *StockLedger) List() iter.Seq[domain.Item] {
	return func(yield func(domain.Item) bool) {
		for _, it := range l.Snapshot() {
			if !yield(it) {
				return
			}
		}
	}
}

// Load replaces the ledger with the given items, re-normalizing keys.
// Loaded state counts as already flushed.
func (l *StockLedger) Load(items []domain.Item) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = make(map[domain.ItemKey]*domain.Item, len(items))
	l.order = l.order[:0]
	for _, it := range items {
		key := it.Key()
		it.Name, it.Color, it.Size, it.Brand = key.Name, key.Color, key.Size, key.Brand
		if existing, ok := l.items[key]; ok {
			existing.Quantity += it.Quantity
			existing.Price = it.Price
			if it.Category != "" {
				existing.Category = it.Category
			}
			continue
		}
		cp := it
		l.items[key] = &cp
		l.order = append(l.order, key)
	}
	l.dirty = false
}

func (l *StockLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Dirty reports whether the ledger has changed since the last flush.
func (l *StockLedger) Dirty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dirty
}

// Flushed marks the current state as persisted.
func (l *StockLedger) Flushed() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirty = false
}

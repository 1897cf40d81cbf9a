package services_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"stockdesk/internal/domain"
	"stockdesk/internal/repos"
	"stockdesk/internal/services"
)

func newOrderFixture(t *testing.T) (*services.StockLedger, *services.OrderService) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ledger := services.NewStockLedger()
	return ledger, services.NewOrderService(ledger, repos.NewArchiveRepo(db))
}

func TestOrderFlow_PlaceAndDecrement(t *testing.T) {
	ledger, orders := newOrderFixture(t)
	key := domain.NewItemKey("shirt", "red", "M", "Acme")
	if err := ledger.Add(key, 5, price(t, "10"), "apparel"); err != nil {
		t.Fatal(err)
	}

	o, err := orders.Place(key, 3)
	if err != nil {
		t.Fatal(err)
	}
	if o.ID == "" {
		t.Fatal("no order id")
	}
	if o.Quantity != 3 || !o.Price.Equal(price(t, "10")) {
		t.Fatalf("want qty=3 price=10 snapshot, got %+v", o)
	}
	if o.CreatedAt.IsZero() {
		t.Fatal("order must carry a timestamp")
	}

	if it, _ := ledger.Get(key); it.Quantity != 2 {
		t.Fatalf("want ledger qty=2, got %d", it.Quantity)
	}
	if got := orders.Orders(); len(got) != 1 || got[0].ID != o.ID {
		t.Fatalf("order log should hold the placed order, got %+v", got)
	}

	// write-behind archive received a copy
	archived, err := orders.Archive.ListOrders(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 1 || archived[0].ID != o.ID {
		t.Fatalf("archive should hold the order, got %+v", archived)
	}
}

func TestOrderFlow_PriceSnapshotSurvivesRepricing(t *testing.T) {
	ledger, orders := newOrderFixture(t)
	key := domain.NewItemKey("shirt", "", "", "")
	if err := ledger.Add(key, 10, price(t, "10"), ""); err != nil {
		t.Fatal(err)
	}

	o, err := orders.Place(key, 1)
	if err != nil {
		t.Fatal(err)
	}

	// reprice after the order; the snapshot must not move
	if err := ledger.Add(key, 1, price(t, "99"), ""); err != nil {
		t.Fatal(err)
	}
	if !o.Price.Equal(price(t, "10")) {
		t.Fatalf("snapshot changed: %s", o.Price)
	}
	if logged := orders.Orders(); !logged[0].Price.Equal(price(t, "10")) {
		t.Fatalf("logged snapshot changed: %s", logged[0].Price)
	}
}

func TestOrderFlow_InsufficientStockIsAllOrNothing(t *testing.T) {
	ledger, orders := newOrderFixture(t)
	key := domain.NewItemKey("shirt", "red", "", "")
	if err := ledger.Add(key, 2, price(t, "10"), ""); err != nil {
		t.Fatal(err)
	}

	if _, err := orders.Place(key, 10); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}
	if it, _ := ledger.Get(key); it.Quantity != 2 {
		t.Fatalf("failed order must leave qty unchanged, got %d", it.Quantity)
	}
	if len(orders.Orders()) != 0 {
		t.Fatal("failed order must not reach the log")
	}
}

func TestOrderFlow_UnknownItemAndBadQty(t *testing.T) {
	_, orders := newOrderFixture(t)

	if _, err := orders.Place(domain.NewItemKey("ghost", "", "", ""), 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if _, err := orders.Place(domain.NewItemKey("ghost", "", "", ""), 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestOrderFlow_ConcurrentPlacement(t *testing.T) {
	ledger := services.NewStockLedger()
	orders := services.NewOrderService(ledger, nil)
	key := domain.NewItemKey("shirt", "", "", "")

	initialStock := 20
	totalRequests := 50
	if err := ledger.Add(key, initialStock, price(t, "10"), ""); err != nil {
		t.Fatal(err)
	}

	var success atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := orders.Place(key, 1); err == nil {
				success.Add(1)
			}
		}()
	}
	wg.Wait()

	if success.Load() != int32(initialStock) {
		t.Errorf("want %d successes, got %d", initialStock, success.Load())
	}
	if it, _ := ledger.Get(key); it.Quantity != 0 {
		t.Errorf("want qty=0, got %d", it.Quantity)
	}
	if len(orders.Orders()) != initialStock {
		t.Errorf("want %d logged orders, got %d", initialStock, len(orders.Orders()))
	}
}

func TestOrderFlow_ClearLog(t *testing.T) {
	ledger := services.NewStockLedger()
	orders := services.NewOrderService(ledger, nil)
	key := domain.NewItemKey("shirt", "", "", "")
	if err := ledger.Add(key, 5, price(t, "10"), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := orders.Place(key, 1); err != nil {
		t.Fatal(err)
	}

	orders.ClearLog()
	if len(orders.Orders()) != 0 {
		t.Fatal("log should be empty after ClearLog")
	}
	// clearing the log does not touch the ledger
	if it, _ := ledger.Get(key); it.Quantity != 4 {
		t.Fatalf("want qty=4, got %d", it.Quantity)
	}
}

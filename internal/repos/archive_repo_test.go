package repos_test

import (
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"stockdesk/internal/domain"
	"stockdesk/internal/repos"
)

func memArchive(t *testing.T) *repos.ArchiveRepo {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return repos.NewArchiveRepo(db)
}

func order(t *testing.T, id string, qty int, priceStr string) domain.Order {
	t.Helper()
	return domain.Order{
		ID:        id,
		Item:      domain.NewItemKey("shirt", "red", "m", "acme"),
		Quantity:  qty,
		Price:     d(t, priceStr),
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestArchiveSaveOrderAndList(t *testing.T) {
	a := memArchive(t)
	o := order(t, "o1", 3, "9.99")
	if err := a.SaveOrder(o); err != nil {
		t.Fatal(err)
	}

	got, err := a.ListOrders(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 order, got %d", len(got))
	}
	if got[0].ID != "o1" || got[0].Quantity != 3 || !got[0].Price.Equal(d(t, "9.99")) {
		t.Fatalf("round trip mismatch: %+v", got[0])
	}
	if got[0].Item != o.Item {
		t.Fatalf("item key mismatch: %+v vs %+v", got[0].Item, o.Item)
	}
}

func TestArchiveDuplicateOrderID(t *testing.T) {
	a := memArchive(t)
	o := order(t, "o1", 1, "5")
	if err := a.SaveOrder(o); err != nil {
		t.Fatal(err)
	}
	if err := a.SaveOrder(o); !errors.Is(err, domain.ErrDuplicateKey) {
		t.Fatalf("want ErrDuplicateKey, got %v", err)
	}
}

func TestArchiveInvoiceRoundTrip(t *testing.T) {
	a := memArchive(t)
	o1 := order(t, "o1", 2, "10")
	o2 := order(t, "o2", 1, "20")
	// o1 was archived at placement time; o2 only exists in the invoice
	if err := a.SaveOrder(o1); err != nil {
		t.Fatal(err)
	}

	inv := domain.Invoice{
		ID:        "inv-1",
		CreatedAt: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
		Orders:    []domain.Order{o1, o2},
		Total:     d(t, "40"),
	}
	if err := a.SaveInvoice(inv); err != nil {
		t.Fatal(err)
	}

	got, err := a.GetInvoice("inv-1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Total.Equal(d(t, "40")) {
		t.Fatalf("want total=40, got %s", got.Total)
	}
	if len(got.Orders) != 2 || got.Orders[0].ID != "o1" || got.Orders[1].ID != "o2" {
		t.Fatalf("orders out of sequence: %+v", got.Orders)
	}
	if !got.CreatedAt.Equal(inv.CreatedAt) {
		t.Fatalf("timestamp mismatch: %s vs %s", got.CreatedAt, inv.CreatedAt)
	}
}

func TestArchiveGetInvoiceMissing(t *testing.T) {
	a := memArchive(t)
	if _, err := a.GetInvoice("nope"); err == nil {
		t.Fatal("want error for unknown invoice")
	}
}

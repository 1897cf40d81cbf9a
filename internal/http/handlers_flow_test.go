package handlers_test

import (
	"context"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"stockdesk/internal/chat"
	"stockdesk/internal/config"
	"stockdesk/internal/domain"
	"stockdesk/internal/http/handlers"
	"stockdesk/internal/repos"
	"stockdesk/internal/services"
)

type echoAsker struct{ reply string }

func (e *echoAsker) Ask(context.Context, string) (string, error) { return e.reply, nil }

// newTestApp wires the app without the CSRF middleware so form posts stay
// simple; CSRF is exercised at the middleware level, not per handler.
func newTestApp(t *testing.T, ask chat.Asker) (*fiber.App, *services.StockLedger, *repos.UserRepo) {
	t.Helper()

	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	dir := t.TempDir()
	store, err := repos.NewFileStore(
		filepath.Join(dir, "inventory.json"),
		filepath.Join(dir, "inventory.csv"),
		filepath.Join(dir, "invoices"),
	)
	if err != nil {
		t.Fatal(err)
	}

	ledger := services.NewStockLedger()
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})

	cfg := config.Config{ChatTimeout: time.Second}
	deps := handlers.NewDeps(db, cfg, ledger, store, ask)
	app.Get("/", deps.LedgerHandler.Home)
	app.Post("/items", deps.LedgerHandler.Add)
	app.Post("/items/restock", deps.LedgerHandler.Restock)
	app.Post("/items/reduce", deps.LedgerHandler.Reduce)
	app.Post("/items/remove", deps.LedgerHandler.Remove)
	app.Post("/command", deps.CommandHandler.Run)
	app.Post("/orders", deps.OrderHandler.Place)
	app.Get("/order/:id", deps.OrderHandler.View)
	app.Get("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.Log)
	app.Post("/invoices", handlers.RequireUser(authSvc), deps.InvoiceHandler.Create)
	app.Get("/invoice/:id", deps.InvoiceHandler.View)

	return app, ledger, userRepo
}

func TestLedgerFormFlow(t *testing.T) {
	app, ledger, _ := newTestApp(t, nil)

	form := url.Values{
		"name": {"Shirt"}, "color": {"Red"}, "size": {"M"}, "brand": {"Acme"},
		"category": {"apparel"}, "quantity": {"5"}, "price": {"10"},
	}
	req := httptest.NewRequest("POST", "/items", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("want 302 after add, got %d", resp.StatusCode)
	}

	it, ok := ledger.Get(domain.NewItemKey("shirt", "red", "m", "acme"))
	if !ok || it.Quantity != 5 {
		t.Fatalf("ledger not updated: ok=%v %+v", ok, it)
	}

	// over-reduce is rejected with 409 and leaves the quantity alone
	form = url.Values{
		"name": {"Shirt"}, "color": {"Red"}, "size": {"M"}, "brand": {"Acme"},
		"quantity": {"9"},
	}
	req = httptest.NewRequest("POST", "/items/reduce", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("want 409 for insufficient stock, got %d", resp.StatusCode)
	}
	if it, _ := ledger.Get(domain.NewItemKey("shirt", "red", "m", "acme")); it.Quantity != 5 {
		t.Fatalf("failed reduce changed quantity: %d", it.Quantity)
	}

	// malformed quantity never reaches the ledger
	form.Set("quantity", "lots")
	req = httptest.NewRequest("POST", "/items/reduce", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("want 400 for bad quantity, got %d", resp.StatusCode)
	}
}

func TestOrderAndInvoiceFlow(t *testing.T) {
	app, ledger, users := newTestApp(t, nil)

	key := domain.NewItemKey("shirt", "red", "", "")
	if err := ledger.Add(key, 5, decimal.NewFromInt(10), ""); err != nil {
		t.Fatal(err)
	}

	form := url.Values{"name": {"shirt"}, "color": {"red"}, "quantity": {"3"}}
	req := httptest.NewRequest("POST", "/orders", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("want 302 after order, got %d", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/order/") {
		t.Fatalf("want redirect to order page, got %q", loc)
	}
	if it, _ := ledger.Get(key); it.Quantity != 2 {
		t.Fatalf("want qty=2 after order, got %d", it.Quantity)
	}

	// invoicing requires a session
	req = httptest.NewRequest("POST", "/invoices", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("anonymous invoicing should bounce to login, got %d -> %q",
			resp.StatusCode, resp.Header.Get("Location"))
	}

	// bind a session for the seeded operator and retry
	if err := users.BindSession("sid-test", "u-operator"); err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest("POST", "/invoices", nil)
	req.Header.Set("Cookie", "sid=sid-test")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("want 302 after invoice, got %d", resp.StatusCode)
	}
	invLoc := resp.Header.Get("Location")
	if !strings.HasPrefix(invLoc, "/invoice/") {
		t.Fatalf("want redirect to invoice page, got %q", invLoc)
	}

	req = httptest.NewRequest("GET", invLoc, nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("want 200 for invoice page, got %d", resp.StatusCode)
	}

	// second invoice on the now-empty log is rejected
	req = httptest.NewRequest("POST", "/invoices", nil)
	req.Header.Set("Cookie", "sid=sid-test")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("want 400 for empty order log, got %d", resp.StatusCode)
	}
}

func TestCommandBoxWithChatStub(t *testing.T) {
	app, ledger, _ := newTestApp(t, &echoAsker{reply: "add 4 blue hats price=5"})

	form := url.Values{"command": {"could you get me some blue hats"}}
	req := httptest.NewRequest("POST", "/command", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}

	it, ok := ledger.Get(domain.NewItemKey("hats", "blue", "", ""))
	if !ok || it.Quantity != 4 {
		t.Fatalf("chat-derived add should land in ledger: ok=%v %+v", ok, it)
	}
}

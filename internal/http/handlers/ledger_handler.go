package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"stockdesk/internal/domain"
	applog "stockdesk/internal/log"
	"stockdesk/internal/repos"
	"stockdesk/internal/services"
	"stockdesk/internal/validate"
)

type LedgerHandler struct {
	Ledger  *services.StockLedger
	Orders  *services.OrderService
	Flusher *Flusher
	Store   *repos.FileStore
}

// Home renders the inventory page with the mutation forms.
func (h *LedgerHandler) Home(c *fiber.Ctx) error {
	return render(c, "index", fiber.Map{
		"Items":      h.Ledger.Snapshot(),
		"OrderCount": len(h.Orders.Orders()),
		"Message":    c.Query("msg"),
		"Command":    "",
	})
}

// keyFromForm validates and normalizes the item identity fields.
func keyFromForm(c *fiber.Ctx) (domain.ItemKey, bool) {
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return domain.ItemKey{}, false
	}
	color, ok := validate.Field(c.FormValue("color"))
	if !ok {
		return domain.ItemKey{}, false
	}
	size, ok := validate.Field(c.FormValue("size"))
	if !ok {
		return domain.ItemKey{}, false
	}
	brand, ok := validate.Field(c.FormValue("brand"))
	if !ok {
		return domain.ItemKey{}, false
	}
	return domain.NewItemKey(name, color, size, brand), true
}

func (h *LedgerHandler) Add(c *fiber.Ctx) error {
	key, ok := keyFromForm(c)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "item"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid item fields")
	}
	qty, ok := validate.Qty(c.FormValue("quantity"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("quantity must be a positive integer")
	}
	price := decimal.Zero
	if raw := c.FormValue("price"); raw != "" {
		if price, ok = validate.Price(raw); !ok {
			return c.Status(fiber.StatusBadRequest).SendString("price must be a non-negative amount")
		}
	}
	category, ok := validate.Field(c.FormValue("category"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid category")
	}

	if err := h.Ledger.Add(key, qty, price, category); err != nil {
		return c.Status(statusFor(err)).SendString(err.Error())
	}
	h.Flusher.Flush(c)
	applog.Audit(c, "ledger.add", map[string]any{"item": key.Label(), "qty": qty})
	return c.Redirect("/?msg=added")
}

func (h *LedgerHandler) Restock(c *fiber.Ctx) error {
	key, ok := keyFromForm(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid item fields")
	}
	qty, ok := validate.Qty(c.FormValue("quantity"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("quantity must be a positive integer")
	}

	if err := h.Ledger.Restock(key, qty); err != nil {
		return c.Status(statusFor(err)).SendString(err.Error())
	}
	h.Flusher.Flush(c)
	applog.Audit(c, "ledger.restock", map[string]any{"item": key.Label(), "qty": qty})
	return c.Redirect("/?msg=restocked")
}

func (h *LedgerHandler) Reduce(c *fiber.Ctx) error {
	key, ok := keyFromForm(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid item fields")
	}
	qty, ok := validate.Qty(c.FormValue("quantity"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("quantity must be a positive integer")
	}

	if _, err := h.Ledger.Reduce(key, qty); err != nil {
		return c.Status(statusFor(err)).SendString(err.Error())
	}
	h.Flusher.Flush(c)
	applog.Audit(c, "ledger.reduce", map[string]any{"item": key.Label(), "qty": qty})
	return c.Redirect("/?msg=reduced")
}

func (h *LedgerHandler) Remove(c *fiber.Ctx) error {
	key, ok := keyFromForm(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("invalid item fields")
	}
	if err := h.Ledger.Remove(key); err != nil {
		return c.Status(statusFor(err)).SendString(err.Error())
	}
	h.Flusher.Flush(c)
	applog.Audit(c, "ledger.remove", map[string]any{"item": key.Label()})
	return c.Redirect("/?msg=removed")
}

// ExportCSV flushes and serves the CSV snapshot.
func (h *LedgerHandler) ExportCSV(c *fiber.Ctx) error {
	if err := h.Store.SaveSnapshot(h.Ledger.Snapshot()); err != nil {
		applog.Error(c, "ledger.export.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).SendString("export failed")
	}
	h.Ledger.Flushed()
	c.Attachment("inventory.csv")
	return c.SendFile(h.Store.CSVPath, true)
}

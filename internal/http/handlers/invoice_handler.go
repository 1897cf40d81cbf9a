package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "stockdesk/internal/log"
	"stockdesk/internal/repos"
	"stockdesk/internal/services"
)

type InvoiceHandler struct {
	Orders  *services.OrderService
	Archive *repos.ArchiveRepo
	Store   *repos.FileStore
}

// Create builds an invoice from the current order log and persists it. The
// log is cleared only after both sinks succeeded, so a failed persistence
// never drops order history.
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	inv, err := services.BuildInvoice(h.Orders.Orders())
	if err != nil {
		return c.Status(statusFor(err)).SendString("no orders to invoice")
	}

	path, err := h.Store.SaveInvoice(inv)
	if err != nil {
		applog.Error(c, "invoice.save.fail", err, map[string]any{"invoice_id": inv.ID})
		return c.Status(fiber.StatusInternalServerError).SendString("could not persist invoice")
	}
	if err := h.Archive.SaveInvoice(inv); err != nil {
		applog.Error(c, "invoice.archive.fail", err, map[string]any{"invoice_id": inv.ID})
		return c.Status(fiber.StatusInternalServerError).SendString("could not archive invoice")
	}

	h.Orders.ClearLog()
	applog.Audit(c, "invoice.create", map[string]any{
		"invoice_id": inv.ID,
		"orders":     len(inv.Orders),
		"total":      inv.Total.String(),
		"file":       path,
	})
	return c.Redirect("/invoice/" + inv.ID)
}

func (h *InvoiceHandler) View(c *fiber.Ctx) error {
	inv, err := h.Archive.GetInvoice(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Invoice not found"})
	}
	return render(c, "invoice", fiber.Map{"Invoice": inv})
}

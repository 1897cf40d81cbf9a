package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "stockdesk/internal/log"
	"stockdesk/internal/services"
	"stockdesk/internal/validate"
)

type OrderHandler struct {
	Orders  *services.OrderService
	Flusher *Flusher
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	key, ok := keyFromForm(c)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "item"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid item fields")
	}
	qty, ok := validate.Qty(c.FormValue("quantity"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("quantity must be a positive integer")
	}

	o, err := h.Orders.Place(key, qty)
	if err != nil {
		applog.Security(c, "order.place.fail", map[string]any{"item": key.Label(), "error": err.Error()})
		return c.Status(statusFor(err)).SendString(err.Error())
	}
	h.Flusher.Flush(c)
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID,
		"item":     key.Label(),
		"qty":      o.Quantity,
		"price":    o.Price.String(),
	})
	return c.Redirect("/order/" + o.ID)
}

// Log renders the current (uninvoiced) order log.
func (h *OrderHandler) Log(c *fiber.Ctx) error {
	return render(c, "orders", fiber.Map{"Orders": h.Orders.Orders()})
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	o, ok := h.Orders.Find(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	return render(c, "order", fiber.Map{"Order": o, "Subtotal": o.Subtotal()})
}

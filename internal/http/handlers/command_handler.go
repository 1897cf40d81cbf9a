package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"stockdesk/internal/command"
	applog "stockdesk/internal/log"
	"stockdesk/internal/services"
)

type CommandHandler struct {
	Dispatch *command.Dispatcher
	Orders   *services.OrderService
	Flusher  *Flusher
}

// Run handles the free-text command box. The dispatcher parses the grammar
// first and only falls through to the chat capability for unrecognized
// input; either way the ledger sees validated commands only.
func (h *CommandHandler) Run(c *fiber.Ctx) error {
	text := strings.TrimSpace(c.FormValue("command"))
	if text == "" || len(text) > 500 {
		return c.Status(fiber.StatusBadRequest).SendString("enter a command")
	}

	res, err := h.Dispatch.Handle(c.Context(), text)
	h.Flusher.Flush(c)
	if err != nil {
		applog.Security(c, "command.fail", map[string]any{"input": text, "error": err.Error()})
		return render(c, "index", fiber.Map{
			"Items":      h.Dispatch.Ledger.Snapshot(),
			"OrderCount": len(h.Orders.Orders()),
			"Error":      err.Error(),
			"Command":    text,
		})
	}

	applog.Audit(c, "command.run", map[string]any{"input": text, "from_chat": res.FromChat})
	data := fiber.Map{
		"Items":      h.Dispatch.Ledger.Snapshot(),
		"OrderCount": len(h.Orders.Orders()),
		"Message":    res.Message,
		"Command":    text,
	}
	if res.Order != nil {
		data["Order"] = *res.Order
	}
	return render(c, "index", data)
}

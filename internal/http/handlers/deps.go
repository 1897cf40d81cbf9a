package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"stockdesk/internal/chat"
	"stockdesk/internal/command"
	"stockdesk/internal/config"
	applog "stockdesk/internal/log"
	"stockdesk/internal/repos"
	"stockdesk/internal/services"
)

type Deps struct {
	LedgerHandler  *LedgerHandler
	OrderHandler   *OrderHandler
	InvoiceHandler *InvoiceHandler
	CommandHandler *CommandHandler
}

// Flusher pushes a dirty ledger out to the flat-file sink. Mutating
// handlers call it after their operation; a failed flush is logged and the
// ledger stays dirty for the next attempt.
type Flusher struct {
	Ledger *services.StockLedger
	Store  *repos.FileStore
}

func (f *Flusher) Flush(c *fiber.Ctx) {
	if !f.Ledger.Dirty() {
		return
	}
	if err := f.Store.SaveSnapshot(f.Ledger.Snapshot()); err != nil {
		applog.Error(c, "ledger.flush.fail", err, nil)
		return
	}
	f.Ledger.Flushed()
}

func NewDeps(db *sqlx.DB, cfg config.Config, ledger *services.StockLedger, store *repos.FileStore, ask chat.Asker) *Deps {
	archive := repos.NewArchiveRepo(db)
	orderSvc := services.NewOrderService(ledger, archive)
	flusher := &Flusher{Ledger: ledger, Store: store}
	dispatcher := &command.Dispatcher{
		Ledger:  ledger,
		Orders:  orderSvc,
		Chat:    ask,
		Timeout: cfg.ChatTimeout,
	}

	return &Deps{
		LedgerHandler:  &LedgerHandler{Ledger: ledger, Orders: orderSvc, Flusher: flusher, Store: store},
		OrderHandler:   &OrderHandler{Orders: orderSvc, Flusher: flusher},
		InvoiceHandler: &InvoiceHandler{Orders: orderSvc, Archive: archive, Store: store},
		CommandHandler: &CommandHandler{Dispatch: dispatcher, Orders: orderSvc, Flusher: flusher},
	}
}

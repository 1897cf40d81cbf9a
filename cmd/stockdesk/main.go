package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"stockdesk/internal/chat"
	"stockdesk/internal/config"
	"stockdesk/internal/http/handlers"
	applog "stockdesk/internal/log"
	"stockdesk/internal/repos"
	"stockdesk/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	store, err := repos.NewFileStore(cfg.InventoryJSON(), cfg.InventoryCSV(), cfg.InvoiceDir())
	if err != nil {
		log.Fatal(err)
	}

	// Restore the ledger from the last snapshot, if any.
	ledger := services.NewStockLedger()
	items, err := store.LoadSnapshot()
	if err != nil {
		log.Fatal(err)
	}
	ledger.Load(items)
	log.Printf("[ledger] restored %d items from %s", ledger.Len(), cfg.InventoryJSON())

	// Chat capability is optional; without CHAT_URL the command box only
	// accepts the structured grammar.
	var ask chat.Asker
	if cfg.ChatURL != "" {
		ask = chat.NewClient(cfg.ChatURL, cfg.ChatKey, cfg.ChatModel)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, ledger, store, ask)

	// Inventory page & ledger mutations
	app.Get("/", deps.LedgerHandler.Home)
	app.Post("/items", deps.LedgerHandler.Add)
	app.Post("/items/restock", deps.LedgerHandler.Restock)
	app.Post("/items/reduce", deps.LedgerHandler.Reduce)
	app.Post("/items/remove", deps.LedgerHandler.Remove)
	app.Get("/export/csv", deps.LedgerHandler.ExportCSV)

	// Command box (throttled; it may reach the chat endpoint)
	app.Post("/command", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), deps.CommandHandler.Run)

	// Orders & invoices
	app.Post("/orders", deps.OrderHandler.Place)
	app.Get("/order/:id", deps.OrderHandler.View)
	app.Get("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.Log)
	app.Post("/invoices", handlers.RequireUser(authSvc), deps.InvoiceHandler.Create)
	app.Get("/invoice/:id", deps.InvoiceHandler.View)

	// Auth routes (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			tok, _ := c.Locals("CSRFToken").(string)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{
				"Err":       "Too many attempts. Please try again later.",
				"CSRFToken": tok,
			})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}

package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port    string
	DataDir string // inventory.json / inventory.csv / invoices/ live here
	DBDSN   string // sqlite archive (orders, invoices, users)
	LogFile string

	// Chat completion endpoint for the command box fall-through.
	// Empty ChatURL disables the chat layer entirely.
	ChatURL     string
	ChatKey     string
	ChatModel   string
	ChatTimeout time.Duration
}

func (c Config) InventoryJSON() string { return filepath.Join(c.DataDir, "inventory.json") }
func (c Config) InventoryCSV() string  { return filepath.Join(c.DataDir, "inventory.csv") }
func (c Config) InvoiceDir() string    { return filepath.Join(c.DataDir, "invoices") }

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "stockdesk.db"
	} // sqlite file in project root
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./stockdesk.log"
	}

	model := os.Getenv("CHAT_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := 10 * time.Second
	if ms := os.Getenv("CHAT_TIMEOUT_MS"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Millisecond
		}
	}

	cfg := Config{
		Port:        port,
		DataDir:     dataDir,
		DBDSN:       dsn,
		LogFile:     logFile,
		ChatURL:     os.Getenv("CHAT_URL"),
		ChatKey:     os.Getenv("CHAT_KEY"),
		ChatModel:   model,
		ChatTimeout: timeout,
	}
	log.Printf("[config] PORT=%s DATA_DIR=%s DB_DSN=%s LOG_FILE=%s CHAT=%v",
		cfg.Port, cfg.DataDir, cfg.DBDSN, cfg.LogFile, cfg.ChatURL != "")
	return cfg
}

package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// OpenDB opens the archive database and prepares schema and the seed
// operator account. The archive is a durable, append-oriented copy of
// orders and invoices; the in-memory ledger and order log stay
// authoritative.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Archived orders (write-behind copy of the in-memory order log)
CREATE TABLE IF NOT EXISTS orders(
  id         TEXT PRIMARY KEY,
  item_name  TEXT NOT NULL,
  item_color TEXT NOT NULL DEFAULT '',
  item_size  TEXT NOT NULL DEFAULT '',
  item_brand TEXT NOT NULL DEFAULT '',
  qty        INTEGER NOT NULL CHECK (qty > 0),
  price      TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

-- Archived invoices
CREATE TABLE IF NOT EXISTS invoices(
  id         TEXT PRIMARY KEY,
  total      TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS invoice_orders(
  invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
  order_id   TEXT NOT NULL REFERENCES orders(id),
  position   INTEGER NOT NULL,
  PRIMARY KEY(invoice_id, order_id)
);

-- Operator accounts & sessions for the form UI
CREATE TABLE IF NOT EXISTS users(
  id            TEXT PRIMARY KEY,
  email         TEXT NOT NULL UNIQUE,
  name          TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  created_at    TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id         TEXT PRIMARY KEY,
  user_id    TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

// seedUsers ensures the default operator exists (idempotent; safe to run
// every start).
func seedUsers(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting default operator account")
	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), 12)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO users(id,email,name,password_hash)
		VALUES(?,?,?,?)
		ON CONFLICT(email) DO NOTHING
	`, "u-operator", "operator@stockdesk.test", "Operator", string(hash))
	return err
}

package domain

import "errors"

// Ledger and order errors. Callers match with errors.Is and decide
// presentation; nothing here is fatal to the process.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateKey      = errors.New("duplicate key")
)

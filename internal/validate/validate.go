package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reField = regexp.MustCompile(`^[A-Za-z0-9 _'\-]{1,40}$`)
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// Field validates an item descriptor (name, color, size, brand, category).
// Empty input is allowed; the ledger normalizes it to its canonical empty
// value.
func Field(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, reField.MatchString(s)
}

// Name is like Field but rejects empty input (an item needs a name).
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reField.MatchString(s)
}

// Qty parses a strictly positive integer quantity. Out-of-range input is
// rejected, never clamped.
func Qty(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 1_000_000 {
		return 0, false
	}
	return n, true
}

// Price parses a non-negative decimal amount.
func Price(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	return l >= 8 && l <= 64
}

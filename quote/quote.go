// Package quote resolves ticker symbols to a company name and current price.
package quote

import (
	"context"
	"errors"
	"strings"

	"stocksim/models"
)

var (
	// ErrNotFound means the symbol does not resolve to a listed stock.
	ErrNotFound = errors.New("quote: symbol not found")
	// ErrUnavailable means the quote provider could not answer.
	ErrUnavailable = errors.New("quote: provider unavailable")
)

// Lookup fetches the current quote for a symbol.
type Lookup interface {
	Lookup(ctx context.Context, symbol string) (*models.Quote, error)
}

// Normalize trims and upper-cases a ticker symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Package quotetest provides an in-memory quote.Lookup for tests.
package quotetest

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"stocksim/models"
	"stocksim/quote"
)

// Static answers lookups from a fixed price table.
type Static struct {
	mu     sync.Mutex
	quotes map[string]models.Quote
	errs   map[string]error
	calls  int
}

func New() *Static {
	return &Static{quotes: make(map[string]models.Quote), errs: make(map[string]error)}
}

// Set publishes a price for symbol, replacing any previous price or error.
func (s *Static) Set(symbol, name, price string) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	symbol = quote.Normalize(symbol)
	s.quotes[symbol] = models.Quote{Symbol: symbol, Name: name, Price: decimal.RequireFromString(price)}
	delete(s.errs, symbol)
	return s
}

// Fail makes lookups of symbol return err.
func (s *Static) Fail(symbol string, err error) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[quote.Normalize(symbol)] = err
	return s
}

// Calls counts lookups served so far.
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Static) Lookup(_ context.Context, symbol string) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	symbol = quote.Normalize(symbol)
	if err, ok := s.errs[symbol]; ok {
		return nil, err
	}
	q, ok := s.quotes[symbol]
	if !ok {
		return nil, quote.ErrNotFound
	}
	return &q, nil
}

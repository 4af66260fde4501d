// Package portfolio values a user's holdings at current prices.
package portfolio

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stocksim/database"
	"stocksim/models"
	"stocksim/quote"
)

// Position is one held symbol valued at its current price. When the quote
// could not be fetched Priced is false and Price and Value are zero.
type Position struct {
	Symbol string
	Name   string
	Shares int64
	Price  decimal.Decimal
	Value  decimal.Decimal
	Priced bool
}

type Portfolio struct {
	Positions []Position
	Cash      decimal.Decimal
	// Total is cash plus the value of every priced position.
	Total decimal.Decimal
	// Partial reports that at least one position is missing from Total.
	Partial bool
}

type Calculator struct {
	store  *database.Store
	quotes quote.Lookup
	log    zerolog.Logger
}

func NewCalculator(store *database.Store, quotes quote.Lookup, log zerolog.Logger) *Calculator {
	return &Calculator{
		store:  store,
		quotes: quotes,
		log:    log.With().Str("service", "portfolio").Logger(),
	}
}

// Portfolio values every symbol the user holds. A failed quote marks the
// position unpriced instead of failing the whole portfolio.
func (c *Calculator) Portfolio(ctx context.Context, userID uint) (*Portfolio, error) {
	user, err := c.store.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	holdings, err := c.store.Holdings(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Portfolio{
		Positions: make([]Position, 0, len(holdings)),
		Cash:      user.Cash,
		Total:     user.Cash,
	}
	for _, h := range holdings {
		pos := Position{Symbol: h.Symbol, Name: h.Symbol, Shares: h.Shares}

		q, err := c.quotes.Lookup(ctx, h.Symbol)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			c.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("Quote unavailable, position left unpriced")
			p.Partial = true
			p.Positions = append(p.Positions, pos)
			continue
		}

		pos.Name = q.Name
		pos.Price = q.Price
		pos.Value = q.Price.Mul(decimal.NewFromInt(h.Shares))
		pos.Priced = true
		p.Total = p.Total.Add(pos.Value)
		p.Positions = append(p.Positions, pos)
	}

	return p, nil
}

// Holdings lists the symbols the user currently holds.
func (c *Calculator) Holdings(ctx context.Context, userID uint) ([]models.Holding, error) {
	return c.store.Holdings(ctx, userID)
}

// History lists the user's transactions oldest first.
func (c *Calculator) History(ctx context.Context, userID uint) ([]models.Transaction, error) {
	return c.store.Transactions(ctx, userID)
}

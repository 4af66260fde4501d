// Package trading executes simulated buys and sells against a user's cash
// and the share ledger.
package trading

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stocksim/database"
	"stocksim/models"
	"stocksim/quote"
)

var (
	ErrSymbolNotFound     = errors.New("stock was not found")
	ErrInvalidShares      = errors.New("shares must be a non-negative integer")
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrInsufficientShares = errors.New("not enough shares held")
)

// Receipt describes an executed trade.
type Receipt struct {
	Transaction models.Transaction
	Quote       models.Quote
	// Amount is the cash that changed hands.
	Amount decimal.Decimal
	// Cash is the balance after the trade.
	Cash decimal.Decimal
}

type Service struct {
	store  *database.Store
	quotes quote.Lookup
	log    zerolog.Logger
}

func NewService(store *database.Store, quotes quote.Lookup, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		quotes: quotes,
		log:    log.With().Str("service", "trading").Logger(),
	}
}

// Buy purchases shares at the current price. Cash is debited and a
// positive ledger row written in one transaction.
func (s *Service) Buy(ctx context.Context, userID uint, symbol string, shares int64) (*Receipt, error) {
	q, err := s.resolve(ctx, symbol, shares)
	if err != nil {
		return nil, err
	}
	cost := q.Price.Mul(decimal.NewFromInt(shares))

	var receipt *Receipt
	err = s.store.WithTx(ctx, func(tx *database.Store) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}

		remaining := user.Cash.Sub(cost)
		if remaining.IsNegative() {
			return fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, cost, user.Cash)
		}

		receipt, err = s.apply(ctx, tx, userID, q, shares, remaining, cost)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("user_id", userID).
		Str("symbol", q.Symbol).
		Int64("shares", shares).
		Str("price", q.Price.String()).
		Msg("Bought shares")
	return receipt, nil
}

// Sell disposes of held shares at the current price. The holding is
// recomputed from the ledger inside the transaction so concurrent sells
// cannot both spend the same shares.
func (s *Service) Sell(ctx context.Context, userID uint, symbol string, shares int64) (*Receipt, error) {
	q, err := s.resolve(ctx, symbol, shares)
	if err != nil {
		return nil, err
	}
	proceeds := q.Price.Mul(decimal.NewFromInt(shares))

	var receipt *Receipt
	err = s.store.WithTx(ctx, func(tx *database.Store) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}

		held, err := tx.HoldingShares(ctx, userID, q.Symbol)
		if err != nil {
			return err
		}
		if shares > held {
			return fmt.Errorf("%w: selling %d %s, holding %d", ErrInsufficientShares, shares, q.Symbol, held)
		}

		receipt, err = s.apply(ctx, tx, userID, q, -shares, user.Cash.Add(proceeds), proceeds)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("user_id", userID).
		Str("symbol", q.Symbol).
		Int64("shares", shares).
		Str("price", q.Price.String()).
		Msg("Sold shares")
	return receipt, nil
}

func (s *Service) resolve(ctx context.Context, symbol string, shares int64) (*models.Quote, error) {
	if shares < 0 {
		return nil, ErrInvalidShares
	}
	symbol = quote.Normalize(symbol)
	if symbol == "" {
		return nil, ErrSymbolNotFound
	}

	q, err := s.quotes.Lookup(ctx, symbol)
	if errors.Is(err, quote.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) apply(ctx context.Context, tx *database.Store, userID uint, q *models.Quote, signedShares int64, cash, amount decimal.Decimal) (*Receipt, error) {
	if err := tx.SetCash(ctx, userID, cash); err != nil {
		return nil, err
	}

	row := models.Transaction{
		UserID: userID,
		Symbol: q.Symbol,
		Shares: signedShares,
		Price:  q.Price,
	}
	if err := tx.AppendTransaction(ctx, &row); err != nil {
		return nil, err
	}

	return &Receipt{Transaction: row, Quote: *q, Amount: amount, Cash: cash}, nil
}

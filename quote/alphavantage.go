package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stocksim/models"
)

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
	Error       string `json:"Error Message"`
}

type symbolSearchResponse struct {
	BestMatches []struct {
		Symbol string `json:"1. symbol"`
		Name   string `json:"2. name"`
	} `json:"bestMatches"`
}

// AlphaVantage looks quotes up through the Alpha Vantage query API.
type AlphaVantage struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	log     zerolog.Logger
}

func NewAlphaVantage(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *AlphaVantage {
	return &AlphaVantage{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{},
		log:     log.With().Str("client", "alphavantage").Logger(),
	}
}

// Lookup resolves the price with GLOBAL_QUOTE and the company name with
// SYMBOL_SEARCH. A failed name search falls back to the symbol itself.
func (a *AlphaVantage) Lookup(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = Normalize(symbol)
	if symbol == "" {
		return nil, ErrNotFound
	}

	var gq globalQuoteResponse
	if err := a.query(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}}, &gq); err != nil {
		return nil, err
	}
	if msg := firstNonEmpty(gq.Note, gq.Information); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}
	if gq.Error != "" || gq.GlobalQuote.Price == "" {
		return nil, ErrNotFound
	}

	price, err := decimal.NewFromString(gq.GlobalQuote.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: bad price %q for %s", ErrUnavailable, gq.GlobalQuote.Price, symbol)
	}
	if !price.IsPositive() {
		return nil, ErrNotFound
	}
	if gq.GlobalQuote.Symbol != "" {
		symbol = Normalize(gq.GlobalQuote.Symbol)
	}

	return &models.Quote{
		Symbol: symbol,
		Name:   a.companyName(ctx, symbol),
		Price:  price,
	}, nil
}

func (a *AlphaVantage) companyName(ctx context.Context, symbol string) string {
	var sr symbolSearchResponse
	if err := a.query(ctx, url.Values{"function": {"SYMBOL_SEARCH"}, "keywords": {symbol}}, &sr); err != nil {
		a.log.Warn().Err(err).Str("symbol", symbol).Msg("Symbol search failed, using symbol as name")
		return symbol
	}
	for _, m := range sr.BestMatches {
		if strings.EqualFold(m.Symbol, symbol) && m.Name != "" {
			return m.Name
		}
	}
	return symbol
}

// query runs one API call under its own timeout. A call cut short by its
// context fails with the context's error, not ErrUnavailable.
func (a *AlphaVantage) query(ctx context.Context, params url.Values, out interface{}) error {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	params.Set("apikey", a.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build quote request: %w", err)
	}

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		return a.transportError(ctx, params, err)
	}
	defer resp.Body.Close()

	a.log.Debug().
		Str("function", params.Get("function")).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Quote request")

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return a.transportError(ctx, params, err)
		}
		return fmt.Errorf("%w: failed to parse response: %w", ErrUnavailable, err)
	}
	return nil
}

func (a *AlphaVantage) transportError(ctx context.Context, params url.Values, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("quote request %s: %w", params.Get("function"), ctxErr)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

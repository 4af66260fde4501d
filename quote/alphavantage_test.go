package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *AlphaVantage {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)
	return NewAlphaVantage(server.URL, "test-key", 5*time.Second, zerolog.Nop())
}

func TestLookup_ResolvesPriceAndName(t *testing.T) {
	var functions []string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		functions = append(functions, r.URL.Query().Get("function"))

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("function") {
		case "GLOBAL_QUOTE":
			assert.Equal(t, "NFLX", r.URL.Query().Get("symbol"))
			w.Write([]byte(`{"Global Quote": {"01. symbol": "NFLX", "05. price": "487.2500"}}`))
		case "SYMBOL_SEARCH":
			w.Write([]byte(`{"bestMatches": [
				{"1. symbol": "NFLX34.SAO", "2. name": "Netflix BDR"},
				{"1. symbol": "NFLX", "2. name": "Netflix Inc"}
			]}`))
		}
	})

	q, err := client.Lookup(context.Background(), "  nflx ")
	require.NoError(t, err)

	assert.Equal(t, "NFLX", q.Symbol)
	assert.Equal(t, "Netflix Inc", q.Name)
	assert.Equal(t, "487.25", q.Price.String())
	assert.Equal(t, []string{"GLOBAL_QUOTE", "SYMBOL_SEARCH"}, functions)
}

func TestLookup_UnknownSymbol(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {}}`))
	})

	_, err := client.Lookup(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookup_EmptySymbolSkipsRequest(t *testing.T) {
	called := false
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.Lookup(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)
}

func TestLookup_RateLimitIsUnavailable(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
	})

	_, err := client.Lookup(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestLookup_ServerError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Lookup(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLookup_NameFallsBackToSymbol(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("function") == "SYMBOL_SEARCH" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"Global Quote": {"01. symbol": "IBM", "05. price": "140.0000"}}`))
	})

	q, err := client.Lookup(context.Background(), "ibm")
	require.NoError(t, err)
	assert.Equal(t, "IBM", q.Name)
	assert.Equal(t, "140", q.Price.String())
}

func TestLookup_NonPositivePriceIsNotFound(t *testing.T) {
	for _, price := range []string{"0.0000", "-1.5000"} {
		t.Run(price, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"Global Quote": {"01. symbol": "DEAD", "05. price": "` + price + `"}}`))
			})

			_, err := client.Lookup(context.Background(), "DEAD")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func stallingServer(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestLookup_TimeoutIsDeadlineExceeded(t *testing.T) {
	client := NewAlphaVantage(stallingServer(t), "test-key", 50*time.Millisecond, zerolog.Nop())

	_, err := client.Lookup(context.Background(), "AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestLookup_CallerDeadline(t *testing.T) {
	client := NewAlphaVantage(stallingServer(t), "test-key", 5*time.Second, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Lookup(ctx, "AAPL")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLookup_CancelledRequest(t *testing.T) {
	client := NewAlphaVantage(stallingServer(t), "test-key", 5*time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := client.Lookup(ctx, "AAPL")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestLookup_TransportErrorKeepsCause(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	client := NewAlphaVantage(addr, "test-key", time.Second, zerolog.Nop())
	_, err := client.Lookup(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrUnavailable)

	var urlErr *url.Error
	assert.ErrorAs(t, err, &urlErr)
}

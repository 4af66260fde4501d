package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"stocksim/models"
)

// Cached is a read-through Redis cache in front of another Lookup. Misses
// and unknown symbols are never cached.
type Cached struct {
	next Lookup
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

func NewCached(next Lookup, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *Cached {
	return &Cached{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "quote_cache").Logger(),
	}
}

func cacheKey(symbol string) string {
	return fmt.Sprintf("stock:%s:quote", symbol)
}

func (c *Cached) Lookup(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = Normalize(symbol)
	if symbol == "" {
		return nil, ErrNotFound
	}

	cached, err := c.rdb.Get(ctx, cacheKey(symbol)).Bytes()
	switch {
	case err == nil:
		var q models.Quote
		if err := json.Unmarshal(cached, &q); err == nil {
			return &q, nil
		}
		c.log.Warn().Str("symbol", symbol).Msg("Dropping undecodable cached quote")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote cache read failed")
	}

	q, err := c.next.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(q)
	if err == nil {
		err = c.rdb.Set(ctx, cacheKey(symbol), data, c.ttl).Err()
	}
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
	}
	return q, nil
}

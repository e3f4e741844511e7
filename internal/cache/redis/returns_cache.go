package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

const dateLayout = "2006-01-02"

// ReturnsCache decorates a domain.ReturnsLookup with a Redis read-through
// cache. Daily returns are immutable once the trading day closes, so a long
// TTL is safe; the main goal is staying under the stock provider's rate limit
// during historical backtests, which query the same windows repeatedly.
//
// Entries are JSON maps stored at "returns:{TICKER}:{start}:{end}". Cache
// failures degrade to the upstream lookup rather than failing the call.
type ReturnsCache struct {
	rdb    *redis.Client
	next   domain.ReturnsLookup
	ttl    time.Duration
	logger *slog.Logger
}

// NewReturnsCache wraps next with a cache using the given TTL.
func NewReturnsCache(c *Client, next domain.ReturnsLookup, ttl time.Duration, logger *slog.Logger) *ReturnsCache {
	return &ReturnsCache{
		rdb:    c.Underlying(),
		next:   next,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache.returns")),
	}
}

func returnsKey(ticker string, start, end time.Time) string {
	return fmt.Sprintf("returns:%s:%s:%s", ticker, start.Format(dateLayout), end.Format(dateLayout))
}

// DailyReturns serves from cache when possible, otherwise delegates and
// stores the result. Empty upstream results are cached too; a ticker with no
// data would otherwise be re-fetched on every backtest pass.
func (rc *ReturnsCache) DailyReturns(ctx context.Context, ticker string, start, end time.Time) (map[string]float64, error) {
	key := returnsKey(ticker, start, end)

	raw, err := rc.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached map[string]float64
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		// Corrupt entry; fall through to upstream and overwrite.
		rc.logger.Warn("dropping unreadable cache entry", slog.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		rc.logger.Warn("cache read failed, using upstream",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	returns, err := rc.next.DailyReturns(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(returns); err == nil {
		if err := rc.rdb.Set(ctx, key, encoded, rc.ttl).Err(); err != nil {
			rc.logger.Warn("cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
	}

	return returns, nil
}

// Compile-time interface check.
var _ domain.ReturnsLookup = (*ReturnsCache)(nil)

// Package pricecache mediates access to the external rate source through a
// durable, non-expiring cache. Every lookup attempts one refresh; a failed
// refresh degrades to whatever was cached before, it never wipes the cache
// and never surfaces the external failure to the caller.
package pricecache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/crypto-wallet-ledger/internal/domain/pricing"
)

var one = decimal.NewFromInt(1)

// Cache wraps a durable rate store and an external rate source. The
// load → fetch → merge → persist cycle runs under one mutex so concurrent
// refreshes cannot lose entries merged by an earlier call.
type Cache struct {
	store  pricing.Store
	source pricing.Source
	base   string
	logger *slog.Logger

	mu sync.Mutex
}

// New creates a price cache for the given base currency.
func New(logger *slog.Logger, store pricing.Store, source pricing.Source, baseCurrency string) *Cache {
	return &Cache{
		store:  store,
		source: source,
		base:   strings.ToUpper(baseCurrency),
		logger: logger,
	}
}

// Rates returns current prices for the requested symbols, in base units per
// unit of symbol. It loads the persisted table, attempts exactly one broad
// fetch from the external source, inverts and merges the entries of
// interest, persists the merged table, and returns the requested subset.
// Symbols with no rate even after the refresh attempt are absent from the
// result; the caller must treat that as "price unavailable".
func (c *Cache) Rates(ctx context.Context, symbols []string) (pricing.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate cache: %w", err)
	}
	if cached == nil {
		cached = make(pricing.Table)
	}

	wanted := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		wanted[strings.ToUpper(symbol)] = struct{}{}
	}

	raw, err := c.source.FetchRates(ctx, c.base)
	if err != nil {
		// Stale-but-present beats missing: keep serving what we have.
		c.logger.Warn("Rate refresh failed, serving cached rates",
			"base", c.base,
			"error", err,
		)
	} else {
		refreshed := 0
		for _, entry := range raw {
			if _, ok := wanted[entry.Symbol]; !ok {
				continue
			}
			rate, ok := c.invert(entry)
			if !ok {
				continue
			}
			cached[entry.Symbol] = rate
			refreshed++
		}
		if err := c.store.Save(ctx, cached); err != nil {
			// The merged table is still good for this call; only its
			// durability degraded.
			c.logger.Error("Failed to persist refreshed rates", "error", err)
		}
		c.logger.Debug("Rate cache refreshed",
			"base", c.base,
			"refreshed", refreshed,
			"cached_total", len(cached),
		)
	}

	result := make(pricing.Table, len(wanted))
	for symbol := range wanted {
		if rate, ok := cached[symbol]; ok {
			result[symbol] = rate
		}
	}
	return result, nil
}

// invert converts a raw external entry ("symbol units per one base unit")
// into the cached convention ("base units per one symbol unit") via 1/raw.
// Unparseable, zero, or negative raw rates are skipped so the previously
// cached value for that symbol survives the merge.
func (c *Cache) invert(entry pricing.RawRate) (decimal.Decimal, bool) {
	raw, err := decimal.NewFromString(entry.Rate.String())
	if err != nil {
		c.logger.Warn("Skipping malformed rate",
			"symbol", entry.Symbol,
			"raw_rate", entry.Rate.String(),
			"error", err,
		)
		return decimal.Decimal{}, false
	}
	if !raw.IsPositive() {
		c.logger.Warn("Skipping non-positive rate",
			"symbol", entry.Symbol,
			"raw_rate", entry.Rate.String(),
		)
		return decimal.Decimal{}, false
	}
	return one.Div(raw), true
}

// Package pricing defines the rate types and the capabilities the price
// cache is built on: an external rate source and a durable rate store.
package pricing

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Table maps a currency symbol to its price expressed in base currency,
// i.e. rate("BTC") = 50000 means one BTC is worth 50000 units of base.
type Table map[string]decimal.Decimal

// RawRate is a single uninverted entry as returned by the external source,
// quoted as "symbol units per one unit of base". The rate is kept as a
// json.Number so that a malformed value poisons only its own entry instead
// of failing the whole response decode.
type RawRate struct {
	Symbol string
	Rate   json.Number
}

// Source is the external rate provider capability. One call returns the
// full rate table the provider supports for the given base currency.
type Source interface {
	FetchRates(ctx context.Context, base string) ([]RawRate, error)
}

// Store persists the rate table across process restarts. Save performs a
// merge-write: symbols absent from the given table must be retained.
type Store interface {
	Load(ctx context.Context) (Table, error)
	Save(ctx context.Context, rates Table) error
}

// ErrRateUnavailable indicates a requested symbol has no rate even after a
// refresh attempt. Callers must abort the operation rather than substitute
// a default.
type ErrRateUnavailable struct {
	Symbol string
}

func (e ErrRateUnavailable) Error() string {
	return "no rate available for symbol: " + e.Symbol
}

// Is implements the errors.Is interface for ErrRateUnavailable
func (e ErrRateUnavailable) Is(target error) bool {
	t, ok := target.(ErrRateUnavailable)
	if !ok {
		return false
	}
	return t.Symbol == "" || t.Symbol == e.Symbol
}

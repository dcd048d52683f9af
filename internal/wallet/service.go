// Package wallet implements the ledger and valuation engine: balance
// derivation over the movement log, deposit and trade execution, pure
// conversion quotes, and portfolio valuation against the base currency.
package wallet

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/shopspring/decimal"

	"github.com/crypto-wallet-ledger/internal/domain/movement"
	"github.com/crypto-wallet-ledger/internal/domain/pricing"
	"github.com/crypto-wallet-ledger/internal/platform/messaging/producers"
)

const publishTimeout = 5 * time.Second

// RateProvider hands out current prices for the requested symbols, expressed
// in base currency per unit of symbol. Symbols without a price are simply
// absent from the returned table.
type RateProvider interface {
	Rates(ctx context.Context, symbols []string) (pricing.Table, error)
}

// PortfolioValue summarizes holdings against the base currency: how much
// base currency was ever converted out, and what the non-base holdings are
// currently worth.
type PortfolioValue struct {
	Spent        decimal.Decimal `json:"spent_in_base"`
	CurrentValue decimal.Decimal `json:"current_value_in_base"`
}

// Service orchestrates deposits and trades over the movement log. All reads
// re-derive balances from the log; the only mutation path is appending a
// movement, so a failed operation leaves no partial state behind.
type Service struct {
	log       movement.Log
	prices    RateProvider
	publisher producers.MessagePublisher
	events    *ants.Pool
	base      string
	logger    *slog.Logger
}

// NewService creates the ledger service. The publisher and the worker pool
// are optional: with a nil publisher no movement events are emitted, and
// with a nil pool events are published inline.
func NewService(logger *slog.Logger, log movement.Log, prices RateProvider, publisher producers.MessagePublisher, events *ants.Pool, baseCurrency string) *Service {
	return &Service{
		log:       log,
		prices:    prices,
		publisher: publisher,
		events:    events,
		base:      strings.ToUpper(baseCurrency),
		logger:    logger,
	}
}

// BaseCurrency returns the wallet's fixed reference currency.
func (s *Service) BaseCurrency() string {
	return s.base
}

// Deposit credits amount units of the base currency to the wallet and
// returns the recorded movement. Returns ErrInvalidAmount for non-positive
// amounts.
func (s *Service) Deposit(ctx context.Context, amount decimal.Decimal) (*movement.Movement, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	m := movement.NewDeposit(s.base, amount)
	if err := s.log.Append(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("Deposit recorded",
		"movement_id", m.ID.String(),
		"currency", s.base,
		"amount", amount.String(),
	)
	s.publishRecorded(m)

	return m, nil
}

// Trade converts amount units of fromCurrency into toCurrency at the current
// cached rates and returns the recorded movement. Validation, the balance
// check, and the conversion arithmetic have no side effects; the append is
// the single mutation, so a failed trade leaves the log untouched and the
// call can simply be re-invoked.
func (s *Service) Trade(ctx context.Context, fromCurrency, toCurrency string, amount decimal.Decimal) (*movement.Movement, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	from := strings.ToUpper(fromCurrency)
	to := strings.ToUpper(toCurrency)
	if from == to {
		return nil, ErrSameCurrency
	}

	movements, err := s.log.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	balance := BalanceOf(movements, from)
	if balance.LessThan(amount) {
		return nil, ErrInsufficientFunds{Currency: from, Requested: amount, Available: balance}
	}

	rates, err := s.rates(ctx, from, to)
	if err != nil {
		return nil, err
	}
	toQuantity, err := quote(rates, s.base, from, to, amount)
	if err != nil {
		return nil, err
	}

	m := movement.NewTrade(from, amount, to, toQuantity)
	if err := s.log.Append(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("Trade recorded",
		"movement_id", m.ID.String(),
		"from_currency", from,
		"from_quantity", amount.String(),
		"to_currency", to,
		"to_quantity", toQuantity.String(),
	)
	s.publishRecorded(m)

	return m, nil
}

// Convert computes how many units of toCurrency the given amount of
// fromCurrency buys at current rates. Pure calculation used for quotes; no
// movement is recorded.
func (s *Service) Convert(ctx context.Context, fromCurrency, toCurrency string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	from := strings.ToUpper(fromCurrency)
	to := strings.ToUpper(toCurrency)
	if from == to {
		return amount, nil
	}

	rates, err := s.rates(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return quote(rates, s.base, from, to, amount)
}

// Balance derives the current holding of a single currency from the log.
func (s *Service) Balance(ctx context.Context, currency string) (decimal.Decimal, error) {
	movements, err := s.log.ReadAll(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return BalanceOf(movements, strings.ToUpper(currency)), nil
}

// Balances derives the holdings of every currency ever referenced by the log.
func (s *Service) Balances(ctx context.Context) (map[string]decimal.Decimal, error) {
	movements, err := s.log.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return AllBalances(movements), nil
}

// Movements returns the full movement log in append order, oldest first.
func (s *Service) Movements(ctx context.Context) ([]movement.Movement, error) {
	return s.log.ReadAll(ctx)
}

// PortfolioValue reports how much base currency was converted out of the
// wallet and the current base-currency value of all non-base holdings with
// a positive balance, using one batched rate lookup.
func (s *Service) PortfolioValue(ctx context.Context) (*PortfolioValue, error) {
	movements, err := s.log.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	spent := decimal.Zero
	for _, m := range movements {
		if m.FromCurrency == s.base {
			spent = spent.Add(m.FromQuantity)
		}
	}

	var symbols []string
	balances := AllBalances(movements)
	for currency, balance := range balances {
		if currency != s.base && balance.IsPositive() {
			symbols = append(symbols, currency)
		}
	}

	value := decimal.Zero
	if len(symbols) > 0 {
		rates, err := s.prices.Rates(ctx, symbols)
		if err != nil {
			return nil, err
		}
		for _, symbol := range symbols {
			rate, ok := rates[symbol]
			if !ok {
				return nil, pricing.ErrRateUnavailable{Symbol: symbol}
			}
			value = value.Add(balances[symbol].Mul(rate))
		}
	}

	return &PortfolioValue{Spent: spent, CurrentValue: value}, nil
}

// rates asks the provider for the non-base symbols involved in a conversion.
func (s *Service) rates(ctx context.Context, from, to string) (pricing.Table, error) {
	symbols := make([]string, 0, 2)
	if from != s.base {
		symbols = append(symbols, from)
	}
	if to != s.base {
		symbols = append(symbols, to)
	}
	return s.prices.Rates(ctx, symbols)
}

// quote applies the conversion arithmetic. Rates are quoted as base units
// per one unit of symbol, so converting out of base divides and converting
// into base multiplies; anything else goes through base in two hops rather
// than using a direct cross rate.
func quote(rates pricing.Table, base, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	rateOf := func(symbol string) (decimal.Decimal, error) {
		rate, ok := rates[symbol]
		if !ok || rate.IsZero() {
			return decimal.Zero, pricing.ErrRateUnavailable{Symbol: symbol}
		}
		return rate, nil
	}

	switch {
	case from == base:
		rate, err := rateOf(to)
		if err != nil {
			return decimal.Zero, err
		}
		return amount.Div(rate), nil
	case to == base:
		rate, err := rateOf(from)
		if err != nil {
			return decimal.Zero, err
		}
		return amount.Mul(rate), nil
	default:
		fromRate, err := rateOf(from)
		if err != nil {
			return decimal.Zero, err
		}
		toRate, err := rateOf(to)
		if err != nil {
			return decimal.Zero, err
		}
		return amount.Mul(fromRate).Div(toRate), nil
	}
}

// publishRecorded emits a movement event without ever blocking or failing
// the ledger write path. Publishing is best effort: failures are logged and
// dropped, the log itself stays the source of truth.
func (s *Service) publishRecorded(m *movement.Movement) {
	if s.publisher == nil {
		return
	}

	recorded := *m
	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, recorded.ID.String(), &recorded); err != nil {
			s.logger.Error("Failed to publish movement event",
				"movement_id", recorded.ID.String(),
				"error", err,
			)
		}
	}

	if s.events == nil {
		task()
		return
	}
	if err := s.events.Submit(task); err != nil {
		s.logger.Warn("Event pool rejected movement event, publishing inline",
			"movement_id", m.ID.String(),
			"error", err,
		)
		task()
	}
}

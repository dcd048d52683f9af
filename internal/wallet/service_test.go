package wallet

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crypto-wallet-ledger/internal/domain/movement"
	"github.com/crypto-wallet-ledger/internal/domain/pricing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// memLog is an in-memory movement log used to exercise full ledger
// scenarios without a database.
type memLog struct {
	movements []movement.Movement
	appendErr error
}

func (l *memLog) Append(_ context.Context, m *movement.Movement) error {
	if l.appendErr != nil {
		return l.appendErr
	}
	l.movements = append(l.movements, *m)
	return nil
}

func (l *memLog) ReadAll(_ context.Context) ([]movement.Movement, error) {
	return l.movements, nil
}

// stubRates serves a fixed rate table, restricted to the requested symbols
// the way the real price cache does.
type stubRates struct {
	table pricing.Table
	err   error
}

func (s *stubRates) Rates(_ context.Context, symbols []string) (pricing.Table, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make(pricing.Table)
	for _, symbol := range symbols {
		if rate, ok := s.table[symbol]; ok {
			result[symbol] = rate
		}
	}
	return result, nil
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestService(log movement.Log, rates RateProvider) *Service {
	return NewService(newTestLogger(), log, rates, nil, nil, "EUR")
}

func TestService_Deposit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		log := &memLog{}
		svc := newTestService(log, &stubRates{})

		m, err := svc.Deposit(ctx, dec("100"))
		require.NoError(t, err)

		assert.Equal(t, "EUR", m.FromCurrency)
		assert.Equal(t, "EUR", m.ToCurrency)
		assert.True(t, m.FromQuantity.IsZero())
		assert.True(t, dec("100").Equal(m.ToQuantity))
		assert.True(t, m.IsDeposit())
		assert.Len(t, log.movements, 1)
	})

	t.Run("RejectsZeroAmount", func(t *testing.T) {
		log := &memLog{}
		svc := newTestService(log, &stubRates{})

		_, err := svc.Deposit(ctx, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Empty(t, log.movements)
	})

	t.Run("RejectsNegativeAmount", func(t *testing.T) {
		log := &memLog{}
		svc := newTestService(log, &stubRates{})

		_, err := svc.Deposit(ctx, dec("-5"))
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Empty(t, log.movements)
	})

	t.Run("AppendFailureSurfaces", func(t *testing.T) {
		log := &memLog{appendErr: movement.ErrAppendFailed{Cause: errors.New("db down")}}
		svc := newTestService(log, &stubRates{})

		_, err := svc.Deposit(ctx, dec("100"))
		assert.ErrorIs(t, err, movement.ErrAppendFailed{})
	})
}

func TestService_Trade(t *testing.T) {
	ctx := context.Background()
	rates := &stubRates{table: pricing.Table{
		"BTC": dec("50000"),
		"ETH": dec("3000"),
	}}

	t.Run("DepositThenTrade", func(t *testing.T) {
		log := &memLog{}
		svc := newTestService(log, rates)

		_, err := svc.Deposit(ctx, dec("100"))
		require.NoError(t, err)

		m, err := svc.Trade(ctx, "EUR", "BTC", dec("40"))
		require.NoError(t, err)
		assert.True(t, dec("0.0008").Equal(m.ToQuantity), "got %s", m.ToQuantity)

		assert.Len(t, log.movements, 2)
		assert.True(t, dec("60").Equal(BalanceOf(log.movements, "EUR")))
		assert.True(t, dec("0.0008").Equal(BalanceOf(log.movements, "BTC")))
	})

	t.Run("TradeIntoBase", func(t *testing.T) {
		log := &memLog{movements: []movement.Movement{
			*movement.NewTrade("EUR", dec("0"), "BTC", dec("0.001")),
		}}
		svc := newTestService(log, rates)

		m, err := svc.Trade(ctx, "BTC", "EUR", dec("0.001"))
		require.NoError(t, err)
		assert.True(t, dec("50").Equal(m.ToQuantity), "got %s", m.ToQuantity)
	})

	t.Run("CrossTradeGoesThroughBase", func(t *testing.T) {
		log := &memLog{movements: []movement.Movement{
			*movement.NewTrade("EUR", dec("0"), "BTC", dec("0.02")),
		}}
		svc := newTestService(log, rates)

		// 0.01 BTC -> 500 EUR -> 500/3000 ETH
		m, err := svc.Trade(ctx, "BTC", "ETH", dec("0.01"))
		require.NoError(t, err)
		assert.InDelta(t, 0.1666666667, m.ToQuantity.InexactFloat64(), 1e-9)
	})

	t.Run("InsufficientFundsLeavesLogUnchanged", func(t *testing.T) {
		log := &memLog{}
		svc := newTestService(log, rates)

		_, err := svc.Deposit(ctx, dec("10"))
		require.NoError(t, err)

		_, err = svc.Trade(ctx, "EUR", "BTC", dec("40"))

		var insufficient ErrInsufficientFunds
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, "EUR", insufficient.Currency)
		assert.True(t, dec("40").Equal(insufficient.Requested))
		assert.True(t, dec("10").Equal(insufficient.Available))
		assert.Len(t, log.movements, 1)
	})

	t.Run("MissingRateLeavesLogUnchanged", func(t *testing.T) {
		log := &memLog{}
		svc := newTestService(log, rates)

		_, err := svc.Deposit(ctx, dec("100"))
		require.NoError(t, err)

		_, err = svc.Trade(ctx, "EUR", "SHIB", dec("40"))
		assert.ErrorIs(t, err, pricing.ErrRateUnavailable{Symbol: "SHIB"})
		assert.Len(t, log.movements, 1)
	})

	t.Run("RejectsSameCurrency", func(t *testing.T) {
		svc := newTestService(&memLog{}, rates)

		_, err := svc.Trade(ctx, "EUR", "eur", dec("10"))
		assert.ErrorIs(t, err, ErrSameCurrency)
	})

	t.Run("RejectsNonPositiveAmount", func(t *testing.T) {
		svc := newTestService(&memLog{}, rates)

		_, err := svc.Trade(ctx, "EUR", "BTC", decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("NormalizesCurrencyCase", func(t *testing.T) {
		log := &memLog{}
		svc := newTestService(log, rates)

		_, err := svc.Deposit(ctx, dec("100"))
		require.NoError(t, err)

		m, err := svc.Trade(ctx, "eur", "btc", dec("40"))
		require.NoError(t, err)
		assert.Equal(t, "EUR", m.FromCurrency)
		assert.Equal(t, "BTC", m.ToCurrency)
	})
}

func TestService_PublishesMovementEvents(t *testing.T) {
	ctx := context.Background()
	log := &memLog{}

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil)

	svc := NewService(newTestLogger(), log, &stubRates{}, publisher, nil, "EUR")

	m, err := svc.Deposit(ctx, dec("100"))
	require.NoError(t, err)

	publisher.AssertCalled(t, "Publish", mock.Anything, m.ID.String(), mock.Anything)
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestService_PublishFailureDoesNotFailOperation(t *testing.T) {
	ctx := context.Background()
	log := &memLog{}

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := NewService(newTestLogger(), log, &stubRates{}, publisher, nil, "EUR")

	_, err := svc.Deposit(ctx, dec("100"))
	assert.NoError(t, err)
	assert.Len(t, log.movements, 1)
}

func TestService_Convert(t *testing.T) {
	ctx := context.Background()
	rates := &stubRates{table: pricing.Table{"BTC": dec("50000"), "ETH": dec("3000")}}
	svc := newTestService(&memLog{}, rates)

	t.Run("RoundTripThroughBase", func(t *testing.T) {
		out, err := svc.Convert(ctx, "EUR", "ETH", dec("100"))
		require.NoError(t, err)

		back, err := svc.Convert(ctx, "ETH", "EUR", out)
		require.NoError(t, err)
		assert.InDelta(t, 100, back.InexactFloat64(), 1e-6)
	})

	t.Run("IdentityConversion", func(t *testing.T) {
		out, err := svc.Convert(ctx, "BTC", "BTC", dec("1.5"))
		require.NoError(t, err)
		assert.True(t, dec("1.5").Equal(out))
	})

	t.Run("MissingRate", func(t *testing.T) {
		_, err := svc.Convert(ctx, "EUR", "ADA", dec("10"))
		assert.ErrorIs(t, err, pricing.ErrRateUnavailable{Symbol: "ADA"})
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		_, err := svc.Convert(ctx, "EUR", "BTC", dec("-1"))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestService_Balances(t *testing.T) {
	ctx := context.Background()
	log := &memLog{movements: []movement.Movement{
		*movement.NewDeposit("EUR", dec("100")),
		*movement.NewTrade("EUR", dec("40"), "BTC", dec("0.0008")),
	}}
	svc := newTestService(log, &stubRates{})

	balances, err := svc.Balances(ctx)
	require.NoError(t, err)
	assert.Len(t, balances, 2)
	assert.True(t, dec("60").Equal(balances["EUR"]))

	balance, err := svc.Balance(ctx, "btc")
	require.NoError(t, err)
	assert.True(t, dec("0.0008").Equal(balance))
}

func TestService_PortfolioValue(t *testing.T) {
	ctx := context.Background()

	t.Run("ValuesNonBaseHoldings", func(t *testing.T) {
		log := &memLog{movements: []movement.Movement{
			*movement.NewDeposit("EUR", dec("100")),
			*movement.NewTrade("EUR", dec("40"), "BTC", dec("0.0008")),
		}}
		rates := &stubRates{table: pricing.Table{"BTC": dec("50000")}}
		svc := newTestService(log, rates)

		value, err := svc.PortfolioValue(ctx)
		require.NoError(t, err)
		assert.True(t, dec("40").Equal(value.Spent), "spent: %s", value.Spent)
		assert.True(t, dec("40").Equal(value.CurrentValue), "value: %s", value.CurrentValue)
	})

	t.Run("EmptyWallet", func(t *testing.T) {
		svc := newTestService(&memLog{}, &stubRates{})

		value, err := svc.PortfolioValue(ctx)
		require.NoError(t, err)
		assert.True(t, value.Spent.IsZero())
		assert.True(t, value.CurrentValue.IsZero())
	})

	t.Run("MissingRateFails", func(t *testing.T) {
		log := &memLog{movements: []movement.Movement{
			*movement.NewDeposit("EUR", dec("100")),
			*movement.NewTrade("EUR", dec("40"), "BTC", dec("0.0008")),
		}}
		svc := newTestService(log, &stubRates{})

		_, err := svc.PortfolioValue(ctx)
		assert.ErrorIs(t, err, pricing.ErrRateUnavailable{Symbol: "BTC"})
	})
}

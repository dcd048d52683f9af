package wallet

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/crypto-wallet-ledger/internal/domain/movement"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBalanceOf(t *testing.T) {
	movements := []movement.Movement{
		*movement.NewDeposit("EUR", dec("100")),
		*movement.NewTrade("EUR", dec("40"), "BTC", dec("0.0008")),
		*movement.NewTrade("BTC", dec("0.0002"), "ETH", dec("0.0033")),
	}

	t.Run("BaseCurrency", func(t *testing.T) {
		assert.True(t, dec("60").Equal(BalanceOf(movements, "EUR")))
	})

	t.Run("TradedCurrency", func(t *testing.T) {
		assert.True(t, dec("0.0006").Equal(BalanceOf(movements, "BTC")))
	})

	t.Run("ReceivedOnly", func(t *testing.T) {
		assert.True(t, dec("0.0033").Equal(BalanceOf(movements, "ETH")))
	})

	t.Run("UnknownCurrency", func(t *testing.T) {
		assert.True(t, BalanceOf(movements, "DOGE").IsZero())
	})

	t.Run("EmptyLog", func(t *testing.T) {
		assert.True(t, BalanceOf(nil, "EUR").IsZero())
	})
}

func TestAllBalances(t *testing.T) {
	movements := []movement.Movement{
		*movement.NewDeposit("EUR", dec("100")),
		*movement.NewDeposit("EUR", dec("50")),
		*movement.NewTrade("EUR", dec("40"), "BTC", dec("0.0008")),
	}

	balances := AllBalances(movements)

	assert.Len(t, balances, 2)
	assert.True(t, dec("110").Equal(balances["EUR"]))
	assert.True(t, dec("0.0008").Equal(balances["BTC"]))
}

func TestAllBalances_EmptyLog(t *testing.T) {
	assert.Empty(t, AllBalances(nil))
}

// The fold creates and destroys no value: for every currency, summing
// ToQuantity credits minus FromQuantity debits across the whole log must
// reproduce AllBalances exactly, and AllBalances must agree with BalanceOf
// for every symbol it reports.
func TestAllBalances_ConservesValue(t *testing.T) {
	movements := []movement.Movement{
		*movement.NewDeposit("EUR", dec("100")),
		*movement.NewTrade("EUR", dec("40"), "BTC", dec("0.0008")),
		*movement.NewTrade("BTC", dec("0.0003"), "ETH", dec("0.005")),
		*movement.NewTrade("ETH", dec("0.001"), "EUR", dec("3")),
		*movement.NewDeposit("EUR", dec("25.50")),
	}

	balances := AllBalances(movements)

	credits := make(map[string]decimal.Decimal)
	debits := make(map[string]decimal.Decimal)
	for _, m := range movements {
		credits[m.ToCurrency] = credits[m.ToCurrency].Add(m.ToQuantity)
		debits[m.FromCurrency] = debits[m.FromCurrency].Add(m.FromQuantity)
	}

	seen := make(map[string]struct{})
	for c := range credits {
		seen[c] = struct{}{}
	}
	for c := range debits {
		seen[c] = struct{}{}
	}

	assert.Len(t, balances, len(seen))
	for currency := range seen {
		expected := credits[currency].Sub(debits[currency])
		assert.True(t, expected.Equal(balances[currency]), "balance mismatch for %s", currency)
		assert.True(t, expected.Equal(BalanceOf(movements, currency)), "BalanceOf disagrees for %s", currency)
	}
}

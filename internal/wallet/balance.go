package wallet

import (
	"github.com/shopspring/decimal"

	"github.com/crypto-wallet-ledger/internal/domain/movement"
)

// BalanceOf derives the net holding of a single currency by folding the
// movement log: credits of ToQuantity where the currency appears on the
// receiving side, debits of FromQuantity where it appears on the sending
// side. The fold itself does not enforce non-negativity; the ledger service
// rejects trades that would drive a balance negative before they reach the
// log.
func BalanceOf(movements []movement.Movement, currency string) decimal.Decimal {
	balance := decimal.Zero
	for _, m := range movements {
		if m.ToCurrency == currency {
			balance = balance.Add(m.ToQuantity)
		}
		if m.FromCurrency == currency {
			balance = balance.Sub(m.FromQuantity)
		}
	}
	return balance
}

// AllBalances derives the balance of every currency referenced on either
// side of any movement, exactly one entry per symbol, in no particular
// order.
func AllBalances(movements []movement.Movement) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal)
	for _, m := range movements {
		to, ok := balances[m.ToCurrency]
		if !ok {
			to = decimal.Zero
		}
		balances[m.ToCurrency] = to.Add(m.ToQuantity)

		from, ok := balances[m.FromCurrency]
		if !ok {
			from = decimal.Zero
		}
		balances[m.FromCurrency] = from.Sub(m.FromQuantity)
	}
	return balances
}

package wallet

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrSameCurrency  = errors.New("from and to currency must differ")
)

// ErrInsufficientFunds indicates a trade exceeding the available balance
type ErrInsufficientFunds struct {
	Currency  string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e ErrInsufficientFunds) Error() string {
	return "insufficient " + e.Currency + " funds: requested " + e.Requested.String() + ", available " + e.Available.String()
}

// Is implements the errors.Is interface for ErrInsufficientFunds
func (e ErrInsufficientFunds) Is(target error) bool {
	t, ok := target.(ErrInsufficientFunds)
	if !ok {
		return false
	}
	return t.Currency == "" || t.Currency == e.Currency
}

package movement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement is an immutable record of value moving from one currency slot to
// another. It is the only unit of ledger mutation: a deposit credits the base
// currency (FromQuantity is zero and both currency slots carry the base
// symbol), while a trade debits FromCurrency and credits ToCurrency in a
// single record. Corrections are made by appending compensating movements,
// never by editing the log.
type Movement struct {
	ID           uuid.UUID       `json:"id"`
	FromCurrency string          `json:"from_currency"`
	FromQuantity decimal.Decimal `json:"from_quantity"`
	ToCurrency   string          `json:"to_currency"`
	ToQuantity   decimal.Decimal `json:"to_quantity"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

// NewDeposit builds a deposit movement crediting amount units of the base
// currency. The recording timestamp is set here, at append time.
func NewDeposit(baseCurrency string, amount decimal.Decimal) *Movement {
	return &Movement{
		ID:           uuid.New(),
		FromCurrency: baseCurrency,
		FromQuantity: decimal.Zero,
		ToCurrency:   baseCurrency,
		ToQuantity:   amount,
		RecordedAt:   time.Now().UTC(),
	}
}

// NewTrade builds a trade movement debiting fromQuantity of fromCurrency and
// crediting toQuantity of toCurrency.
func NewTrade(fromCurrency string, fromQuantity decimal.Decimal, toCurrency string, toQuantity decimal.Decimal) *Movement {
	return &Movement{
		ID:           uuid.New(),
		FromCurrency: fromCurrency,
		FromQuantity: fromQuantity,
		ToCurrency:   toCurrency,
		ToQuantity:   toQuantity,
		RecordedAt:   time.Now().UTC(),
	}
}

// IsDeposit reports whether the movement is a pure deposit rather than a
// conversion between currencies.
func (m *Movement) IsDeposit() bool {
	return m.FromQuantity.IsZero() && m.FromCurrency == m.ToCurrency
}

package handler

import (
	"github.com/shopspring/decimal"
)

// DepositRequest represents a request to add base-currency funds
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// TradeRequest represents a request to convert between currencies
type TradeRequest struct {
	FromCurrency string          `json:"from_currency" binding:"required"`
	ToCurrency   string          `json:"to_currency" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
}

// MovementResponse represents one ledger movement in API responses
type MovementResponse struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	FromCurrency string `json:"from_currency"`
	FromQuantity string `json:"from_quantity"`
	ToCurrency   string `json:"to_currency"`
	ToQuantity   string `json:"to_quantity"`
	RecordedAt   string `json:"recorded_at"`
}

// MovementListResponse represents the movement log in API responses
type MovementListResponse struct {
	Movements []MovementResponse `json:"movements"`
}

// BalanceResponse represents one currency holding
type BalanceResponse struct {
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

// BalanceListResponse represents all currency holdings
type BalanceListResponse struct {
	Balances []BalanceResponse `json:"balances"`
}

// QuoteResponse represents a pure conversion calculation
type QuoteResponse struct {
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`
	Amount       string `json:"amount"`
	Result       string `json:"result"`
}

// PortfolioResponse represents the valuation of all holdings
type PortfolioResponse struct {
	BaseCurrency       string `json:"base_currency"`
	SpentInBase        string `json:"spent_in_base"`
	CurrentValueInBase string `json:"current_value_in_base"`
}

// SymbolsResponse represents the tradeable symbol universe
type SymbolsResponse struct {
	BaseCurrency string   `json:"base_currency"`
	Symbols      []string `json:"symbols"`
}

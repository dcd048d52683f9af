package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/crypto-wallet-ledger/internal/domain/movement"
	"github.com/crypto-wallet-ledger/internal/domain/pricing"
	"github.com/crypto-wallet-ledger/internal/wallet"
)

// WalletService defines the ledger operations the HTTP layer depends on
type WalletService interface {
	BaseCurrency() string
	Deposit(ctx context.Context, amount decimal.Decimal) (*movement.Movement, error)
	Trade(ctx context.Context, fromCurrency, toCurrency string, amount decimal.Decimal) (*movement.Movement, error)
	Convert(ctx context.Context, fromCurrency, toCurrency string, amount decimal.Decimal) (decimal.Decimal, error)
	Balance(ctx context.Context, currency string) (decimal.Decimal, error)
	Balances(ctx context.Context) (map[string]decimal.Decimal, error)
	Movements(ctx context.Context) ([]movement.Movement, error)
	PortfolioValue(ctx context.Context) (*wallet.PortfolioValue, error)
}

// WalletHandler handles HTTP requests for wallet operations
type WalletHandler struct {
	walletService WalletService
	symbols       []string
	logger        *slog.Logger
}

// NewWalletHandler creates a new wallet handler. symbols is the tradeable
// universe offered to clients.
func NewWalletHandler(logger *slog.Logger, walletService WalletService, symbols []string) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		symbols:       symbols,
		logger:        logger,
	}
}

// Deposit credits base-currency funds to the wallet
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid deposit request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	m, err := h.walletService.Deposit(c.Request.Context(), req.Amount)
	if err != nil {
		h.respondOperationError(c, err)
		return
	}

	RespondCreated(c, mapMovementToResponse(m))
}

// Trade converts funds between currencies at current rates
func (h *WalletHandler) Trade(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid trade request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	m, err := h.walletService.Trade(c.Request.Context(), req.FromCurrency, req.ToCurrency, req.Amount)
	if err != nil {
		h.respondOperationError(c, err)
		return
	}

	RespondCreated(c, mapMovementToResponse(m))
}

// Quote computes a conversion without recording a movement
func (h *WalletHandler) Quote(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	rawAmount := c.Query("amount")
	if from == "" || to == "" || rawAmount == "" {
		RespondBadRequest(c, "from, to and amount query parameters are required")
		return
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: "+rawAmount)
		return
	}

	result, err := h.walletService.Convert(c.Request.Context(), from, to, amount)
	if err != nil {
		h.respondOperationError(c, err)
		return
	}

	RespondOK(c, QuoteResponse{
		FromCurrency: from,
		ToCurrency:   to,
		Amount:       amount.String(),
		Result:       result.String(),
	})
}

// GetBalances returns the derived holding of every currency the log has seen
func (h *WalletHandler) GetBalances(c *gin.Context) {
	balances, err := h.walletService.Balances(c.Request.Context())
	if err != nil {
		h.respondOperationError(c, err)
		return
	}

	response := BalanceListResponse{Balances: make([]BalanceResponse, 0, len(balances))}
	for currency, balance := range balances {
		response.Balances = append(response.Balances, BalanceResponse{
			Currency: currency,
			Balance:  balance.String(),
		})
	}
	// Map iteration order is not stable; sort for a deterministic payload.
	sort.Slice(response.Balances, func(i, j int) bool {
		return response.Balances[i].Currency < response.Balances[j].Currency
	})

	RespondOK(c, response)
}

// GetBalance returns the derived holding of a single currency
func (h *WalletHandler) GetBalance(c *gin.Context) {
	currency := c.Param("currency")

	balance, err := h.walletService.Balance(c.Request.Context(), currency)
	if err != nil {
		h.respondOperationError(c, err)
		return
	}

	RespondOK(c, BalanceResponse{Currency: currency, Balance: balance.String()})
}

// GetMovements returns the movement log, newest first
func (h *WalletHandler) GetMovements(c *gin.Context) {
	movements, err := h.walletService.Movements(c.Request.Context())
	if err != nil {
		h.respondOperationError(c, err)
		return
	}

	response := MovementListResponse{Movements: make([]MovementResponse, 0, len(movements))}
	for i := len(movements) - 1; i >= 0; i-- {
		response.Movements = append(response.Movements, mapMovementToResponse(&movements[i]))
	}

	RespondOK(c, response)
}

// GetPortfolio returns base currency spent and the current value of holdings
func (h *WalletHandler) GetPortfolio(c *gin.Context) {
	value, err := h.walletService.PortfolioValue(c.Request.Context())
	if err != nil {
		h.respondOperationError(c, err)
		return
	}

	RespondOK(c, PortfolioResponse{
		BaseCurrency:       h.walletService.BaseCurrency(),
		SpentInBase:        value.Spent.String(),
		CurrentValueInBase: value.CurrentValue.String(),
	})
}

// GetSymbols returns the tradeable symbol universe
func (h *WalletHandler) GetSymbols(c *gin.Context) {
	RespondOK(c, SymbolsResponse{
		BaseCurrency: h.walletService.BaseCurrency(),
		Symbols:      h.symbols,
	})
}

// respondOperationError maps ledger errors to HTTP responses. Validation
// problems are the client's fault, missing prices and storage failures are
// not.
func (h *WalletHandler) respondOperationError(c *gin.Context, err error) {
	var insufficientFunds wallet.ErrInsufficientFunds
	var rateUnavailable pricing.ErrRateUnavailable

	switch {
	case errors.Is(err, wallet.ErrInvalidAmount), errors.Is(err, wallet.ErrSameCurrency):
		RespondBadRequest(c, err.Error())
	case errors.As(err, &insufficientFunds):
		RespondWithError(c, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", err.Error())
	case errors.As(err, &rateUnavailable):
		RespondWithError(c, http.StatusServiceUnavailable, "PRICE_UNAVAILABLE", err.Error())
	default:
		h.logger.Error("Wallet operation failed", "error", err)
		RespondInternalError(c)
	}
}

// mapMovementToResponse maps a movement to its response DTO
func mapMovementToResponse(m *movement.Movement) MovementResponse {
	kind := "trade"
	if m.IsDeposit() {
		kind = "deposit"
	}
	return MovementResponse{
		ID:           m.ID.String(),
		Kind:         kind,
		FromCurrency: m.FromCurrency,
		FromQuantity: m.FromQuantity.String(),
		ToCurrency:   m.ToCurrency,
		ToQuantity:   m.ToQuantity.String(),
		RecordedAt:   m.RecordedAt.Format(time.RFC3339),
	}
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crypto-wallet-ledger/internal/api/handler"
	"github.com/crypto-wallet-ledger/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, walletHandler *handler.WalletHandler) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		wallet := v1.Group("/wallet")
		{
			wallet.POST("/deposits", walletHandler.Deposit)
			wallet.POST("/trades", walletHandler.Trade)
			wallet.GET("/quote", walletHandler.Quote)
			wallet.GET("/balances", walletHandler.GetBalances)
			wallet.GET("/balances/:currency", walletHandler.GetBalance)
			wallet.GET("/movements", walletHandler.GetMovements)
			wallet.GET("/portfolio", walletHandler.GetPortfolio)
			wallet.GET("/symbols", walletHandler.GetSymbols)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}

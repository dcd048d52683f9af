package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/panjf2000/ants/v2"

	"github.com/crypto-wallet-ledger/internal/api"
	"github.com/crypto-wallet-ledger/internal/config"
	"github.com/crypto-wallet-ledger/internal/data/mongo"
	"github.com/crypto-wallet-ledger/internal/data/postgres"
	"github.com/crypto-wallet-ledger/internal/logger"
	"github.com/crypto-wallet-ledger/internal/platform/messaging/producers"
	"github.com/crypto-wallet-ledger/internal/platform/persistence"
	"github.com/crypto-wallet-ledger/internal/platform/pricesource"
	"github.com/crypto-wallet-ledger/internal/pricecache"
	"github.com/crypto-wallet-ledger/internal/wallet"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("walletd")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize movement event producer and the pool that decouples
	// publishing from the ledger write path
	movementProducer, err := producers.NewMovementEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize movement event producer", "error", err)
		os.Exit(1)
	}

	eventPool, err := ants.NewPool(cfg.WorkerPool.Size)
	if err != nil {
		log.Error("Failed to initialize event worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize repositories and the price cache
	movementLog := postgres.NewMovementRepository(log, postgresDB)
	rateStore := mongo.NewRateStore(log, mongoDB.Database())
	rateSource := pricesource.NewCoinAPIClient(log, &cfg.CoinAPI)
	priceCache := pricecache.New(log, rateStore, rateSource, cfg.Wallet.BaseCurrency)

	// Initialize the ledger service
	walletService := wallet.NewService(log, movementLog, priceCache, movementProducer, eventPool, cfg.Wallet.BaseCurrency)

	// Initialize REST server
	server := api.NewServer(log, cfg, walletService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error", "error", err)
	}

	// Graceful shutdown
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop HTTP server gracefully", "error", err)
	}

	eventPool.Release()
	if err := movementProducer.Close(); err != nil {
		log.Error("Failed to close movement event producer", "error", err)
	}
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Failed to close MongoDB connection", "error", err)
	}
	postgresDB.Close()

	log.Info("Shutdown complete")
}

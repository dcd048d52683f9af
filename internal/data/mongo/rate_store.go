// Package mongo provides the MongoDB implementation of the durable rate
// store consumed by the price cache.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crypto-wallet-ledger/internal/domain/pricing"
)

const (
	// RatesCollectionName is the name of the rates collection in MongoDB
	RatesCollectionName = "rates"
)

// rateDocument is the persisted shape of one cached rate. The rate is
// stored as a string to round-trip decimal values exactly.
type rateDocument struct {
	Symbol    string    `bson:"_id"`
	Rate      string    `bson:"rate"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// RateStore implements the pricing.Store interface for MongoDB
type RateStore struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewRateStore creates a new MongoDB rate store
func NewRateStore(logger *slog.Logger, db *mongo.Database) pricing.Store {
	return &RateStore{
		db:     db,
		logger: logger,
	}
}

// Load reads the full persisted rate table. Documents whose stored rate no
// longer parses are skipped and logged rather than failing the load.
func (s *RateStore) Load(ctx context.Context) (pricing.Table, error) {
	collection := s.db.Collection(RatesCollectionName)

	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		s.logger.Error("Failed to load rate cache", "error", err)
		return nil, fmt.Errorf("failed to load rate cache: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []rateDocument
	if err := cursor.All(ctx, &docs); err != nil {
		s.logger.Error("Failed to decode rate cache", "error", err)
		return nil, fmt.Errorf("failed to decode rate cache: %w", err)
	}

	rates := make(pricing.Table, len(docs))
	for _, doc := range docs {
		rate, err := decimal.NewFromString(doc.Rate)
		if err != nil {
			s.logger.Warn("Skipping unparseable cached rate",
				"symbol", doc.Symbol,
				"rate", doc.Rate,
				"error", err)
			continue
		}
		rates[doc.Symbol] = rate
	}

	return rates, nil
}

// Save upserts every entry of the given table. Symbols not present in the
// table keep their existing documents, so a partial refresh never erases
// previously cached rates.
func (s *RateStore) Save(ctx context.Context, rates pricing.Table) error {
	if len(rates) == 0 {
		return nil
	}

	collection := s.db.Collection(RatesCollectionName)

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(rates))
	for symbol, rate := range rates {
		doc := rateDocument{
			Symbol:    symbol,
			Rate:      rate.String(),
			UpdatedAt: now,
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": symbol}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	_, err := collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		s.logger.Error("Failed to save rate cache", "count", len(models), "error", err)
		return fmt.Errorf("failed to save rate cache: %w", err)
	}

	return nil
}

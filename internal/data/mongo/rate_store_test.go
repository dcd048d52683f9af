package mongo

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestNewRateStore(t *testing.T) {
	db := &mongo.Database{}
	logger := slog.Default()

	store := NewRateStore(logger, db)

	assert.NotNil(t, store)
	assert.IsType(t, &RateStore{}, store)
}

func TestRateStore_Save_EmptyTableIsNoOp(t *testing.T) {
	// A nil database is safe here: an empty table must return before any
	// collection access, so a partial refresh with nothing new writes nothing.
	store := &RateStore{db: nil, logger: slog.Default()}

	err := store.Save(context.Background(), nil)
	assert.NoError(t, err)
}

// Load/Save against a real collection are covered by integration environments;
// the mongo driver's concrete types cannot be mocked without a live server.

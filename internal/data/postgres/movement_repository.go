// Package postgres provides the PostgreSQL implementation of the movement
// log. The log is append-only: there is no update or delete path, and the
// seq column preserves append order for full scans.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crypto-wallet-ledger/internal/domain/movement"
	"github.com/crypto-wallet-ledger/internal/platform/persistence"
)

// MovementRepository implements the movement.Log interface for PostgreSQL
type MovementRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewMovementRepository creates a new PostgreSQL movement repository.
func NewMovementRepository(logger *slog.Logger, db *persistence.PostgresDB) movement.Log {
	return &MovementRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Append durably stores a movement. The single-row insert is atomic, so
// concurrent appends cannot interleave and readers never observe a partial
// movement. Returns ErrAppendFailed if the store rejects the write.
func (r *MovementRepository) Append(ctx context.Context, m *movement.Movement) error {
	query := `
		INSERT INTO movements (id, from_currency, from_quantity, to_currency, to_quantity, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		m.ID,
		m.FromCurrency,
		m.FromQuantity,
		m.ToCurrency,
		m.ToQuantity,
		m.RecordedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append movement", "movement_id", m.ID.String(), "error", err)
		return movement.ErrAppendFailed{Cause: err}
	}

	return nil
}

// ReadAll scans the full movement log in append order, oldest first.
func (r *MovementRepository) ReadAll(ctx context.Context) ([]movement.Movement, error) {
	query := `
		SELECT id, from_currency, from_quantity, to_currency, to_quantity, recorded_at
		FROM movements
		ORDER BY seq
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to read movements", "error", err)
		return nil, fmt.Errorf("failed to read movements: %w", err)
	}
	defer rows.Close()

	var movements []movement.Movement
	for rows.Next() {
		var m movement.Movement
		err := rows.Scan(
			&m.ID,
			&m.FromCurrency,
			&m.FromQuantity,
			&m.ToCurrency,
			&m.ToQuantity,
			&m.RecordedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan movement", "error", err)
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate movements", "error", err)
		return nil, fmt.Errorf("failed to iterate movements: %w", err)
	}

	return movements, nil
}

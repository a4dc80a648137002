package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/procurement-flow/internal/application/port"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	"github.com/garyjia/procurement-flow/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history entry. Entries are never updated or deleted.
func (r *HistoryRepository) Create(ctx context.Context, history *entity.RequestHistory) error {
	query := `
		INSERT INTO request_history (
			id, request_id, actor_id, actor_role, action,
			previous_status, new_status, comment, signature, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		history.ID,
		history.RequestID,
		history.ActorID,
		history.ActorRole,
		history.Action,
		history.PreviousStatus,
		history.NewStatus,
		history.Comment,
		history.Signature,
		history.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history record",
			zap.String("request_id", history.RequestID),
			zap.String("action", history.Action),
			zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	return nil
}

// GetByRequestID retrieves the audit trail of a request in the order it was written
func (r *HistoryRepository) GetByRequestID(ctx context.Context, requestID string) ([]*entity.RequestHistory, error) {
	query := `
		SELECT id, request_id, actor_id, actor_role, action,
			previous_status, new_status, comment, signature, timestamp
		FROM request_history
		WHERE request_id = ?
		ORDER BY timestamp ASC, rowid ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get history by request ID", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.RequestHistory, 0)
	for rows.Next() {
		var record entity.RequestHistory
		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.ActorID,
			&record.ActorRole,
			&record.Action,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.Comment,
			&record.Signature,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

func (r *HistoryRepository) getExecutor(ctx context.Context) sqlite.Querier {
	return sqlite.Executor(ctx, r.db)
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)

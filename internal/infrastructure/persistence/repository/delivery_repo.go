package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/procurement-flow/internal/application/port"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	"github.com/garyjia/procurement-flow/internal/infrastructure/persistence/sqlite"
)

// DeliveryRepository implements port.DeliveryRepository
type DeliveryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDeliveryRepository creates a new delivery repository
func NewDeliveryRepository(db *sql.DB, logger *zap.Logger) port.DeliveryRepository {
	return &DeliveryRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a delivery together with its items.
// Callers run it inside a transaction when the delivery must appear atomically.
func (r *DeliveryRepository) Create(ctx context.Context, delivery *entity.Delivery) error {
	exec := r.getExecutor(ctx)

	now := time.Now().UTC()
	if delivery.CreatedAt.IsZero() {
		delivery.CreatedAt = now
	}
	if delivery.UpdatedAt.IsZero() {
		delivery.UpdatedAt = delivery.CreatedAt
	}

	_, err := exec.ExecContext(ctx, `
		INSERT INTO deliveries (id, request_id, deliverer_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		delivery.ID,
		delivery.RequestID,
		delivery.DelivererID,
		delivery.Status,
		delivery.CreatedAt,
		delivery.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create delivery", zap.String("request_id", delivery.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create delivery: %w", err)
	}

	for _, item := range delivery.Items {
		item.DeliveryID = delivery.ID
		_, err := exec.ExecContext(ctx, `
			INSERT INTO delivery_items (id, delivery_id, line_item_id, quantity)
			VALUES (?, ?, ?, ?)
		`, item.ID, item.DeliveryID, item.LineItemID, item.Quantity)
		if err != nil {
			r.logger.Error("Failed to create delivery item",
				zap.String("delivery_id", delivery.ID),
				zap.String("line_item_id", item.LineItemID),
				zap.Error(err))
			return fmt.Errorf("failed to create delivery item: %w", err)
		}
	}

	return nil
}

// GetByRequestID retrieves the deliveries of a request with their items, oldest first
func (r *DeliveryRepository) GetByRequestID(ctx context.Context, requestID string) ([]*entity.Delivery, error) {
	exec := r.getExecutor(ctx)

	rows, err := exec.QueryContext(ctx, `
		SELECT id, request_id, deliverer_id, status, created_at, updated_at
		FROM deliveries
		WHERE request_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, requestID)
	if err != nil {
		r.logger.Error("Failed to get deliveries", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get deliveries: %w", err)
	}

	var deliveries []*entity.Delivery
	byID := make(map[string]*entity.Delivery)
	for rows.Next() {
		var d entity.Delivery
		if err := rows.Scan(&d.ID, &d.RequestID, &d.DelivererID, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		d.Items = []*entity.DeliveryItem{}
		deliveries = append(deliveries, &d)
		byID[d.ID] = &d
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// single connection databases cannot run a second query while rows is open
	rows.Close()

	if len(deliveries) == 0 {
		return deliveries, nil
	}

	itemRows, err := exec.QueryContext(ctx, `
		SELECT di.id, di.delivery_id, di.line_item_id, di.quantity
		FROM delivery_items di
		JOIN deliveries d ON d.id = di.delivery_id
		WHERE d.request_id = ?
		ORDER BY di.rowid ASC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item entity.DeliveryItem
		if err := itemRows.Scan(&item.ID, &item.DeliveryID, &item.LineItemID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan delivery item: %w", err)
		}
		if d, ok := byID[item.DeliveryID]; ok {
			d.Items = append(d.Items, &item)
		}
	}

	return deliveries, itemRows.Err()
}

// UpdateStatus moves a delivery to a new status
func (r *DeliveryRepository) UpdateStatus(ctx context.Context, id string, status entity.DeliveryStatus) error {
	query := `UPDATE deliveries SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to update delivery status",
			zap.String("id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return fmt.Errorf("failed to update delivery status: %w", err)
	}

	return requireRow(result, "delivery", id)
}

func (r *DeliveryRepository) getExecutor(ctx context.Context) sqlite.Querier {
	return sqlite.Executor(ctx, r.db)
}

// Verify interface compliance
var _ port.DeliveryRepository = (*DeliveryRepository)(nil)

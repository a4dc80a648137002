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

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores an in-app notification
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			id, recipient_id, request_id, kind, previous_status, new_status,
			actor_id, message, read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.RequestID,
		n.Kind,
		n.PreviousStatus,
		n.NewStatus,
		n.ActorID,
		n.Message,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("recipient_id", n.RecipientID),
			zap.String("request_id", n.RequestID),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListByRecipient retrieves the notifications of a user, newest first
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, error) {
	query := `
		SELECT id, recipient_id, request_id, kind, previous_status, new_status,
			actor_id, message, read, created_at
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, recipientID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("recipient_id", recipientID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*entity.Notification, 0)
	for rows.Next() {
		var n entity.Notification
		err := rows.Scan(
			&n.ID,
			&n.RecipientID,
			&n.RequestID,
			&n.Kind,
			&n.PreviousStatus,
			&n.NewStatus,
			&n.ActorID,
			&n.Message,
			&n.Read,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// MarkRead flags a notification as read. Only its recipient may do so.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	query := `UPDATE notifications SET read = 1 WHERE id = ? AND recipient_id = ?`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, id, recipientID)
	if err != nil {
		r.logger.Error("Failed to mark notification read", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return requireRow(result, "notification", id)
}

func (r *NotificationRepository) getExecutor(ctx context.Context) sqlite.Querier {
	return sqlite.Executor(ctx, r.db)
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)

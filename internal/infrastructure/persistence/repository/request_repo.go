package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/procurement-flow/internal/application/port"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	"github.com/garyjia/procurement-flow/internal/domain/workflow"
	"github.com/garyjia/procurement-flow/internal/infrastructure/persistence/sqlite"
)

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, seq, number, category, status, project_id, owner_id, requester_role,
	deliverer_id, parent_id, comment, rejection_reason, desired_delivery_date,
	total_cost, cost_committed_at, carrier_received_at, delivered_at,
	version, created_at, updated_at`

// Create inserts a request. The sequence number is allocated in the same statement;
// an empty Number becomes PR-<seq padded to 6 digits>.
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	query := `
		INSERT INTO requests (
			id, seq, number, category, status, project_id, owner_id, requester_role,
			deliverer_id, parent_id, comment, rejection_reason, desired_delivery_date,
			total_cost, cost_committed_at, carrier_received_at, delivered_at,
			version, created_at, updated_at
		) VALUES (
			?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM requests),
			CASE WHEN ? = '' THEN printf('PR-%06d', (SELECT COALESCE(MAX(seq), 0) + 1 FROM requests)) ELSE ? END,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?
		)
	`

	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = req.CreatedAt
	}

	exec := r.getExecutor(ctx)
	_, err := exec.ExecContext(ctx, query,
		req.ID,
		req.Number, req.Number,
		req.Category,
		req.Status,
		req.ProjectID,
		req.OwnerID,
		req.RequesterRole,
		req.DelivererID,
		req.ParentID,
		req.Comment,
		req.RejectionReason,
		req.DesiredDeliveryDate,
		req.TotalCost,
		req.CostCommittedAt,
		req.CarrierReceivedAt,
		req.DeliveredAt,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	err = exec.QueryRowContext(ctx, `SELECT seq, number FROM requests WHERE id = ?`, req.ID).Scan(&req.Seq, &req.Number)
	if err != nil {
		return fmt.Errorf("failed to read request number: %w", err)
	}
	req.Version = 1
	return nil
}

// GetByID retrieves a request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`

	req, err := scanRequest(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// Update writes the mutable columns when the stored version matches req.Version
func (r *RequestRepository) Update(ctx context.Context, req *entity.Request) error {
	query := `
		UPDATE requests SET
			status = ?, deliverer_id = ?, comment = ?, rejection_reason = ?,
			desired_delivery_date = ?, total_cost = ?, cost_committed_at = ?,
			carrier_received_at = ?, delivered_at = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = time.Now().UTC()
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		req.Status,
		req.DelivererID,
		req.Comment,
		req.RejectionReason,
		req.DesiredDeliveryDate,
		req.TotalCost,
		req.CostCommittedAt,
		req.CarrierReceivedAt,
		req.DeliveredAt,
		req.UpdatedAt,
		req.ID,
		req.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		r.logger.Info("Stale request version",
			zap.String("id", req.ID),
			zap.Int64("version", req.Version))
		return fmt.Errorf("request %s changed since version %d: %w", req.ID, req.Version, workflow.ErrConflict)
	}

	req.Version++
	return nil
}

// List retrieves requests matching the filter, newest first
func (r *RequestRepository) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.Request, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.ProjectID != "" {
		conds = append(conds, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.OwnerID != "" {
		conds = append(conds, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}

	query := `SELECT ` + requestColumns + ` FROM requests`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY seq DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*entity.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func (r *RequestRepository) getExecutor(ctx context.Context) sqlite.Querier {
	return sqlite.Executor(ctx, r.db)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*entity.Request, error) {
	var req entity.Request
	var totalCost decimal.Decimal
	var desired, committed, carrierAt, deliveredAt sql.NullTime

	err := row.Scan(
		&req.ID,
		&req.Seq,
		&req.Number,
		&req.Category,
		&req.Status,
		&req.ProjectID,
		&req.OwnerID,
		&req.RequesterRole,
		&req.DelivererID,
		&req.ParentID,
		&req.Comment,
		&req.RejectionReason,
		&desired,
		&totalCost,
		&committed,
		&carrierAt,
		&deliveredAt,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.TotalCost = totalCost
	req.DesiredDeliveryDate = timeOrNil(desired)
	req.CostCommittedAt = timeOrNil(committed)
	req.CarrierReceivedAt = timeOrNil(carrierAt)
	req.DeliveredAt = timeOrNil(deliveredAt)
	return &req, nil
}

func timeOrNil(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)

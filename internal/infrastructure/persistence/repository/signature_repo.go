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

// SignatureRepository implements port.SignatureRepository
type SignatureRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSignatureRepository creates a new signature repository
func NewSignatureRepository(db *sql.DB, logger *zap.Logger) port.SignatureRepository {
	return &SignatureRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert records the validation signature of a stage. A second signature for the same
// stage overwrites the first; the row id of the first is kept.
func (r *SignatureRepository) Upsert(ctx context.Context, sig *entity.ValidationSignature) error {
	query := `
		INSERT INTO validation_signatures (
			id, request_id, stage_type, signer_id, role, comment, signed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id, stage_type) DO UPDATE SET
			signer_id = excluded.signer_id,
			role = excluded.role,
			comment = excluded.comment,
			signed_at = excluded.signed_at
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		sig.ID,
		sig.RequestID,
		sig.StageType,
		sig.SignerID,
		sig.Role,
		sig.Comment,
		sig.SignedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert validation signature",
			zap.String("request_id", sig.RequestID),
			zap.String("stage_type", sig.StageType),
			zap.Error(err))
		return fmt.Errorf("failed to upsert signature: %w", err)
	}

	return nil
}

// GetByRequestID retrieves the validation signatures of a request, oldest first
func (r *SignatureRepository) GetByRequestID(ctx context.Context, requestID string) ([]*entity.ValidationSignature, error) {
	query := `
		SELECT id, request_id, stage_type, signer_id, role, comment, signed_at
		FROM validation_signatures
		WHERE request_id = ?
		ORDER BY signed_at ASC, rowid ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get signatures", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get signatures: %w", err)
	}
	defer rows.Close()

	var sigs []*entity.ValidationSignature
	for rows.Next() {
		var sig entity.ValidationSignature
		err := rows.Scan(
			&sig.ID,
			&sig.RequestID,
			&sig.StageType,
			&sig.SignerID,
			&sig.Role,
			&sig.Comment,
			&sig.SignedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signature: %w", err)
		}
		sigs = append(sigs, &sig)
	}

	return sigs, rows.Err()
}

// CreateIssuance records who released goods at preparation
func (r *SignatureRepository) CreateIssuance(ctx context.Context, sig *entity.IssuanceSignature) error {
	query := `
		INSERT INTO issuance_signatures (
			id, request_id, signer_id, role, deliverer_id, signed_at, editable_until
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		sig.ID,
		sig.RequestID,
		sig.SignerID,
		sig.Role,
		sig.DelivererID,
		sig.SignedAt,
		sig.EditableUntil,
	)
	if err != nil {
		r.logger.Error("Failed to create issuance signature", zap.String("request_id", sig.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create issuance signature: %w", err)
	}

	return nil
}

// GetIssuancesByRequestID retrieves the issuance signatures of a request, oldest first
func (r *SignatureRepository) GetIssuancesByRequestID(ctx context.Context, requestID string) ([]*entity.IssuanceSignature, error) {
	query := `
		SELECT id, request_id, signer_id, role, deliverer_id, signed_at, editable_until
		FROM issuance_signatures
		WHERE request_id = ?
		ORDER BY signed_at ASC, rowid ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get issuance signatures", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get issuance signatures: %w", err)
	}
	defer rows.Close()

	var sigs []*entity.IssuanceSignature
	for rows.Next() {
		var sig entity.IssuanceSignature
		err := rows.Scan(
			&sig.ID,
			&sig.RequestID,
			&sig.SignerID,
			&sig.Role,
			&sig.DelivererID,
			&sig.SignedAt,
			&sig.EditableUntil,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issuance signature: %w", err)
		}
		sigs = append(sigs, &sig)
	}

	return sigs, rows.Err()
}

func (r *SignatureRepository) getExecutor(ctx context.Context) sqlite.Querier {
	return sqlite.Executor(ctx, r.db)
}

// Verify interface compliance
var _ port.SignatureRepository = (*SignatureRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/procurement-flow/internal/application/port"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	"github.com/garyjia/procurement-flow/internal/infrastructure/persistence/sqlite"
)

// ItemRepository implements port.ItemRepository
type ItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewItemRepository creates a new line item repository
func NewItemRepository(db *sql.DB, logger *zap.Logger) port.ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new line item
func (r *ItemRepository) Create(ctx context.Context, item *entity.LineItem) error {
	query := `
		INSERT INTO line_items (
			id, request_id, article_id, article_name, article_unit, article_ref,
			requested_qty, validated_qty, issued_qty, received_qty, unit_price,
			comment, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		item.ID,
		item.RequestID,
		item.ArticleID,
		item.ArticleName,
		item.ArticleUnit,
		item.ArticleRef,
		item.RequestedQty,
		item.ValidatedQty,
		item.IssuedQty,
		item.ReceivedQty,
		nullDecimal(item.UnitPrice),
		item.Comment,
		item.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create line item",
			zap.String("request_id", item.RequestID),
			zap.Error(err))
		return fmt.Errorf("failed to create line item: %w", err)
	}

	return nil
}

// GetByRequestID retrieves the line items of a request in insertion order
func (r *ItemRepository) GetByRequestID(ctx context.Context, requestID string) ([]*entity.LineItem, error) {
	query := `
		SELECT id, request_id, article_id, article_name, article_unit, article_ref,
			requested_qty, validated_qty, issued_qty, received_qty, unit_price,
			comment, created_at
		FROM line_items
		WHERE request_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get line items", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	var items []*entity.LineItem
	for rows.Next() {
		var (
			item      entity.LineItem
			validated sql.NullFloat64
			received  sql.NullFloat64
			price     decimal.NullDecimal
		)

		err := rows.Scan(
			&item.ID,
			&item.RequestID,
			&item.ArticleID,
			&item.ArticleName,
			&item.ArticleUnit,
			&item.ArticleRef,
			&item.RequestedQty,
			&validated,
			&item.IssuedQty,
			&received,
			&price,
			&item.Comment,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}

		item.ValidatedQty = floatOrNil(validated)
		item.ReceivedQty = floatOrNil(received)
		if price.Valid {
			p := price.Decimal
			item.UnitPrice = &p
		}

		items = append(items, &item)
	}

	return items, rows.Err()
}

// Update rewrites the editable fields of a line item
func (r *ItemRepository) Update(ctx context.Context, item *entity.LineItem) error {
	query := `
		UPDATE line_items SET
			article_name = ?, article_ref = ?, requested_qty = ?, validated_qty = ?,
			issued_qty = ?, received_qty = ?, unit_price = ?, comment = ?
		WHERE id = ?
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		item.ArticleName,
		item.ArticleRef,
		item.RequestedQty,
		item.ValidatedQty,
		item.IssuedQty,
		item.ReceivedQty,
		nullDecimal(item.UnitPrice),
		item.Comment,
		item.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update line item", zap.String("id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to update line item: %w", err)
	}

	return requireRow(result, "line item", item.ID)
}

func (r *ItemRepository) getExecutor(ctx context.Context) sqlite.Querier {
	return sqlite.Executor(ctx, r.db)
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func floatOrNil(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// Verify interface compliance
var _ port.ItemRepository = (*ItemRepository)(nil)

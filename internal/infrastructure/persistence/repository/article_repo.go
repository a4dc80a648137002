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

// ArticleRepository implements port.ArticleRepository
type ArticleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *sql.DB, logger *zap.Logger) port.ArticleRepository {
	return &ArticleRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a catalog article, replacing an existing one with the same id
func (r *ArticleRepository) Create(ctx context.Context, article *entity.Article) error {
	query := `
		INSERT INTO articles (id, name, unit, reference, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			unit = excluded.unit,
			reference = excluded.reference,
			updated_at = excluded.updated_at
	`

	if article.UpdatedAt.IsZero() {
		article.UpdatedAt = time.Now().UTC()
	}

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		article.ID,
		article.Name,
		article.Unit,
		article.Reference,
		article.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create article", zap.String("id", article.ID), zap.Error(err))
		return fmt.Errorf("failed to create article: %w", err)
	}

	return nil
}

// GetByID retrieves an article by ID
func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*entity.Article, error) {
	query := `SELECT id, name, unit, reference, updated_at FROM articles WHERE id = ?`

	var article entity.Article
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, id).Scan(
		&article.ID,
		&article.Name,
		&article.Unit,
		&article.Reference,
		&article.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get article by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return &article, nil
}

// UpdateMasterData changes name and reference; nil arguments keep the stored value
func (r *ArticleRepository) UpdateMasterData(ctx context.Context, id string, name, reference *string) error {
	query := `
		UPDATE articles SET
			name = COALESCE(?, name),
			reference = COALESCE(?, reference),
			updated_at = ?
		WHERE id = ?
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, name, reference, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to update article", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update article: %w", err)
	}

	return requireRow(result, "article", id)
}

func (r *ArticleRepository) getExecutor(ctx context.Context) sqlite.Querier {
	return sqlite.Executor(ctx, r.db)
}

// Verify interface compliance
var _ port.ArticleRepository = (*ArticleRepository)(nil)

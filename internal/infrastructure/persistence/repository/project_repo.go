package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/procurement-flow/internal/application/port"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	"github.com/garyjia/procurement-flow/internal/domain/workflow"
	"github.com/garyjia/procurement-flow/internal/infrastructure/persistence/sqlite"
)

// ProjectRepository implements port.ProjectRepository
type ProjectRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB, logger *zap.Logger) port.ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a project
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	query := `
		INSERT INTO projects (id, code, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET code = excluded.code, name = excluded.name
	`

	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, project.ID, project.Code, project.Name, project.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create project", zap.String("id", project.ID), zap.Error(err))
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	query := `SELECT id, code, name, created_at FROM projects WHERE id = ?`

	var project entity.Project
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.Code,
		&project.Name,
		&project.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get project by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// AddMember attaches a user to a project. Adding an existing member is a no-op.
func (r *ProjectRepository) AddMember(ctx context.Context, projectID, userID string) error {
	query := `INSERT OR IGNORE INTO project_members (project_id, user_id) VALUES (?, ?)`

	if _, err := r.getExecutor(ctx).ExecContext(ctx, query, projectID, userID); err != nil {
		r.logger.Error("Failed to add project member",
			zap.String("project_id", projectID),
			zap.String("user_id", userID),
			zap.Error(err))
		return fmt.Errorf("failed to add project member: %w", err)
	}

	return nil
}

// IsMember reports whether the user belongs to the project
func (r *ProjectRepository) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id = ? AND user_id = ?)`

	var exists bool
	if err := r.getExecutor(ctx).QueryRowContext(ctx, query, projectID, userID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check project membership",
			zap.String("project_id", projectID),
			zap.String("user_id", userID),
			zap.Error(err))
		return false, fmt.Errorf("failed to check membership: %w", err)
	}

	return exists, nil
}

// MembersWithRole lists the project members holding role, ordered by id
func (r *ProjectRepository) MembersWithRole(ctx context.Context, projectID string, role workflow.Role) ([]*entity.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role, u.lark_open_id, u.slack_user_id, u.created_at
		FROM users u
		JOIN project_members pm ON pm.user_id = u.id
		WHERE pm.project_id = ? AND u.role = ?
		ORDER BY u.id ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, projectID, role)
	if err != nil {
		r.logger.Error("Failed to list project members", zap.String("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *ProjectRepository) getExecutor(ctx context.Context) sqlite.Querier {
	return sqlite.Executor(ctx, r.db)
}

// Verify interface compliance
var _ port.ProjectRepository = (*ProjectRepository)(nil)

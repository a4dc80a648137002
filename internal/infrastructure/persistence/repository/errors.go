package repository

import (
	"database/sql"
	"fmt"

	"github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// requireRow turns a write that touched no row into a wrapped workflow.ErrNotFound
func requireRow(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, workflow.ErrNotFound)
	}
	return nil
}

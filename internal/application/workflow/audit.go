package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/procurement-flow/internal/application/port"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
)

func (d *Decider) historyEntry(requestID string, actor entity.Actor, action string, prev, next domainwf.State, comment string, at time.Time) *entity.RequestHistory {
	return &entity.RequestHistory{
		ID:             d.newID(),
		RequestID:      requestID,
		ActorID:        actor.ID,
		ActorRole:      actor.Role,
		Action:         action,
		PreviousStatus: prev,
		NewStatus:      next,
		Comment:        comment,
		Signature:      entity.HistorySignature(actor.ID, at, action),
		Timestamp:      at,
	}
}

// AuditRecorder appends history entries. Entries are never updated or deleted.
type AuditRecorder struct {
	repo port.HistoryRepository
}

// NewAuditRecorder creates a recorder over the history repository
func NewAuditRecorder(repo port.HistoryRepository) *AuditRecorder {
	return &AuditRecorder{repo: repo}
}

// Record appends entries in order
func (a *AuditRecorder) Record(ctx context.Context, entries ...*entity.RequestHistory) error {
	for _, h := range entries {
		if err := a.repo.Create(ctx, h); err != nil {
			return fmt.Errorf("failed to record %s history for request %s: %w", h.Action, h.RequestID, err)
		}
	}
	return nil
}

// Trail returns the history of a request, oldest first
func (a *AuditRecorder) Trail(ctx context.Context, requestID string) ([]*entity.RequestHistory, error) {
	entries, err := a.repo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for request %s: %w", requestID, err)
	}
	return entries, nil
}

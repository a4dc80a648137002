package entity

import (
	"fmt"
	"time"

	"github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// History action labels that are not plain action names
const (
	HistoryActionCreation     = "creation"
	HistoryActionPricing      = "pricing"
	HistoryActionChildCreated = "creation_sous_demande"
	HistoryActionChildOrigin  = "creation_automatique"
)

// RequestHistory is the append-only audit trail of a request
type RequestHistory struct {
	ID             string         `json:"id"`
	RequestID      string         `json:"request_id"`
	ActorID        string         `json:"actor_id"`
	ActorRole      workflow.Role  `json:"actor_role"`
	Action         string         `json:"action"`
	PreviousStatus workflow.State `json:"previous_status"`
	NewStatus      workflow.State `json:"new_status"`
	Comment        string         `json:"comment,omitempty"`
	Signature      string         `json:"signature"`
	Timestamp      time.Time      `json:"timestamp"`
}

// HistorySignature builds the traceability string stored on each entry
func HistorySignature(actorID string, at time.Time, action string) string {
	return fmt.Sprintf("%s|%s|%s", actorID, at.UTC().Format(time.RFC3339Nano), action)
}

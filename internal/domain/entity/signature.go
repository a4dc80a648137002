package entity

import (
	"time"

	"github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// ValidationSignature proves who validated a stage. Unique per (RequestID, StageType).
type ValidationSignature struct {
	ID        string        `json:"id"`
	RequestID string        `json:"request_id"`
	StageType string        `json:"stage_type"`
	SignerID  string        `json:"signer_id"`
	Role      workflow.Role `json:"role"`
	Comment   string        `json:"comment,omitempty"`
	SignedAt  time.Time     `json:"signed_at"`
}

// IssuanceSignature records who released goods at preparation.
// EditableUntil is a deadline read by downstream tooling; the engine does not enforce it.
type IssuanceSignature struct {
	ID            string        `json:"id"`
	RequestID     string        `json:"request_id"`
	SignerID      string        `json:"signer_id"`
	Role          workflow.Role `json:"role"`
	DelivererID   string        `json:"deliverer_id"`
	SignedAt      time.Time     `json:"signed_at"`
	EditableUntil time.Time     `json:"editable_until"`
}

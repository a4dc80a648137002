package entity

import (
	"strings"
	"time"

	"github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// Notification kinds
const (
	NotificationKindStatusChanged     = "status_changed"
	NotificationKindDelivererAssigned = "deliverer_assigned"
	NotificationKindOverrideTaken     = "override_taken"
)

// Notification is an in-app record created for a recipient after an accepted action
type Notification struct {
	ID             string         `json:"id"`
	RecipientID    string         `json:"recipient_id"`
	RequestID      string         `json:"request_id"`
	Kind           string         `json:"kind"`
	PreviousStatus workflow.State `json:"previous_status,omitempty"`
	NewStatus      workflow.State `json:"new_status,omitempty"`
	ActorID        string         `json:"actor_id"`
	Message        string         `json:"message"`
	Read           bool           `json:"read"`
	CreatedAt      time.Time      `json:"created_at"`
}

// StatusNotice is handed to outbound channels after a transition commits
type StatusNotice struct {
	RequestID      string         `json:"request_id"`
	RequestNumber  string         `json:"request_number"`
	PreviousStatus workflow.State `json:"previous_status"`
	NewStatus      workflow.State `json:"new_status"`
	// RecipientHint names who should hear about it: a user id, or a role to resolve
	RecipientHint string `json:"recipient_hint"`
	ActorID       string `json:"actor_id"`
}

// AssignmentNotice is handed to outbound channels when a deliverer is assigned
type AssignmentNotice struct {
	RequestID     string `json:"request_id"`
	RequestNumber string `json:"request_number"`
	DelivererID   string `json:"deliverer_id"`
	AssignerID    string `json:"assigner_id"`
}

// OverrideNotice tells the previously responsible validator that control was taken
type OverrideNotice struct {
	RequestID      string         `json:"request_id"`
	RequestNumber  string         `json:"request_number"`
	PreviousStatus workflow.State `json:"previous_status"`
	NewStatus      workflow.State `json:"new_status"`
	PreviousRole   workflow.Role  `json:"previous_role"`
	ActorID        string         `json:"actor_id"`
}

// Recipient hints name either a user or a role to be resolved against project members
const (
	hintUserPrefix = "user:"
	hintRolePrefix = "role:"
)

// UserHint addresses a single user
func UserHint(userID string) string {
	return hintUserPrefix + userID
}

// RoleHint addresses every project member holding the role
func RoleHint(role workflow.Role) string {
	return hintRolePrefix + string(role)
}

// ParseHint splits a recipient hint. ok is false for malformed hints.
func ParseHint(hint string) (userID string, role workflow.Role, ok bool) {
	switch {
	case strings.HasPrefix(hint, hintUserPrefix) && len(hint) > len(hintUserPrefix):
		return strings.TrimPrefix(hint, hintUserPrefix), workflow.RoleNone, true
	case strings.HasPrefix(hint, hintRolePrefix):
		r := workflow.Role(strings.TrimPrefix(hint, hintRolePrefix))
		if r.IsValid() {
			return "", r, true
		}
	}
	return "", workflow.RoleNone, false
}

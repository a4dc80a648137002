package event

// Type identifies the type of domain event
type Type string

const (
	TypeStatusChanged     Type = "request.status_changed"
	TypeDelivererAssigned Type = "request.deliverer_assigned"
	TypeOverrideTaken     Type = "request.override_taken"
	TypeChildCreated      Type = "request.child_created"
)

// Payload keys shared by producers and handlers
const (
	KeyPreviousStatus = "previous_status"
	KeyNewStatus      = "new_status"
	KeyRecipientHint  = "recipient_hint"
	KeyDelivererID    = "deliverer_id"
	KeyPreviousRole   = "previous_role"
	KeyChildID        = "child_id"
	KeyChildNumber    = "child_number"
	KeyComment        = "comment"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeStatusChanged,
		TypeDelivererAssigned,
		TypeOverrideTaken,
		TypeChildCreated:
		return true
	default:
		return false
	}
}

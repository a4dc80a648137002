package workflow

// Trigger represents an action a caller can invoke against a request
type Trigger string

const (
	TriggerSubmit                Trigger = "submit"
	TriggerValidate              Trigger = "validate"
	TriggerPrepareOutgoing       Trigger = "prepare_outgoing"
	TriggerConfirmCarrierReceipt Trigger = "confirm_carrier_receipt"
	TriggerConfirmDelivery       Trigger = "confirm_delivery"
	TriggerClose                 Trigger = "close"
	TriggerCancel                Trigger = "cancel"
	TriggerReject                Trigger = "reject"
	TriggerResend                Trigger = "resend"
	TriggerOverride              Trigger = "override"
	TriggerArchive               Trigger = "archive"
	TriggerUpdateValidated       Trigger = "update_validated_quantities"
	TriggerUpdatePricing         Trigger = "update_quantities_and_pricing"
)

var validTriggers = map[Trigger]bool{
	TriggerSubmit:                true,
	TriggerValidate:              true,
	TriggerPrepareOutgoing:       true,
	TriggerConfirmCarrierReceipt: true,
	TriggerConfirmDelivery:       true,
	TriggerClose:                 true,
	TriggerCancel:                true,
	TriggerReject:                true,
	TriggerResend:                true,
	TriggerOverride:              true,
	TriggerArchive:               true,
	TriggerUpdateValidated:       true,
	TriggerUpdatePricing:         true,
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// IsValid returns true for known actions
func (t Trigger) IsValid() bool {
	return validTriggers[t]
}

// ReturnsEarly reports whether the action skips the common status/history/notification tail
func (t Trigger) ReturnsEarly() bool {
	return t == TriggerUpdateValidated || t == TriggerUpdatePricing
}

package workflow

// State represents a request status in the procurement lifecycle
type State string

const (
	StateDraft                       State = "draft"
	StateSubmitted                   State = "submitted"
	StateAwaitingSiteSupervisor      State = "awaiting_site_supervisor"
	StateAwaitingLogisticsManager    State = "awaiting_logistics_manager"
	StateAwaitingWorksManager        State = "awaiting_works_manager"
	StateAwaitingProjectManager      State = "awaiting_project_manager"
	StateAwaitingSupplyPrep          State = "awaiting_supply_prep"
	StateAwaitingLogisticsPrep       State = "awaiting_logistics_prep"
	StateAwaitingCarrierReceipt      State = "awaiting_carrier_receipt"
	StateAwaitingDelivery            State = "awaiting_delivery"
	StateAwaitingRequesterFinalCheck State = "awaiting_requester_final_check"
	StateClosed                      State = "closed"
	StateRejected                    State = "rejected"
	StateCancelled                   State = "cancelled"
	StateArchived                    State = "archived"
)

var validStates = map[State]bool{
	StateDraft:                       true,
	StateSubmitted:                   true,
	StateAwaitingSiteSupervisor:      true,
	StateAwaitingLogisticsManager:    true,
	StateAwaitingWorksManager:        true,
	StateAwaitingProjectManager:      true,
	StateAwaitingSupplyPrep:          true,
	StateAwaitingLogisticsPrep:       true,
	StateAwaitingCarrierReceipt:      true,
	StateAwaitingDelivery:            true,
	StateAwaitingRequesterFinalCheck: true,
	StateClosed:                      true,
	StateRejected:                    true,
	StateCancelled:                   true,
	StateArchived:                    true,
}

var terminalStates = map[State]bool{
	StateRejected:  true,
	StateCancelled: true,
	StateArchived:  true,
}

// validationStates are the four stages where a validator approves or rejects
var validationStates = map[State]bool{
	StateAwaitingSiteSupervisor:   true,
	StateAwaitingLogisticsManager: true,
	StateAwaitingWorksManager:     true,
	StateAwaitingProjectManager:   true,
}

// cancellableStates lists the early statuses a requester may still withdraw from
var cancellableStates = map[State]bool{
	StateDraft:                    true,
	StateSubmitted:                true,
	StateAwaitingSiteSupervisor:   true,
	StateAwaitingLogisticsManager: true,
}

// IsTerminal returns true if no ordinary action can move the request further.
// Rejected requests can still be resent.
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValidation returns true for the awaiting-validation stages
func (s State) IsValidation() bool {
	return validationStates[s]
}

// IsCancellable returns true if the requester may cancel from this status
func (s State) IsCancellable() bool {
	return cancellableStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known request status
func (s State) IsValid() bool {
	return validStates[s]
}

// AllStates returns every known status in a stable order
func AllStates() []State {
	return []State{
		StateDraft,
		StateSubmitted,
		StateAwaitingSiteSupervisor,
		StateAwaitingLogisticsManager,
		StateAwaitingWorksManager,
		StateAwaitingProjectManager,
		StateAwaitingSupplyPrep,
		StateAwaitingLogisticsPrep,
		StateAwaitingCarrierReceipt,
		StateAwaitingDelivery,
		StateAwaitingRequesterFinalCheck,
		StateClosed,
		StateRejected,
		StateCancelled,
		StateArchived,
	}
}

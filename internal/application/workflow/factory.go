package workflow

import (
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// actionTable is configured once; machines built from it are independent copies.
var actionTable = buildActionTable()

// BuildRequestStateMachine creates a state machine for a request in the given status
func BuildRequestStateMachine(initialState domainwf.State) domainwf.StateMachine {
	return actionTable.Build(initialState)
}

func buildActionTable() domainwf.StateMachineBuilder {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit).
		Permit(domainwf.TriggerCancel).
		Permit(domainwf.TriggerOverride)

	builder.Configure(domainwf.StateSubmitted).
		Permit(domainwf.TriggerSubmit).
		Permit(domainwf.TriggerCancel).
		Permit(domainwf.TriggerOverride)

	// Validation stages
	for _, s := range []domainwf.State{
		domainwf.StateAwaitingSiteSupervisor,
		domainwf.StateAwaitingLogisticsManager,
		domainwf.StateAwaitingWorksManager,
		domainwf.StateAwaitingProjectManager,
	} {
		cfg := builder.Configure(s).
			Permit(domainwf.TriggerValidate).
			Permit(domainwf.TriggerReject).
			Permit(domainwf.TriggerUpdateValidated).
			Permit(domainwf.TriggerOverride)
		if s.IsCancellable() {
			cfg.Permit(domainwf.TriggerCancel)
		}
	}

	// Preparation stages
	for _, s := range []domainwf.State{
		domainwf.StateAwaitingSupplyPrep,
		domainwf.StateAwaitingLogisticsPrep,
	} {
		builder.Configure(s).
			Permit(domainwf.TriggerPrepareOutgoing).
			Permit(domainwf.TriggerUpdateValidated).
			Permit(domainwf.TriggerUpdatePricing).
			Permit(domainwf.TriggerOverride)
	}

	builder.Configure(domainwf.StateAwaitingCarrierReceipt).
		Permit(domainwf.TriggerConfirmCarrierReceipt).
		Permit(domainwf.TriggerUpdatePricing).
		Permit(domainwf.TriggerOverride)

	builder.Configure(domainwf.StateAwaitingDelivery).
		Permit(domainwf.TriggerConfirmDelivery).
		Permit(domainwf.TriggerUpdatePricing).
		Permit(domainwf.TriggerOverride)

	builder.Configure(domainwf.StateAwaitingRequesterFinalCheck).
		Permit(domainwf.TriggerClose).
		Permit(domainwf.TriggerUpdatePricing).
		Permit(domainwf.TriggerOverride)

	builder.Configure(domainwf.StateClosed).
		Permit(domainwf.TriggerArchive).
		Permit(domainwf.TriggerOverride)

	builder.Configure(domainwf.StateRejected).
		Permit(domainwf.TriggerResend).
		Permit(domainwf.TriggerOverride)

	builder.Configure(domainwf.StateCancelled).
		Permit(domainwf.TriggerOverride)

	// ARCHIVED is final - no outgoing actions, not even override

	return builder
}

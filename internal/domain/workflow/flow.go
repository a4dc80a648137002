package workflow

// Flow is the ordered backbone of statuses a category walks through
type Flow []State

var materialFlow = Flow{
	StateSubmitted,
	StateAwaitingSiteSupervisor,
	StateAwaitingWorksManager,
	StateAwaitingProjectManager,
	StateAwaitingSupplyPrep,
	StateAwaitingCarrierReceipt,
	StateAwaitingDelivery,
	StateAwaitingRequesterFinalCheck,
	StateClosed,
}

var toolingFlow = Flow{
	StateSubmitted,
	StateAwaitingLogisticsManager,
	StateAwaitingWorksManager,
	StateAwaitingProjectManager,
	StateAwaitingLogisticsPrep,
	StateAwaitingCarrierReceipt,
	StateAwaitingDelivery,
	StateAwaitingRequesterFinalCheck,
	StateClosed,
}

// stageAuthority maps each awaiting status to the single role entitled to act on it.
// The final check belongs to the request owner, not to a role.
var stageAuthority = map[State]Role{
	StateAwaitingSiteSupervisor:   RoleSiteSupervisor,
	StateAwaitingLogisticsManager: RoleLogisticsManager,
	StateAwaitingWorksManager:     RoleWorksManager,
	StateAwaitingProjectManager:   RoleProjectManager,
	StateAwaitingSupplyPrep:       RoleSupply,
	StateAwaitingLogisticsPrep:    RoleLogistics,
	StateAwaitingCarrierReceipt:   RoleCarrier,
	StateAwaitingDelivery:         RoleCarrier,
}

// stageTypes names the validation signature recorded for each validation stage
var stageTypes = map[State]string{
	StateAwaitingSiteSupervisor:   "site_supervisor_validation",
	StateAwaitingLogisticsManager: "logistics_manager_validation",
	StateAwaitingWorksManager:     "works_manager_validation",
	StateAwaitingProjectManager:   "project_manager_validation",
}

// Index returns the position of s in the flow, or -1
func (f Flow) Index(s State) int {
	for i, st := range f {
		if st == s {
			return i
		}
	}
	return -1
}

// Contains reports whether s belongs to the flow
func (f Flow) Contains(s State) bool {
	return f.Index(s) >= 0
}

// Last returns the final status of the flow
func (f Flow) Last() State {
	return f[len(f)-1]
}

// FlowFor returns a copy of the flow for the category, or nil for an unknown category
func FlowFor(c Category) Flow {
	switch c {
	case CategoryMaterial:
		return append(Flow{}, materialFlow...)
	case CategoryTooling:
		return append(Flow{}, toolingFlow...)
	}
	return nil
}

// AuthorityFor returns the role entitled to act on the status
func AuthorityFor(s State) (Role, bool) {
	r, ok := stageAuthority[s]
	return r, ok
}

// IsAuthority reports whether role r is the authority for status s
func IsAuthority(r Role, s State) bool {
	if r == RoleNone {
		return false
	}
	auth, ok := stageAuthority[s]
	return ok && auth == r
}

// StageTypeFor returns the signature stage type derived from a validation status
func StageTypeFor(s State) (string, bool) {
	t, ok := stageTypes[s]
	return t, ok
}

// FirstValidationState is where a resent request restarts
func FirstValidationState(c Category) State {
	if c == CategoryTooling {
		return StateAwaitingLogisticsManager
	}
	return StateAwaitingSiteSupervisor
}

// PreparationState is where a category prepares outgoing goods and where child requests enter
func PreparationState(c Category) State {
	if c == CategoryTooling {
		return StateAwaitingLogisticsPrep
	}
	return StateAwaitingSupplyPrep
}

// PreparationRole is the role that prepares outgoing goods for the category
func PreparationRole(c Category) Role {
	if c == CategoryTooling {
		return RoleLogistics
	}
	return RoleSupply
}

package workflow

// Resolution carries the inputs of one next-status computation
type Resolution struct {
	Current       State
	ActingRole    Role
	Category      Category
	RequesterRole Role
	// ExplicitTarget is honoured only for the override role
	ExplicitTarget State
}

// Resolver computes next statuses from the fixed flows. It holds no mutable state.
type Resolver struct {
	flows map[Category]Flow
}

// NewResolver creates a resolver over the material and tooling flows
func NewResolver() *Resolver {
	return &Resolver{
		flows: map[Category]Flow{
			CategoryMaterial: FlowFor(CategoryMaterial),
			CategoryTooling:  FlowFor(CategoryTooling),
		},
	}
}

// Resolve returns the next status, or false when no transition exists.
// Skip-ahead is applied when RequesterRole is set; pass RoleNone for the naive successor.
func (r *Resolver) Resolve(in Resolution) (State, bool) {
	if in.ExplicitTarget != "" {
		if !in.ActingRole.IsOverride() || !in.ExplicitTarget.IsValid() {
			return "", false
		}
		return in.ExplicitTarget, true
	}

	flow, ok := r.flows[in.Category]
	if !ok {
		return "", false
	}

	idx := flow.Index(in.Current)
	if idx < 0 || idx == len(flow)-1 {
		return "", false
	}

	// The project-manager stage branches by category and never skips.
	if in.Current == StateAwaitingProjectManager {
		return PreparationState(in.Category), true
	}

	next := idx + 1
	for next < len(flow)-1 && IsAuthority(in.RequesterRole, flow[next]) {
		next++
	}
	return flow[next], true
}

// Next returns the naive successor without skip-ahead
func (r *Resolver) Next(current State, category Category) (State, bool) {
	return r.Resolve(Resolution{Current: current, Category: category})
}

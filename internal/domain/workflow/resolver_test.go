package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_NaiveSuccessor(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name     string
		category Category
		current  State
		want     State
	}{
		{"material submit", CategoryMaterial, StateSubmitted, StateAwaitingSiteSupervisor},
		{"material site supervisor", CategoryMaterial, StateAwaitingSiteSupervisor, StateAwaitingWorksManager},
		{"material works manager", CategoryMaterial, StateAwaitingWorksManager, StateAwaitingProjectManager},
		{"material project manager", CategoryMaterial, StateAwaitingProjectManager, StateAwaitingSupplyPrep},
		{"material prep", CategoryMaterial, StateAwaitingSupplyPrep, StateAwaitingCarrierReceipt},
		{"material receipt", CategoryMaterial, StateAwaitingCarrierReceipt, StateAwaitingDelivery},
		{"material delivery", CategoryMaterial, StateAwaitingDelivery, StateAwaitingRequesterFinalCheck},
		{"material final check", CategoryMaterial, StateAwaitingRequesterFinalCheck, StateClosed},
		{"tooling submit", CategoryTooling, StateSubmitted, StateAwaitingLogisticsManager},
		{"tooling logistics manager", CategoryTooling, StateAwaitingLogisticsManager, StateAwaitingWorksManager},
		{"tooling project manager", CategoryTooling, StateAwaitingProjectManager, StateAwaitingLogisticsPrep},
		{"tooling prep", CategoryTooling, StateAwaitingLogisticsPrep, StateAwaitingCarrierReceipt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Next(tt.current, tt.category)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_NoTransition(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name     string
		category Category
		current  State
	}{
		{"last status", CategoryMaterial, StateClosed},
		{"status outside flow", CategoryMaterial, StateRejected},
		{"draft is outside the backbone", CategoryTooling, StateDraft},
		{"tooling stage in material flow", CategoryMaterial, StateAwaitingLogisticsPrep},
		{"material stage in tooling flow", CategoryTooling, StateAwaitingSiteSupervisor},
		{"unknown category", Category("furniture"), StateSubmitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := r.Next(tt.current, tt.category)
			assert.False(t, ok)
		})
	}
}

func TestResolver_SkipAhead(t *testing.T) {
	r := NewResolver()

	t.Run("works manager requester skips own stage", func(t *testing.T) {
		got, ok := r.Resolve(Resolution{
			Current:       StateAwaitingSiteSupervisor,
			ActingRole:    RoleSiteSupervisor,
			Category:      CategoryMaterial,
			RequesterRole: RoleWorksManager,
		})
		require.True(t, ok)
		assert.Equal(t, StateAwaitingProjectManager, got)
	})

	t.Run("site supervisor requester submits past own stage", func(t *testing.T) {
		got, ok := r.Resolve(Resolution{
			Current:       StateSubmitted,
			ActingRole:    RoleSiteSupervisor,
			Category:      CategoryMaterial,
			RequesterRole: RoleSiteSupervisor,
		})
		require.True(t, ok)
		assert.Equal(t, StateAwaitingWorksManager, got)
	})

	t.Run("project manager requester skips into preparation", func(t *testing.T) {
		got, ok := r.Resolve(Resolution{
			Current:       StateAwaitingWorksManager,
			ActingRole:    RoleWorksManager,
			Category:      CategoryTooling,
			RequesterRole: RoleProjectManager,
		})
		require.True(t, ok)
		assert.Equal(t, StateAwaitingLogisticsPrep, got)
	})

	t.Run("employee requester never skips", func(t *testing.T) {
		got, ok := r.Resolve(Resolution{
			Current:       StateAwaitingSiteSupervisor,
			ActingRole:    RoleSiteSupervisor,
			Category:      CategoryMaterial,
			RequesterRole: RoleEmployee,
		})
		require.True(t, ok)
		assert.Equal(t, StateAwaitingWorksManager, got)
	})

	t.Run("project manager stage branches before skip-ahead", func(t *testing.T) {
		// A supply requester would otherwise skip the supply preparation stage.
		got, ok := r.Resolve(Resolution{
			Current:       StateAwaitingProjectManager,
			ActingRole:    RoleProjectManager,
			Category:      CategoryMaterial,
			RequesterRole: RoleSupply,
		})
		require.True(t, ok)
		assert.Equal(t, StateAwaitingSupplyPrep, got)
	})
}

// Every requester role that is the authority of N consecutive stages after the
// current one must clear all of them in a single resolution.
func TestResolver_SkipAheadClearsConsecutiveStages(t *testing.T) {
	r := &Resolver{flows: map[Category]Flow{
		CategoryMaterial: {
			StateSubmitted,
			StateAwaitingSiteSupervisor,
			StateAwaitingCarrierReceipt,
			StateAwaitingDelivery,
			StateAwaitingRequesterFinalCheck,
			StateClosed,
		},
	}}

	got, ok := r.Resolve(Resolution{
		Current:       StateAwaitingSiteSupervisor,
		ActingRole:    RoleSiteSupervisor,
		Category:      CategoryMaterial,
		RequesterRole: RoleCarrier,
	})
	require.True(t, ok)
	assert.Equal(t, StateAwaitingRequesterFinalCheck, got)
}

func TestResolver_ExplicitTarget(t *testing.T) {
	r := NewResolver()

	t.Run("override role gets target verbatim", func(t *testing.T) {
		got, ok := r.Resolve(Resolution{
			Current:        StateAwaitingSiteSupervisor,
			ActingRole:     RoleAdmin,
			Category:       CategoryMaterial,
			ExplicitTarget: StateAwaitingDelivery,
		})
		require.True(t, ok)
		assert.Equal(t, StateAwaitingDelivery, got)
	})

	t.Run("ordinary role cannot force a target", func(t *testing.T) {
		_, ok := r.Resolve(Resolution{
			Current:        StateAwaitingSiteSupervisor,
			ActingRole:     RoleSiteSupervisor,
			Category:       CategoryMaterial,
			ExplicitTarget: StateClosed,
		})
		assert.False(t, ok)
	})

	t.Run("unknown target is refused", func(t *testing.T) {
		_, ok := r.Resolve(Resolution{
			Current:        StateAwaitingSiteSupervisor,
			ActingRole:     RoleAdmin,
			Category:       CategoryMaterial,
			ExplicitTarget: State("limbo"),
		})
		assert.False(t, ok)
	})
}

// Walking the flow with any requester role only ever moves forward.
func TestResolver_Monotonic(t *testing.T) {
	r := NewResolver()

	for _, category := range []Category{CategoryMaterial, CategoryTooling} {
		flow := FlowFor(category)
		for _, requester := range AllRoles() {
			current := StateSubmitted
			for current != flow.Last() {
				next, ok := r.Resolve(Resolution{Current: current, Category: category, RequesterRole: requester})
				require.True(t, ok, "%s/%s stuck at %s", category, requester, current)
				assert.Greater(t, flow.Index(next), flow.Index(current))
				current = next
			}
		}
	}
}

func TestAuthorityTable(t *testing.T) {
	for _, s := range AllStates() {
		auth, ok := AuthorityFor(s)
		if !ok {
			continue
		}
		assert.True(t, auth.IsValid(), "authority of %s", s)
		assert.True(t, IsAuthority(auth, s))
		assert.False(t, IsAuthority(RoleNone, s))
	}

	for s := range validationStates {
		_, ok := AuthorityFor(s)
		assert.True(t, ok, "validation stage %s needs an authority", s)
		_, ok = StageTypeFor(s)
		assert.True(t, ok, "validation stage %s needs a signature stage type", s)
	}

	_, ok := AuthorityFor(StateAwaitingRequesterFinalCheck)
	assert.False(t, ok, "final check belongs to the owner")
}

func TestCategoryStages(t *testing.T) {
	assert.Equal(t, StateAwaitingSiteSupervisor, FirstValidationState(CategoryMaterial))
	assert.Equal(t, StateAwaitingLogisticsManager, FirstValidationState(CategoryTooling))
	assert.Equal(t, StateAwaitingSupplyPrep, PreparationState(CategoryMaterial))
	assert.Equal(t, StateAwaitingLogisticsPrep, PreparationState(CategoryTooling))
	assert.Equal(t, RoleSupply, PreparationRole(CategoryMaterial))
	assert.Equal(t, RoleLogistics, PreparationRole(CategoryTooling))
}

func TestFlowFor_ReturnsCopy(t *testing.T) {
	f := FlowFor(CategoryMaterial)
	f[0] = StateClosed
	assert.Equal(t, StateSubmitted, FlowFor(CategoryMaterial)[0])
}

package workflow

import (
	"fmt"
)

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates a new state machine instance with the given initial state
	Build(initialState State) StateMachine
}

// StateConfiguration configures which triggers are legal from a specific state.
// Target states are not configured here; they come from the Resolver or the action itself.
type StateConfiguration interface {
	// Permit allows a trigger to be attempted from the state
	Permit(trigger Trigger) StateConfiguration
}

// stateConfig implements StateConfiguration
type stateConfig struct {
	fromState State
	triggers  map[Trigger]bool
}

// stateMachineBuilder implements StateMachineBuilder
type stateMachineBuilder struct {
	configurations map[State]*stateConfig
}

// stateMachine implements StateMachine
type stateMachine struct {
	currentState   State
	configurations map[State]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
	}
}

// Configure returns a state configuration for the given state
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState: state,
			triggers:  make(map[Trigger]bool),
		}
		b.configurations[state] = config
	}

	return config
}

// Build creates a new state machine instance with the given initial state
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	// Deep copy so later Configure calls do not leak into built machines
	configsCopy := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		triggersCopy := make(map[Trigger]bool, len(config.triggers))
		for trigger := range config.triggers {
			triggersCopy[trigger] = true
		}
		configsCopy[state] = &stateConfig{
			fromState: state,
			triggers:  triggersCopy,
		}
	}

	return &stateMachine{
		currentState:   initialState,
		configurations: configsCopy,
	}
}

// Permit allows a trigger to be attempted from the state
func (c *stateConfig) Permit(trigger Trigger) StateConfiguration {
	if !trigger.IsValid() {
		panic(fmt.Sprintf("invalid trigger: %s", trigger))
	}
	c.triggers[trigger] = true
	return c
}

// State returns the current state
func (m *stateMachine) State() State {
	return m.currentState
}

// CanFire returns true if the trigger is permitted in the current state
func (m *stateMachine) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}
	return config.triggers[trigger]
}

// Fire moves the machine to target if the trigger is permitted in the current state
func (m *stateMachine) Fire(trigger Trigger, target State) error {
	if !m.CanFire(trigger) {
		return fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.currentState)
	}
	if !target.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidState, target)
	}
	m.currentState = target
	return nil
}

// PermittedTriggers returns all triggers that can be fired in the current state, in a stable order
func (m *stateMachine) PermittedTriggers() []Trigger {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.triggers))
	for _, t := range orderedTriggers {
		if config.triggers[t] {
			triggers = append(triggers, t)
		}
	}
	return triggers
}

var orderedTriggers = []Trigger{
	TriggerSubmit,
	TriggerValidate,
	TriggerReject,
	TriggerUpdateValidated,
	TriggerPrepareOutgoing,
	TriggerUpdatePricing,
	TriggerConfirmCarrierReceipt,
	TriggerConfirmDelivery,
	TriggerClose,
	TriggerCancel,
	TriggerResend,
	TriggerArchive,
	TriggerOverride,
}

package workflow

// StateMachine tracks a request's current status and which actions are legal from it
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire moves to target if the trigger is permitted in the current state
	Fire(trigger Trigger, target State) error

	// PermittedTriggers returns all triggers that can be fired in the current state
	PermittedTriggers() []Trigger
}

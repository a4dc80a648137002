package workflow

import (
	"context"

	"github.com/garyjia/procurement-flow/internal/domain/entity"
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// WorkflowEngine runs the request lifecycle: one action per call, one transaction per action
type WorkflowEngine interface {
	// Create records a new request owned by the actor, optionally submitting it at once
	Create(ctx context.Context, actor entity.Actor, in CreateInput) (*Outcome, error)

	// Execute authorizes and applies an action to a request
	Execute(ctx context.Context, requestID string, actor entity.Actor, action domainwf.Trigger, payload Payload) (*Outcome, error)

	// PermittedActions lists the actions the actor may attempt in the request's current status
	PermittedActions(ctx context.Context, requestID string, actor entity.Actor) ([]domainwf.Trigger, error)
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

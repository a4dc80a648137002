package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/procurement-flow/internal/application/dispatcher"
	"github.com/garyjia/procurement-flow/internal/application/port"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	"github.com/garyjia/procurement-flow/internal/domain/event"
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// engineImpl loads a snapshot, asks the Decider for a plan, applies the plan atomically,
// then publishes the plan's events once the transaction has committed
type engineImpl struct {
	repos      port.Repositories
	txManager  port.TransactionManager
	decider    *Decider
	audit      *AuditRecorder
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for post-commit events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets the engine logger
func WithLogger(logger Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = logger
	}
}

// WithDecider replaces the default decider
func WithDecider(d *Decider) EngineOption {
	return func(e *engineImpl) {
		e.decider = d
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(repos port.Repositories, txManager port.TransactionManager, opts ...EngineOption) WorkflowEngine {
	e := &engineImpl{
		repos:     repos,
		txManager: txManager,
		decider:   NewDecider(),
		audit:     NewAuditRecorder(repos.History),
		logger:    nopLogger{},
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Create records a new request in draft, or submits it in the same transaction
func (e *engineImpl) Create(ctx context.Context, actor entity.Actor, in CreateInput) (*Outcome, error) {
	if err := validateCreate(actor, in); err != nil {
		return nil, err
	}

	var (
		req   *entity.Request
		plan  *Plan
		items []*entity.LineItem
	)

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		project, err := e.repos.Projects.GetByID(txCtx, in.ProjectID)
		if err != nil {
			return fmt.Errorf("failed to load project: %w", err)
		}
		if project == nil {
			return domainwf.Missing("project %s not found", in.ProjectID)
		}
		if !actor.Role.IsOverride() {
			member, err := e.repos.Projects.IsMember(txCtx, in.ProjectID, actor.ID)
			if err != nil {
				return fmt.Errorf("failed to check project membership: %w", err)
			}
			if !member {
				return domainwf.Deny(domainwf.ReasonNotProjectMember, "user %s is not a member of project %s", actor.ID, in.ProjectID)
			}
		}

		now := e.now()
		req = &entity.Request{
			ID:                  e.decider.newID(),
			Category:            in.Category,
			Status:              domainwf.StateDraft,
			ProjectID:           in.ProjectID,
			OwnerID:             actor.ID,
			RequesterRole:       actor.Role,
			Comment:             in.Comment,
			DesiredDeliveryDate: in.DesiredDeliveryDate,
			TotalCost:           decimal.Zero,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if in.Submit {
			req.Status = domainwf.StateSubmitted
		}

		items = make([]*entity.LineItem, 0, len(in.Items))
		for _, ci := range in.Items {
			article, err := e.repos.Articles.GetByID(txCtx, ci.ArticleID)
			if err != nil {
				return fmt.Errorf("failed to load article: %w", err)
			}
			if article == nil {
				return domainwf.Missing("article %s not found", ci.ArticleID)
			}
			items = append(items, &entity.LineItem{
				ID:           e.decider.newID(),
				RequestID:    req.ID,
				ArticleID:    article.ID,
				ArticleName:  article.Name,
				ArticleUnit:  article.Unit,
				ArticleRef:   article.Reference,
				RequestedQty: ci.Quantity,
				CreatedAt:    now,
			})
		}

		if err := e.repos.Requests.Create(txCtx, req); err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		for _, it := range items {
			if err := e.repos.Items.Create(txCtx, it); err != nil {
				return fmt.Errorf("failed to create line item: %w", err)
			}
		}

		if !in.Submit {
			return e.audit.Record(txCtx, e.decider.historyEntry(req.ID, actor, entity.HistoryActionCreation,
				"", domainwf.StateDraft, in.Comment, now))
		}

		snap := &Snapshot{Request: req, Items: items, ActorIsMember: true, Now: now}
		plan, err = e.decider.Decide(snap, actor, domainwf.TriggerSubmit, Payload{Comment: in.Comment})
		if err != nil {
			return err
		}
		return e.apply(txCtx, plan)
	})
	if err != nil {
		e.logRejection("Request creation failed", "", domainwf.TriggerSubmit, actor, err)
		return nil, err
	}

	if plan == nil {
		e.logger.Info("Request created", "request_id", req.ID, "number", req.Number, "actor_id", actor.ID)
		return &Outcome{Request: req, NewStatus: req.Status}, nil
	}

	e.logger.Info("Request created and submitted",
		"request_id", req.ID,
		"number", plan.Request.Number,
		"status", plan.Next,
		"actor_id", actor.ID,
	)
	e.publish(ctx, plan.Events)
	return outcomeOf(plan), nil
}

func validateCreate(actor entity.Actor, in CreateInput) error {
	if actor.ID == "" || !actor.Role.IsValid() {
		return domainwf.Invalid("a known actor is required")
	}
	if !in.Category.IsValid() {
		return domainwf.Invalid("unknown category %q", in.Category)
	}
	if strings.TrimSpace(in.ProjectID) == "" {
		return domainwf.Invalid("project_id is required")
	}
	if len(in.Items) == 0 {
		return domainwf.Invalid("at least one item is required")
	}
	for i, it := range in.Items {
		if it.ArticleID == "" {
			return domainwf.Invalid("item %d has no article_id", i)
		}
		if !isQuantity(it.Quantity) || it.Quantity <= 0 {
			return domainwf.Invalid("item %d quantity must be positive", i)
		}
	}
	return nil
}

// Execute authorizes and applies an action to a request
func (e *engineImpl) Execute(ctx context.Context, requestID string, actor entity.Actor, action domainwf.Trigger, payload Payload) (*Outcome, error) {
	var plan *Plan

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		snap, err := e.loadSnapshot(txCtx, requestID, actor, payload.DelivererID)
		if err != nil {
			return err
		}

		plan, err = e.decider.Decide(snap, actor, action, payload)
		if err != nil {
			return err
		}

		return e.apply(txCtx, plan)
	})
	if err != nil {
		e.logRejection("Action not applied", requestID, action, actor, err)
		return nil, err
	}

	e.logger.Info("Action applied",
		"request_id", requestID,
		"action", action,
		"actor_id", actor.ID,
		"previous_status", plan.Previous,
		"new_status", plan.Next,
	)

	e.publish(ctx, plan.Events)
	return outcomeOf(plan), nil
}

// PermittedActions lists the actions the actor may attempt right now.
// Payload validity is not considered.
func (e *engineImpl) PermittedActions(ctx context.Context, requestID string, actor entity.Actor) ([]domainwf.Trigger, error) {
	snap, err := e.loadSnapshot(ctx, requestID, actor, "")
	if err != nil {
		return nil, err
	}

	machine := BuildRequestStateMachine(snap.Request.Status)
	actions := make([]domainwf.Trigger, 0)
	for _, t := range machine.PermittedTriggers() {
		if e.decider.Authorize(snap, actor, t) == nil {
			actions = append(actions, t)
		}
	}
	return actions, nil
}

func (e *engineImpl) loadSnapshot(ctx context.Context, requestID string, actor entity.Actor, delivererID string) (*Snapshot, error) {
	req, err := e.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	if req == nil {
		return nil, domainwf.Missing("request %s not found", requestID)
	}

	items, err := e.repos.Items.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}

	deliveries, err := e.repos.Deliveries.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deliveries: %w", err)
	}

	member := req.IsOwner(actor.ID)
	if !member && !actor.Role.IsOverride() && actor.ID != "" {
		member, err = e.repos.Projects.IsMember(ctx, req.ProjectID, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check project membership: %w", err)
		}
	}

	var deliverer *entity.User
	if delivererID != "" {
		deliverer, err = e.repos.Users.GetByID(ctx, delivererID)
		if err != nil {
			return nil, fmt.Errorf("failed to load deliverer: %w", err)
		}
	}

	return &Snapshot{
		Request:       req,
		Items:         items,
		Deliveries:    deliveries,
		ActorIsMember: member,
		Deliverer:     deliverer,
		Now:           e.now(),
	}, nil
}

// apply writes a plan. The request row goes first: a stale version aborts before any other write.
func (e *engineImpl) apply(ctx context.Context, plan *Plan) error {
	if err := e.repos.Requests.Update(ctx, plan.Request); err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}

	for _, it := range plan.Items {
		if err := e.repos.Items.Update(ctx, it); err != nil {
			return fmt.Errorf("failed to update line item: %w", err)
		}
	}

	for _, a := range plan.Articles {
		if err := e.repos.Articles.UpdateMasterData(ctx, a.ArticleID, a.Name, a.Reference); err != nil {
			return fmt.Errorf("failed to update article: %w", err)
		}
	}

	if plan.Signature != nil {
		if err := e.repos.Signatures.Upsert(ctx, plan.Signature); err != nil {
			return fmt.Errorf("failed to record validation signature: %w", err)
		}
	}

	if plan.Issuance != nil {
		if err := e.repos.Signatures.CreateIssuance(ctx, plan.Issuance); err != nil {
			return fmt.Errorf("failed to record issuance signature: %w", err)
		}
	}

	if plan.Delivery != nil {
		if err := e.repos.Deliveries.Create(ctx, plan.Delivery); err != nil {
			return fmt.Errorf("failed to create delivery: %w", err)
		}
	}

	for _, ds := range plan.DeliveryStatuses {
		if err := e.repos.Deliveries.UpdateStatus(ctx, ds.DeliveryID, ds.Status); err != nil {
			return fmt.Errorf("failed to update delivery: %w", err)
		}
	}

	if child := plan.Child; child != nil {
		if err := e.repos.Requests.Create(ctx, child.Request); err != nil {
			return fmt.Errorf("failed to create child request: %w", err)
		}
		for _, it := range child.Items {
			if err := e.repos.Items.Create(ctx, it); err != nil {
				return fmt.Errorf("failed to create child line item: %w", err)
			}
		}
		if err := e.audit.Record(ctx, child.History); err != nil {
			return err
		}
	}

	if err := e.audit.Record(ctx, plan.History...); err != nil {
		return err
	}

	for _, n := range plan.Notifications {
		if err := e.repos.Notifications.Create(ctx, n); err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
	}

	return nil
}

// publish hands events to the dispatcher. Delivery is best-effort and never fails the action.
func (e *engineImpl) publish(ctx context.Context, events []*event.Event) {
	if e.dispatcher == nil {
		return
	}
	for _, evt := range events {
		e.dispatcher.DispatchAsync(ctx, evt)
	}
}

// logRejection logs classified refusals at info level and everything else as errors
func (e *engineImpl) logRejection(msg, requestID string, action domainwf.Trigger, actor entity.Actor, err error) {
	var ae *domainwf.ActionError
	if errors.As(err, &ae) {
		e.logger.Info(msg,
			"request_id", requestID,
			"action", action,
			"actor_id", actor.ID,
			"reason", ae.Reason,
			"error", err.Error(),
		)
		return
	}
	e.logger.Error(msg,
		"request_id", requestID,
		"action", action,
		"actor_id", actor.ID,
		"error", err,
	)
}

func outcomeOf(plan *Plan) *Outcome {
	out := &Outcome{
		Request:        plan.Request,
		Action:         plan.Action,
		PreviousStatus: plan.Previous,
		NewStatus:      plan.Next,
	}
	if plan.Child != nil {
		out.Child = plan.Child.Request
	}
	return out
}

package service

import (
	"context"
	"fmt"

	"github.com/garyjia/procurement-flow/internal/application/port"
	"github.com/garyjia/procurement-flow/internal/application/workflow"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// RequestService is the entry point for callers: writes go through the workflow engine,
// reads go straight to the repositories
type RequestService interface {
	Create(ctx context.Context, actor entity.Actor, in workflow.CreateInput) (*workflow.Outcome, error)
	Execute(ctx context.Context, requestID string, actor entity.Actor, action domainwf.Trigger, payload workflow.Payload) (*workflow.Outcome, error)
	PermittedActions(ctx context.Context, requestID string, actor entity.Actor) ([]domainwf.Trigger, error)

	Get(ctx context.Context, requestID string) (*entity.RequestDetail, error)
	List(ctx context.Context, filter entity.RequestFilter) ([]*entity.Request, error)
	History(ctx context.Context, requestID string) ([]*entity.RequestHistory, error)

	Notifications(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, error)
	MarkNotificationRead(ctx context.Context, id, recipientID string) error
}

type requestServiceImpl struct {
	engine workflow.WorkflowEngine
	repos  port.Repositories
	audit  *workflow.AuditRecorder
	logger Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(engine workflow.WorkflowEngine, repos port.Repositories, logger Logger) RequestService {
	return &requestServiceImpl{
		engine: engine,
		repos:  repos,
		audit:  workflow.NewAuditRecorder(repos.History),
		logger: logger,
	}
}

// Create records a new request owned by the actor
func (s *requestServiceImpl) Create(ctx context.Context, actor entity.Actor, in workflow.CreateInput) (*workflow.Outcome, error) {
	return s.engine.Create(ctx, actor, in)
}

// Execute applies one action to a request
func (s *requestServiceImpl) Execute(ctx context.Context, requestID string, actor entity.Actor, action domainwf.Trigger, payload workflow.Payload) (*workflow.Outcome, error) {
	return s.engine.Execute(ctx, requestID, actor, action, payload)
}

// PermittedActions lists what the actor may attempt on the request now
func (s *requestServiceImpl) PermittedActions(ctx context.Context, requestID string, actor entity.Actor) ([]domainwf.Trigger, error) {
	return s.engine.PermittedActions(ctx, requestID, actor)
}

// Get returns a request with its items, signatures and deliveries
func (s *requestServiceImpl) Get(ctx context.Context, requestID string) (*entity.RequestDetail, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		s.logger.Error("Failed to get request", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, domainwf.Missing("request %s not found", requestID)
	}

	items, err := s.repos.Items.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get line items: %w", err)
	}

	signatures, err := s.repos.Signatures.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get signatures: %w", err)
	}

	issuances, err := s.repos.Signatures.GetIssuancesByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get issuance signatures: %w", err)
	}

	deliveries, err := s.repos.Deliveries.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get deliveries: %w", err)
	}

	return &entity.RequestDetail{
		Request:    req,
		Items:      items,
		Signatures: signatures,
		Deliveries: deliveries,
		Issuances:  issuances,
	}, nil
}

// List returns requests matching the filter, newest first
func (s *requestServiceImpl) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.Request, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domainwf.Invalid("unknown status %q", filter.Status)
	}
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, domainwf.Invalid("unknown category %q", filter.Category)
	}
	filter.Limit, filter.Offset = page(filter.Limit, filter.Offset)

	requests, err := s.repos.Requests.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list requests", "error", err)
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

// History returns the audit trail of a request, oldest first
func (s *requestServiceImpl) History(ctx context.Context, requestID string) ([]*entity.RequestHistory, error) {
	req, err := s.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, domainwf.Missing("request %s not found", requestID)
	}
	return s.audit.Trail(ctx, requestID)
}

// Notifications lists in-app notifications of a recipient, newest first
func (s *requestServiceImpl) Notifications(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, error) {
	limit, offset = page(limit, offset)
	notifications, err := s.repos.Notifications.ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead flags one of the recipient's notifications as read
func (s *requestServiceImpl) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	if err := s.repos.Notifications.MarkRead(ctx, id, recipientID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

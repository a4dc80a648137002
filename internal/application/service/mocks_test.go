package service

import (
	"context"
	"sync"

	"github.com/garyjia/procurement-flow/internal/application/workflow"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// Mock repositories

type mockRequestRepo struct {
	getByIDFunc func(ctx context.Context, id string) (*entity.Request, error)
	listFunc    func(ctx context.Context, filter entity.RequestFilter) ([]*entity.Request, error)
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.Request) error {
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Request{ID: id, Number: "PR-000001", ProjectID: "p-1", OwnerID: "u-owner"}, nil
}

func (m *mockRequestRepo) Update(ctx context.Context, req *entity.Request) error {
	return nil
}

func (m *mockRequestRepo) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.Request, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return []*entity.Request{}, nil
}

type mockItemRepo struct{}

func (m *mockItemRepo) Create(ctx context.Context, item *entity.LineItem) error { return nil }

func (m *mockItemRepo) GetByRequestID(ctx context.Context, requestID string) ([]*entity.LineItem, error) {
	return []*entity.LineItem{{ID: "i-1", RequestID: requestID, RequestedQty: 10}}, nil
}

func (m *mockItemRepo) Update(ctx context.Context, item *entity.LineItem) error { return nil }

type mockSignatureRepo struct{}

func (m *mockSignatureRepo) Upsert(ctx context.Context, sig *entity.ValidationSignature) error {
	return nil
}

func (m *mockSignatureRepo) GetByRequestID(ctx context.Context, requestID string) ([]*entity.ValidationSignature, error) {
	return []*entity.ValidationSignature{{RequestID: requestID, StageType: "site_supervisor_validation"}}, nil
}

func (m *mockSignatureRepo) CreateIssuance(ctx context.Context, sig *entity.IssuanceSignature) error {
	return nil
}

func (m *mockSignatureRepo) GetIssuancesByRequestID(ctx context.Context, requestID string) ([]*entity.IssuanceSignature, error) {
	return nil, nil
}

type mockDeliveryRepo struct{}

func (m *mockDeliveryRepo) Create(ctx context.Context, d *entity.Delivery) error { return nil }

func (m *mockDeliveryRepo) GetByRequestID(ctx context.Context, requestID string) ([]*entity.Delivery, error) {
	return []*entity.Delivery{{ID: "d-1", RequestID: requestID, Status: entity.DeliveryStatusReady}}, nil
}

func (m *mockDeliveryRepo) UpdateStatus(ctx context.Context, id string, status entity.DeliveryStatus) error {
	return nil
}

type mockHistoryRepo struct {
	entries []*entity.RequestHistory
}

func (m *mockHistoryRepo) Create(ctx context.Context, h *entity.RequestHistory) error {
	m.entries = append(m.entries, h)
	return nil
}

func (m *mockHistoryRepo) GetByRequestID(ctx context.Context, requestID string) ([]*entity.RequestHistory, error) {
	var out []*entity.RequestHistory
	for _, h := range m.entries {
		if h.RequestID == requestID {
			out = append(out, h)
		}
	}
	return out, nil
}

type mockNotificationRepo struct {
	listByRecipientFunc func(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, error)
	markReadFunc        func(ctx context.Context, id, recipientID string) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error { return nil }

func (m *mockNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, error) {
	if m.listByRecipientFunc != nil {
		return m.listByRecipientFunc(ctx, recipientID, limit, offset)
	}
	return nil, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, recipientID string) error {
	if m.markReadFunc != nil {
		return m.markReadFunc(ctx, id, recipientID)
	}
	return nil
}

type mockUserRepo struct {
	users map[string]*entity.User
}

func (m *mockUserRepo) Create(ctx context.Context, u *entity.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return m.users[id], nil
}

type mockProjectRepo struct {
	membersWithRoleFunc func(ctx context.Context, projectID string, role domainwf.Role) ([]*entity.User, error)
}

func (m *mockProjectRepo) Create(ctx context.Context, p *entity.Project) error { return nil }

func (m *mockProjectRepo) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	return &entity.Project{ID: id}, nil
}

func (m *mockProjectRepo) AddMember(ctx context.Context, projectID, userID string) error { return nil }

func (m *mockProjectRepo) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	return true, nil
}

func (m *mockProjectRepo) MembersWithRole(ctx context.Context, projectID string, role domainwf.Role) ([]*entity.User, error) {
	if m.membersWithRoleFunc != nil {
		return m.membersWithRoleFunc(ctx, projectID, role)
	}
	return nil, nil
}

// Mock engine

type mockEngine struct {
	createFunc  func(ctx context.Context, actor entity.Actor, in workflow.CreateInput) (*workflow.Outcome, error)
	executeFunc func(ctx context.Context, requestID string, actor entity.Actor, action domainwf.Trigger, payload workflow.Payload) (*workflow.Outcome, error)
}

func (m *mockEngine) Create(ctx context.Context, actor entity.Actor, in workflow.CreateInput) (*workflow.Outcome, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, actor, in)
	}
	return &workflow.Outcome{Request: &entity.Request{ID: "r-1", OwnerID: actor.ID}, NewStatus: domainwf.StateDraft}, nil
}

func (m *mockEngine) Execute(ctx context.Context, requestID string, actor entity.Actor, action domainwf.Trigger, payload workflow.Payload) (*workflow.Outcome, error) {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, requestID, actor, action, payload)
	}
	return &workflow.Outcome{Request: &entity.Request{ID: requestID}, Action: action}, nil
}

func (m *mockEngine) PermittedActions(ctx context.Context, requestID string, actor entity.Actor) ([]domainwf.Trigger, error) {
	return []domainwf.Trigger{domainwf.TriggerSubmit}, nil
}

// Mock channel

type sentMessage struct {
	userID  string
	message string
}

type mockChannel struct {
	name     string
	sendFunc func(ctx context.Context, recipient *entity.User, message string) error

	mu   sync.Mutex
	sent []sentMessage
}

func (m *mockChannel) Name() string { return m.name }

func (m *mockChannel) Send(ctx context.Context, recipient *entity.User, message string) error {
	if m.sendFunc != nil {
		if err := m.sendFunc(ctx, recipient, message); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{userID: recipient.ID, message: message})
	return nil
}

func (m *mockChannel) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

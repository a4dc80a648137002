package port

import (
	"context"

	"github.com/garyjia/procurement-flow/internal/domain/entity"
	"github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// Repositories return (nil, nil) for a missing row; callers decide whether that is an error.

// RequestRepository defines persistence operations for Request
type RequestRepository interface {
	// Create assigns the next sequence number, and a number derived from it when Number is empty
	Create(ctx context.Context, req *entity.Request) error
	GetByID(ctx context.Context, id string) (*entity.Request, error)
	// Update writes the request only if its stored version still equals req.Version.
	// A stale version fails with workflow.ErrConflict; on success req.Version is incremented.
	Update(ctx context.Context, req *entity.Request) error
	List(ctx context.Context, filter entity.RequestFilter) ([]*entity.Request, error)
}

// ItemRepository defines persistence operations for LineItem
type ItemRepository interface {
	Create(ctx context.Context, item *entity.LineItem) error
	GetByRequestID(ctx context.Context, requestID string) ([]*entity.LineItem, error)
	Update(ctx context.Context, item *entity.LineItem) error
}

// ArticleRepository defines persistence operations for the article catalog
type ArticleRepository interface {
	Create(ctx context.Context, article *entity.Article) error
	GetByID(ctx context.Context, id string) (*entity.Article, error)
	// UpdateMasterData changes only the non-nil fields
	UpdateMasterData(ctx context.Context, id string, name, reference *string) error
}

// SignatureRepository defines persistence operations for validation and issuance signatures
type SignatureRepository interface {
	// Upsert inserts or overwrites the signature keyed by (request_id, stage_type) in one statement
	Upsert(ctx context.Context, sig *entity.ValidationSignature) error
	GetByRequestID(ctx context.Context, requestID string) ([]*entity.ValidationSignature, error)
	CreateIssuance(ctx context.Context, sig *entity.IssuanceSignature) error
	GetIssuancesByRequestID(ctx context.Context, requestID string) ([]*entity.IssuanceSignature, error)
}

// DeliveryRepository defines persistence operations for Delivery and its items
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *entity.Delivery) error
	GetByRequestID(ctx context.Context, requestID string) ([]*entity.Delivery, error)
	UpdateStatus(ctx context.Context, id string, status entity.DeliveryStatus) error
}

// HistoryRepository defines persistence operations for the audit trail
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.RequestHistory) error
	GetByRequestID(ctx context.Context, requestID string) ([]*entity.RequestHistory, error)
}

// NotificationRepository defines persistence operations for in-app notification records
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// ProjectRepository defines persistence operations for Project and its members
type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	GetByID(ctx context.Context, id string) (*entity.Project, error)
	AddMember(ctx context.Context, projectID, userID string) error
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
	// MembersWithRole lists project members holding the role
	MembersWithRole(ctx context.Context, projectID string, role workflow.Role) ([]*entity.User, error)
}

// Repositories bundles every repository the engine and services need
type Repositories struct {
	Requests      RequestRepository
	Items         ItemRepository
	Articles      ArticleRepository
	Signatures    SignatureRepository
	Deliveries    DeliveryRepository
	History       HistoryRepository
	Notifications NotificationRepository
	Users         UserRepository
	Projects      ProjectRepository
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

package service

import (
	"context"
	"fmt"

	"github.com/garyjia/procurement-flow/internal/application/dispatcher"
	"github.com/garyjia/procurement-flow/internal/application/port"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	"github.com/garyjia/procurement-flow/internal/domain/event"
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// NotificationService fans committed events out to the outbound channels.
// Channel failures are logged and never reach the caller of the action.
type NotificationService interface {
	// Register subscribes the service's handlers on the dispatcher
	Register(d dispatcher.Dispatcher)

	NotifyStatusChanged(ctx context.Context, notice entity.StatusNotice) error
	NotifyDelivererAssigned(ctx context.Context, notice entity.AssignmentNotice) error
	NotifyOverrideTaken(ctx context.Context, notice entity.OverrideNotice) error
}

type notificationServiceImpl struct {
	requestRepo port.RequestRepository
	userRepo    port.UserRepository
	projectRepo port.ProjectRepository
	channels    []port.NotificationChannel
	logger      Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	requestRepo port.RequestRepository,
	userRepo port.UserRepository,
	projectRepo port.ProjectRepository,
	channels []port.NotificationChannel,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		channels:    channels,
		logger:      logger,
	}
}

// Register subscribes the service's handlers on the dispatcher
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.Subscribe(event.TypeStatusChanged, "notify-status-changed", s.onStatusChanged)
	d.Subscribe(event.TypeDelivererAssigned, "notify-deliverer-assigned", s.onDelivererAssigned)
	d.Subscribe(event.TypeOverrideTaken, "notify-override-taken", s.onOverrideTaken)
	d.Subscribe(event.TypeChildCreated, "notify-child-created", s.onChildCreated)
}

func (s *notificationServiceImpl) onStatusChanged(ctx context.Context, evt *event.Event) error {
	return s.NotifyStatusChanged(ctx, entity.StatusNotice{
		RequestID:      evt.RequestID,
		RequestNumber:  evt.RequestNumber,
		PreviousStatus: domainwf.State(evt.GetPayloadString(event.KeyPreviousStatus)),
		NewStatus:      domainwf.State(evt.GetPayloadString(event.KeyNewStatus)),
		RecipientHint:  evt.GetPayloadString(event.KeyRecipientHint),
		ActorID:        evt.ActorID,
	})
}

func (s *notificationServiceImpl) onDelivererAssigned(ctx context.Context, evt *event.Event) error {
	return s.NotifyDelivererAssigned(ctx, entity.AssignmentNotice{
		RequestID:     evt.RequestID,
		RequestNumber: evt.RequestNumber,
		DelivererID:   evt.GetPayloadString(event.KeyDelivererID),
		AssignerID:    evt.ActorID,
	})
}

func (s *notificationServiceImpl) onOverrideTaken(ctx context.Context, evt *event.Event) error {
	return s.NotifyOverrideTaken(ctx, entity.OverrideNotice{
		RequestID:      evt.RequestID,
		RequestNumber:  evt.RequestNumber,
		PreviousStatus: domainwf.State(evt.GetPayloadString(event.KeyPreviousStatus)),
		NewStatus:      domainwf.State(evt.GetPayloadString(event.KeyNewStatus)),
		PreviousRole:   domainwf.Role(evt.GetPayloadString(event.KeyPreviousRole)),
		ActorID:        evt.ActorID,
	})
}

func (s *notificationServiceImpl) onChildCreated(ctx context.Context, evt *event.Event) error {
	req, err := s.requestRepo.GetByID(ctx, evt.RequestID)
	if err != nil {
		return fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil
	}

	owner, err := s.userRepo.GetByID(ctx, req.OwnerID)
	if err != nil {
		return fmt.Errorf("get owner: %w", err)
	}
	if owner == nil {
		return nil
	}

	message := fmt.Sprintf("Request %s was closed short. The missing quantities continue as request %s.",
		evt.RequestNumber, evt.GetPayloadString(event.KeyChildNumber))
	s.broadcast(ctx, evt.RequestID, []*entity.User{owner}, message)
	return nil
}

// NotifyStatusChanged tells whoever acts next that the request moved
func (s *notificationServiceImpl) NotifyStatusChanged(ctx context.Context, notice entity.StatusNotice) error {
	recipients, err := s.resolve(ctx, notice.RequestID, notice.RecipientHint)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Request %s moved from %s to %s.", notice.RequestNumber, notice.PreviousStatus, notice.NewStatus)
	s.broadcast(ctx, notice.RequestID, recipients, message)
	return nil
}

// NotifyDelivererAssigned tells the assigned deliverer to pick up the goods
func (s *notificationServiceImpl) NotifyDelivererAssigned(ctx context.Context, notice entity.AssignmentNotice) error {
	deliverer, err := s.userRepo.GetByID(ctx, notice.DelivererID)
	if err != nil {
		return fmt.Errorf("get deliverer: %w", err)
	}
	if deliverer == nil {
		s.logger.Info("Deliverer not found, skipping notification",
			"request_id", notice.RequestID,
			"deliverer_id", notice.DelivererID,
		)
		return nil
	}

	message := fmt.Sprintf("You have been assigned the delivery of request %s.", notice.RequestNumber)
	s.broadcast(ctx, notice.RequestID, []*entity.User{deliverer}, message)
	return nil
}

// NotifyOverrideTaken tells the validators of the skipped stage that an administrator acted for them
func (s *notificationServiceImpl) NotifyOverrideTaken(ctx context.Context, notice entity.OverrideNotice) error {
	if !notice.PreviousRole.IsValid() {
		return nil
	}

	recipients, err := s.resolve(ctx, notice.RequestID, entity.RoleHint(notice.PreviousRole))
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Request %s was moved from %s to %s by an administrator.",
		notice.RequestNumber, notice.PreviousStatus, notice.NewStatus)
	s.broadcast(ctx, notice.RequestID, recipients, message)
	return nil
}

// resolve turns a recipient hint into users: a single user, or the project members holding a role
func (s *notificationServiceImpl) resolve(ctx context.Context, requestID, hint string) ([]*entity.User, error) {
	userID, role, ok := entity.ParseHint(hint)
	if !ok {
		s.logger.Info("Unusable recipient hint, skipping notification", "request_id", requestID, "hint", hint)
		return nil, nil
	}

	if userID != "" {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		if user == nil {
			return nil, nil
		}
		return []*entity.User{user}, nil
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, nil
	}

	members, err := s.projectRepo.MembersWithRole(ctx, req.ProjectID, role)
	if err != nil {
		return nil, fmt.Errorf("get project members: %w", err)
	}
	return members, nil
}

// broadcast sends the message to every recipient on every channel. Failures are logged only.
func (s *notificationServiceImpl) broadcast(ctx context.Context, requestID string, recipients []*entity.User, message string) {
	for _, user := range recipients {
		for _, ch := range s.channels {
			if err := ch.Send(ctx, user, message); err != nil {
				s.logger.Error("Failed to send notification",
					"error", err,
					"channel", ch.Name(),
					"request_id", requestID,
					"user_id", user.ID,
				)
			}
		}
	}

	s.logger.Info("Notification fan-out completed",
		"request_id", requestID,
		"recipients", len(recipients),
		"channels", len(s.channels),
	)
}

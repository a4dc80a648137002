package port

import (
	"context"

	"github.com/garyjia/procurement-flow/internal/domain/entity"
)

// NotificationChannel delivers a rendered message to one user over an outbound transport.
// Implementations skip users they have no address for and return nil.
type NotificationChannel interface {
	Name() string
	Send(ctx context.Context, recipient *entity.User, message string) error
}

package port

import (
	"context"

	"github.com/arklim/console-auth/internal/core/domain"
)

// EventPublisher emits user lifecycle events. Publishing is fire-and-forget
// from the caller's perspective; a failed publish never fails the operation
// that produced the event.
type EventPublisher interface {
	PublishUserCreated(ctx context.Context, event domain.UserCreatedEvent) error
	PublishUserDeleted(ctx context.Context, event domain.UserDeletedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishUserAuthenticated(ctx context.Context, event domain.UserAuthenticatedEvent) error
}

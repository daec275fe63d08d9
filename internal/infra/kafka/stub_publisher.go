package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/console-auth/internal/core/domain"
	"github.com/arklim/console-auth/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when the
// broker is disabled in configuration.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, username string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("username", username),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserCreated logs auth.user.created events.
func (p *StubPublisher) PublishUserCreated(_ context.Context, event domain.UserCreatedEvent) error {
	payload := map[string]any{
		"username":   event.Username,
		"created_by": event.CreatedBy,
		"created_at": event.CreatedAt,
	}
	p.logEvent("auth.user.created", event.Username, event.CreatedAt, payload)
	return nil
}

// PublishUserDeleted logs auth.user.deleted events.
func (p *StubPublisher) PublishUserDeleted(_ context.Context, event domain.UserDeletedEvent) error {
	payload := map[string]any{
		"username":   event.Username,
		"deleted_by": event.DeletedBy,
		"deleted_at": event.DeletedAt,
	}
	p.logEvent("auth.user.deleted", event.Username, event.DeletedAt, payload)
	return nil
}

// PublishPasswordChanged logs auth.user.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"username":   event.Username,
		"changed_by": event.ChangedBy,
		"changed_at": event.ChangedAt,
	}
	p.logEvent("auth.user.password.changed", event.Username, event.ChangedAt, payload)
	return nil
}

// PublishUserAuthenticated logs auth.user.authenticated events.
func (p *StubPublisher) PublishUserAuthenticated(_ context.Context, event domain.UserAuthenticatedEvent) error {
	payload := map[string]any{
		"username":     event.Username,
		"global_admin": event.GlobalAdmin,
		"login_at":     event.LoginAt,
	}
	p.logEvent("auth.user.authenticated", event.Username, event.LoginAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)

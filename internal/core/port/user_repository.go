package port

import (
	"context"
	"time"

	"github.com/arklim/console-auth/internal/core/domain"
)

// UserRepository exposes persistence behavior for users. Implementations must
// serialize concurrent writes to the same username; Insert is the single
// logical check-and-create call the gateway relies on for uniqueness.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Insert(ctx context.Context, user domain.User) error
	UpdatePassword(ctx context.Context, username, passwordHash string, changedAt time.Time) error
	// Delete removes the user row and reports nil when the user is absent.
	Delete(ctx context.Context, username string) error
	ListPage(ctx context.Context, pageNo, pageSize int) (*domain.UserPage, error)
	SearchByFragment(ctx context.Context, fragment string) ([]string, error)
}

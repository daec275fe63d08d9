package port

import (
	"context"

	"github.com/arklim/console-auth/internal/core/domain"
)

// PermissionRepository is the role-to-permission policy store the
// authorization engine evaluates against. The engine only performs the
// lookup-and-match step; policy authoring lives elsewhere.
type PermissionRepository interface {
	ListByRoles(ctx context.Context, roles []string) ([]domain.Permission, error)
}

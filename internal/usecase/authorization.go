package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/arklim/console-auth/internal/core/domain"
	"github.com/arklim/console-auth/internal/core/port"
)

var (
	// ErrPermissionDenied indicates the caller lacks the required permission.
	ErrPermissionDenied = errors.New("insufficient permissions")
)

// AuthorizationService evaluates whether an identity may perform an action on
// a resource. Decisions are computed fresh per request from the role and
// permission stores and never cached.
type AuthorizationService struct {
	roles       port.RoleRepository
	permissions port.PermissionRepository
}

// NewAuthorizationService constructs AuthorizationService.
func NewAuthorizationService(roles port.RoleRepository, permissions port.PermissionRepository) *AuthorizationService {
	return &AuthorizationService{roles: roles, permissions: permissions}
}

// Can returns the authorization decision for the identity on the
// resource/action pair. The global-admin short circuit consults both the
// token snapshot and the current role assignments, so a freshly granted
// admin role takes effect without reissuing the token.
func (s *AuthorizationService) Can(ctx context.Context, identity domain.Identity, resource string, action domain.Action) (domain.Decision, error) {
	if identity.Username == "" {
		return domain.Decision{Allow: false, Reason: "anonymous"}, nil
	}

	if identity.GlobalAdmin {
		return domain.Decision{Allow: true, Reason: "global admin"}, nil
	}

	roles, err := s.roles.RolesOf(ctx, identity.Username)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("list roles: %w", err)
	}

	for _, role := range roles {
		if role == domain.RoleGlobalAdmin {
			return domain.Decision{Allow: true, Reason: "global admin"}, nil
		}
	}

	if len(roles) == 0 {
		return domain.Decision{Allow: false, Reason: "no roles assigned"}, nil
	}

	permissions, err := s.permissions.ListByRoles(ctx, roles)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("list permissions: %w", err)
	}

	for _, permission := range permissions {
		if permission.Matches(resource, action) {
			return domain.Decision{Allow: true, Reason: "permission " + permission.Role}, nil
		}
	}

	return domain.Decision{Allow: false, Reason: "no matching permission"}, nil
}

// HasGlobalAdmin reports whether the username currently holds the reserved
// admin role.
func (s *AuthorizationService) HasGlobalAdmin(ctx context.Context, username string) (bool, error) {
	roles, err := s.roles.RolesOf(ctx, username)
	if err != nil {
		return false, fmt.Errorf("list roles: %w", err)
	}

	for _, role := range roles {
		if role == domain.RoleGlobalAdmin {
			return true, nil
		}
	}

	return false, nil
}

// IsSelfOrAdmin reports whether the identity targets itself or holds the
// admin flag. Used for operations a user may perform on their own account.
func IsSelfOrAdmin(identity domain.Identity, target string) bool {
	if identity.GlobalAdmin {
		return true
	}
	return identity.Username != "" && identity.Username == target
}

package port

import "context"

// RoleRepository handles role assignments per user.
type RoleRepository interface {
	// RolesOf returns the role names assigned to the user, empty when none.
	RolesOf(ctx context.Context, username string) ([]string, error)
	Assign(ctx context.Context, username, role string) error
	Revoke(ctx context.Context, username, role string) error
}

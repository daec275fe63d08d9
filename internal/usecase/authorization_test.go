package usecase

import (
	"context"
	"testing"

	"github.com/arklim/console-auth/internal/core/domain"
)

func TestCanAllowsGlobalAdminSnapshot(t *testing.T) {
	service := NewAuthorizationService(&stubRoleRepo{}, &stubPermissionRepo{})

	decision, err := service.Can(context.Background(), domain.Identity{Username: "root", GlobalAdmin: true}, domain.ResourceUsers, domain.ActionWrite)
	if err != nil {
		t.Fatalf("Can returned error: %v", err)
	}
	if !decision.Allow {
		t.Fatalf("expected admin snapshot to allow, got %+v", decision)
	}
}

func TestCanAllowsFreshAdminRole(t *testing.T) {
	roles := &stubRoleRepo{
		rolesOf: func(_ context.Context, username string) ([]string, error) {
			if username != "alice" {
				t.Fatalf("unexpected username: %s", username)
			}
			return []string{domain.RoleGlobalAdmin}, nil
		},
	}

	service := NewAuthorizationService(roles, &stubPermissionRepo{})

	decision, err := service.Can(context.Background(), domain.Identity{Username: "alice"}, domain.ResourceUsers, domain.ActionWrite)
	if err != nil {
		t.Fatalf("Can returned error: %v", err)
	}
	if !decision.Allow {
		t.Fatalf("expected fresh admin role to allow, got %+v", decision)
	}
}

func TestCanMatchesPermission(t *testing.T) {
	roles := &stubRoleRepo{
		rolesOf: func(_ context.Context, _ string) ([]string, error) {
			return []string{"operators"}, nil
		},
	}
	permissions := &stubPermissionRepo{
		listByRoles: func(_ context.Context, roleNames []string) ([]domain.Permission, error) {
			if len(roleNames) != 1 || roleNames[0] != "operators" {
				t.Fatalf("unexpected roles: %v", roleNames)
			}
			return []domain.Permission{
				{Role: "operators", Resource: domain.ResourceUsers, Action: domain.ActionReadWrite},
			}, nil
		},
	}

	service := NewAuthorizationService(roles, permissions)
	identity := domain.Identity{Username: "bob"}

	for _, action := range []domain.Action{domain.ActionRead, domain.ActionWrite} {
		decision, err := service.Can(context.Background(), identity, domain.ResourceUsers, action)
		if err != nil {
			t.Fatalf("Can(%s) returned error: %v", action, err)
		}
		if !decision.Allow {
			t.Fatalf("expected rw permission to grant %s, got %+v", action, decision)
		}
	}
}

func TestCanReadDoesNotGrantWrite(t *testing.T) {
	roles := &stubRoleRepo{
		rolesOf: func(_ context.Context, _ string) ([]string, error) {
			return []string{"viewers"}, nil
		},
	}
	permissions := &stubPermissionRepo{
		listByRoles: func(_ context.Context, _ []string) ([]domain.Permission, error) {
			return []domain.Permission{
				{Role: "viewers", Resource: domain.ResourceUsers, Action: domain.ActionRead},
			}, nil
		},
	}

	service := NewAuthorizationService(roles, permissions)
	identity := domain.Identity{Username: "carol"}

	decision, err := service.Can(context.Background(), identity, domain.ResourceUsers, domain.ActionWrite)
	if err != nil {
		t.Fatalf("Can returned error: %v", err)
	}
	if decision.Allow {
		t.Fatalf("expected read permission to deny write")
	}
}

func TestCanWildcardResource(t *testing.T) {
	roles := &stubRoleRepo{
		rolesOf: func(_ context.Context, _ string) ([]string, error) {
			return []string{"platform"}, nil
		},
	}
	permissions := &stubPermissionRepo{
		listByRoles: func(_ context.Context, _ []string) ([]domain.Permission, error) {
			return []domain.Permission{
				{Role: "platform", Resource: "*", Action: domain.ActionWrite},
			}, nil
		},
	}

	service := NewAuthorizationService(roles, permissions)

	decision, err := service.Can(context.Background(), domain.Identity{Username: "dave"}, domain.ResourceUsers, domain.ActionWrite)
	if err != nil {
		t.Fatalf("Can returned error: %v", err)
	}
	if !decision.Allow {
		t.Fatalf("expected wildcard resource to allow, got %+v", decision)
	}
}

func TestCanDeniesWithoutRoles(t *testing.T) {
	roles := &stubRoleRepo{
		rolesOf: func(_ context.Context, _ string) ([]string, error) {
			return nil, nil
		},
	}

	service := NewAuthorizationService(roles, &stubPermissionRepo{})

	decision, err := service.Can(context.Background(), domain.Identity{Username: "eve"}, domain.ResourceUsers, domain.ActionRead)
	if err != nil {
		t.Fatalf("Can returned error: %v", err)
	}
	if decision.Allow {
		t.Fatalf("expected deny for user without roles")
	}
}

func TestCanDeniesAnonymous(t *testing.T) {
	service := NewAuthorizationService(&stubRoleRepo{}, &stubPermissionRepo{})

	decision, err := service.Can(context.Background(), domain.Identity{}, domain.ResourceUsers, domain.ActionRead)
	if err != nil {
		t.Fatalf("Can returned error: %v", err)
	}
	if decision.Allow {
		t.Fatalf("expected deny for anonymous identity")
	}
}

func TestIsSelfOrAdmin(t *testing.T) {
	if !IsSelfOrAdmin(domain.Identity{Username: "alice"}, "alice") {
		t.Fatalf("expected self access to be allowed")
	}
	if !IsSelfOrAdmin(domain.Identity{Username: "root", GlobalAdmin: true}, "alice") {
		t.Fatalf("expected admin access to be allowed")
	}
	if IsSelfOrAdmin(domain.Identity{Username: "bob"}, "alice") {
		t.Fatalf("expected other user to be denied")
	}
	if IsSelfOrAdmin(domain.Identity{}, "") {
		t.Fatalf("expected anonymous identity to be denied")
	}
}

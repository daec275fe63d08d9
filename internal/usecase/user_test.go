package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/arklim/console-auth/internal/core/domain"
	"github.com/arklim/console-auth/internal/infra/security"
	"github.com/arklim/console-auth/internal/repository"
)

const strongPassword = "tr4verse-Mountain-91"

func adminIdentity() domain.Identity {
	return domain.Identity{Username: "root", GlobalAdmin: true}
}

func writerAuthz(t *testing.T) *AuthorizationService {
	t.Helper()

	roles := &stubRoleRepo{
		rolesOf: func(_ context.Context, _ string) ([]string, error) {
			return []string{"operators"}, nil
		},
	}
	permissions := &stubPermissionRepo{
		listByRoles: func(_ context.Context, _ []string) ([]domain.Permission, error) {
			return []domain.Permission{
				{Role: "operators", Resource: domain.ResourceUsers, Action: domain.ActionReadWrite},
			}, nil
		},
	}
	return NewAuthorizationService(roles, permissions)
}

func readerAuthz(t *testing.T) *AuthorizationService {
	t.Helper()

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
	return NewAuthorizationService(roles, permissions)
}

func newUserService(t *testing.T, users *stubUserRepo, authz *AuthorizationService, events *recordingPublisher) *UserService {
	t.Helper()

	service := NewUserService(users, authz, nil, nil, zaptest.NewLogger(t))
	if events != nil {
		service.events = events
	}
	return service
}

func TestCreateUserHashesPassword(t *testing.T) {
	var inserted *domain.User
	users := &stubUserRepo{
		insert: func(_ context.Context, user domain.User) error {
			inserted = &user
			return nil
		},
	}
	events := &recordingPublisher{}

	service := newUserService(t, users, writerAuthz(t), events)

	if err := service.CreateUser(context.Background(), domain.Identity{Username: "op"}, "alice", strongPassword); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	if inserted == nil {
		t.Fatalf("expected insert to be called")
	}
	if inserted.Username != "alice" || !inserted.Enabled {
		t.Fatalf("unexpected user: %+v", inserted)
	}
	if inserted.PasswordHash == strongPassword || !strings.HasPrefix(inserted.PasswordHash, "argon2id$") {
		t.Fatalf("expected stored hash, got %q", inserted.PasswordHash)
	}

	ok, err := security.VerifyPassword(strongPassword, inserted.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected stored hash to verify: ok=%v err=%v", ok, err)
	}

	if len(events.created) != 1 || events.created[0].Username != "alice" || events.created[0].CreatedBy != "op" {
		t.Fatalf("expected created event, got %+v", events.created)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	users := &stubUserRepo{
		insert: func(_ context.Context, _ domain.User) error {
			return repository.ErrAlreadyExists
		},
	}

	service := newUserService(t, users, writerAuthz(t), nil)

	if err := service.CreateUser(context.Background(), domain.Identity{Username: "op"}, "alice", strongPassword); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestCreateUserRequiresWrite(t *testing.T) {
	service := newUserService(t, &stubUserRepo{}, readerAuthz(t), nil)

	err := service.CreateUser(context.Background(), domain.Identity{Username: "viewer"}, "alice", strongPassword)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestCreateUserRejectsWeakPassword(t *testing.T) {
	service := newUserService(t, &stubUserRepo{}, writerAuthz(t), nil)

	err := service.CreateUser(context.Background(), adminIdentity(), "alice", "weak")
	if !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}
}

func TestDeleteUserProtectsGlobalAdmin(t *testing.T) {
	roles := &stubRoleRepo{
		rolesOf: func(_ context.Context, username string) ([]string, error) {
			if username == "root2" {
				return []string{domain.RoleGlobalAdmin}, nil
			}
			return nil, nil
		},
	}
	authz := NewAuthorizationService(roles, &stubPermissionRepo{})

	service := newUserService(t, &stubUserRepo{}, authz, nil)

	err := service.DeleteUser(context.Background(), adminIdentity(), "root2")
	if !errors.Is(err, ErrCannotDeleteAdmin) {
		t.Fatalf("expected ErrCannotDeleteAdmin, got %v", err)
	}
}

func TestDeleteUserIdempotent(t *testing.T) {
	deleted := 0
	users := &stubUserRepo{
		delete: func(_ context.Context, username string) error {
			deleted++
			if username != "ghost" {
				t.Fatalf("unexpected username: %s", username)
			}
			return nil
		},
	}
	roles := &stubRoleRepo{
		rolesOf: func(_ context.Context, _ string) ([]string, error) {
			return nil, nil
		},
	}
	events := &recordingPublisher{}

	service := newUserService(t, users, NewAuthorizationService(roles, &stubPermissionRepo{}), events)

	for i := 0; i < 2; i++ {
		if err := service.DeleteUser(context.Background(), adminIdentity(), "ghost"); err != nil {
			t.Fatalf("DeleteUser returned error on attempt %d: %v", i+1, err)
		}
	}

	if deleted != 2 {
		t.Fatalf("expected delete to run twice, ran %d times", deleted)
	}
	if len(events.deleted) != 2 {
		t.Fatalf("expected two deleted events, got %d", len(events.deleted))
	}
}

func TestUpdateUserSelfOrAdminOnly(t *testing.T) {
	roles := &stubRoleRepo{
		rolesOf: func(_ context.Context, _ string) ([]string, error) {
			return nil, nil
		},
	}
	authz := NewAuthorizationService(roles, &stubPermissionRepo{})

	service := newUserService(t, &stubUserRepo{}, authz, nil)

	err := service.UpdateUser(context.Background(), domain.Identity{Username: "bob"}, "alice", strongPassword)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	users := &stubUserRepo{
		getByUsername: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, repository.ErrNotFound
		},
	}

	service := newUserService(t, users, writerAuthz(t), nil)

	err := service.UpdateUser(context.Background(), adminIdentity(), "ghost", strongPassword)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUserRotatesHash(t *testing.T) {
	previousHash, err := security.HashPassword("old-Passw0rd-42x")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var storedHash string
	users := &stubUserRepo{
		getByUsername: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{Username: "alice", PasswordHash: previousHash, Enabled: true}, nil
		},
		updatePassword: func(_ context.Context, username, passwordHash string, _ time.Time) error {
			if username != "alice" {
				t.Fatalf("unexpected username: %s", username)
			}
			storedHash = passwordHash
			return nil
		},
	}
	events := &recordingPublisher{}

	service := newUserService(t, users, writerAuthz(t), events)

	if err := service.UpdateUser(context.Background(), domain.Identity{Username: "alice"}, "alice", strongPassword); err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}

	if storedHash == "" || storedHash == previousHash {
		t.Fatalf("expected a fresh hash to be stored")
	}
	ok, err := security.VerifyPassword(strongPassword, storedHash)
	if err != nil || !ok {
		t.Fatalf("expected new hash to verify: ok=%v err=%v", ok, err)
	}

	if len(events.changed) != 1 || events.changed[0].Username != "alice" {
		t.Fatalf("expected password changed event, got %+v", events.changed)
	}
}

func TestUpdateOwnPasswordWrongCurrent(t *testing.T) {
	hashed, err := security.HashPassword("old-Passw0rd-42x")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	users := &stubUserRepo{
		getByUsername: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{Username: "alice", PasswordHash: hashed, Enabled: true}, nil
		},
	}

	service := newUserService(t, users, writerAuthz(t), nil)

	err = service.UpdateOwnPassword(context.Background(), domain.Identity{Username: "alice"}, "not-the-old-one", strongPassword)
	if !errors.Is(err, ErrCurrentPasswordInvalid) {
		t.Fatalf("expected ErrCurrentPasswordInvalid, got %v", err)
	}
}

func TestUpdateOwnPasswordStoreFailure(t *testing.T) {
	hashed, err := security.HashPassword("old-Passw0rd-42x")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	storeErr := errors.New("connection reset")
	users := &stubUserRepo{
		getByUsername: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{Username: "alice", PasswordHash: hashed, Enabled: true}, nil
		},
		updatePassword: func(_ context.Context, _, _ string, _ time.Time) error {
			return storeErr
		},
	}

	service := newUserService(t, users, writerAuthz(t), nil)

	err = service.UpdateOwnPassword(context.Background(), domain.Identity{Username: "alice"}, "old-Passw0rd-42x", strongPassword)
	if err == nil || errors.Is(err, ErrCurrentPasswordInvalid) {
		t.Fatalf("expected a distinct storage error, got %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestListUsersRequiresRead(t *testing.T) {
	page := &domain.UserPage{
		TotalCount:     1,
		PageNumber:     1,
		PagesAvailable: 1,
		PageItems:      []domain.User{{Username: "alice"}},
	}
	users := &stubUserRepo{
		listPage: func(_ context.Context, pageNo, pageSize int) (*domain.UserPage, error) {
			if pageNo != 1 || pageSize != 20 {
				t.Fatalf("unexpected paging: pageNo=%d pageSize=%d", pageNo, pageSize)
			}
			return page, nil
		},
	}

	service := newUserService(t, users, readerAuthz(t), nil)

	got, err := service.ListUsers(context.Background(), domain.Identity{Username: "viewer"}, 0, 0)
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if got.TotalCount != 1 || len(got.PageItems) != 1 {
		t.Fatalf("unexpected page: %+v", got)
	}

	roles := &stubRoleRepo{
		rolesOf: func(_ context.Context, _ string) ([]string, error) {
			return nil, nil
		},
	}
	noAccess := newUserService(t, users, NewAuthorizationService(roles, &stubPermissionRepo{}), nil)

	if _, err := noAccess.ListUsers(context.Background(), domain.Identity{Username: "nobody"}, 1, 10); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestSearchUsersRequiresWrite(t *testing.T) {
	users := &stubUserRepo{
		search: func(_ context.Context, fragment string) ([]string, error) {
			if fragment != "adm" {
				t.Fatalf("unexpected fragment: %s", fragment)
			}
			return []string{"admin"}, nil
		},
	}

	// Read access is not enough for enumeration.
	readerService := newUserService(t, users, readerAuthz(t), nil)
	if _, err := readerService.SearchUsers(context.Background(), domain.Identity{Username: "viewer"}, "adm"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for read-only caller, got %v", err)
	}

	writerService := newUserService(t, users, writerAuthz(t), nil)
	usernames, err := writerService.SearchUsers(context.Background(), domain.Identity{Username: "op"}, " adm ")
	if err != nil {
		t.Fatalf("SearchUsers returned error: %v", err)
	}
	if len(usernames) != 1 || usernames[0] != "admin" {
		t.Fatalf("unexpected usernames: %v", usernames)
	}
}

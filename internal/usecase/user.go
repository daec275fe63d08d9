package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/console-auth/internal/core/domain"
	"github.com/arklim/console-auth/internal/core/port"
	"github.com/arklim/console-auth/internal/infra/security"
	"github.com/arklim/console-auth/internal/repository"
)

var (
	// ErrUserExists indicates a create collided with an existing username.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound indicates the target user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrCannotDeleteAdmin indicates the target holds the reserved admin role.
	ErrCannotDeleteAdmin = errors.New("cannot delete a global admin account")
	// ErrCurrentPasswordInvalid indicates the provided current password is incorrect.
	ErrCurrentPasswordInvalid = errors.New("current password is incorrect")
	// ErrPasswordPolicyViolation indicates the new password fails the policy.
	ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")
)

// UserService handles user lifecycle operations. Every mutating operation
// takes the acting identity and enforces its own permission requirements, so
// the rules hold no matter which transport invokes them.
type UserService struct {
	users     port.UserRepository
	authz     *AuthorizationService
	validator *security.PasswordValidator
	events    port.EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

// NewUserService constructs UserService.
func NewUserService(
	users port.UserRepository,
	authz *AuthorizationService,
	validator *security.PasswordValidator,
	events port.EventPublisher,
	log *zap.Logger,
) *UserService {
	if validator == nil {
		validator = security.NewPasswordValidator(security.DefaultPasswordPolicy())
	}
	return &UserService{
		users:     users,
		authz:     authz,
		validator: validator,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

func (s *UserService) requireUsersAction(ctx context.Context, actor domain.Identity, action domain.Action) error {
	decision, err := s.authz.Can(ctx, actor, domain.ResourceUsers, action)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if !decision.Allow {
		return ErrPermissionDenied
	}
	return nil
}

// CreateUser registers a new account. The existence check and the write are
// a single insert, so two racing creates for the same username cannot both
// succeed.
func (s *UserService) CreateUser(ctx context.Context, actor domain.Identity, username, password string) error {
	if err := s.requireUsersAction(ctx, actor, domain.ActionWrite); err != nil {
		return err
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}

	if err := s.validator.Validate(username, password); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	hashed, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		Username:     username,
		PasswordHash: hashed,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	s.publishUserCreated(ctx, username, actor.Username, now)

	s.log.Info("user created",
		zap.String("username", username),
		zap.String("created_by", actor.Username),
	)

	return nil
}

// DeleteUser removes an account. Accounts holding the reserved admin role
// are protected; deleting an absent account succeeds silently.
func (s *UserService) DeleteUser(ctx context.Context, actor domain.Identity, username string) error {
	if err := s.requireUsersAction(ctx, actor, domain.ActionWrite); err != nil {
		return err
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}

	isAdmin, err := s.authz.HasGlobalAdmin(ctx, username)
	if err != nil {
		return fmt.Errorf("check target roles: %w", err)
	}
	if isAdmin {
		return ErrCannotDeleteAdmin
	}

	if err := s.users.Delete(ctx, username); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if s.events != nil {
		event := domain.UserDeletedEvent{
			EventID:   uuid.NewString(),
			Username:  username,
			DeletedBy: actor.Username,
			DeletedAt: s.now().UTC(),
		}
		if err := s.events.PublishUserDeleted(ctx, event); err != nil {
			s.log.Warn("publish user deleted event failed", zap.Error(err))
		}
	}

	s.log.Info("user deleted",
		zap.String("username", username),
		zap.String("deleted_by", actor.Username),
	)

	return nil
}

// UpdateUser replaces the target's password. Permitted for the target
// themselves or for a global admin; the target must exist.
func (s *UserService) UpdateUser(ctx context.Context, actor domain.Identity, username, newPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}

	if !IsSelfOrAdmin(actor, username) {
		isAdmin, err := s.authz.HasGlobalAdmin(ctx, actor.Username)
		if err != nil {
			return fmt.Errorf("check actor roles: %w", err)
		}
		if !isAdmin {
			return ErrPermissionDenied
		}
	}

	if err := s.validator.Validate(username, newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	if _, err := s.users.GetByUsername(ctx, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	changedAt := s.now().UTC()
	if err := s.users.UpdatePassword(ctx, username, hashed, changedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.publishPasswordChanged(ctx, username, actor.Username, changedAt)

	return nil
}

// UpdateOwnPassword rotates the caller's password after verifying the
// current one. A wrong current password is a credential failure, distinct
// from storage faults.
func (s *UserService) UpdateOwnPassword(ctx context.Context, actor domain.Identity, currentPassword, newPassword string) error {
	if actor.Username == "" {
		return ErrPermissionDenied
	}

	user, err := s.users.GetByUsername(ctx, actor.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	ok, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify current password: %w", err)
	}
	if !ok {
		return ErrCurrentPasswordInvalid
	}

	if err := s.validator.Validate(actor.Username, newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	hashed, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	changedAt := s.now().UTC()
	if err := s.users.UpdatePassword(ctx, actor.Username, hashed, changedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.publishPasswordChanged(ctx, actor.Username, actor.Username, changedAt)

	return nil
}

// ListUsers returns one page of accounts.
func (s *UserService) ListUsers(ctx context.Context, actor domain.Identity, pageNo, pageSize int) (*domain.UserPage, error) {
	if err := s.requireUsersAction(ctx, actor, domain.ActionRead); err != nil {
		return nil, err
	}

	if pageNo < 1 {
		pageNo = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	page, err := s.users.ListPage(ctx, pageNo, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return page, nil
}

// SearchUsers returns usernames containing the fragment. Enumerating
// accounts reveals more than reading a single record, so the search requires
// write-level access.
func (s *UserService) SearchUsers(ctx context.Context, actor domain.Identity, fragment string) ([]string, error) {
	if err := s.requireUsersAction(ctx, actor, domain.ActionWrite); err != nil {
		return nil, err
	}

	usernames, err := s.users.SearchByFragment(ctx, strings.TrimSpace(fragment))
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	return usernames, nil
}

func (s *UserService) publishUserCreated(ctx context.Context, username, createdBy string, at time.Time) {
	if s.events == nil {
		return
	}
	event := domain.UserCreatedEvent{
		EventID:   uuid.NewString(),
		Username:  username,
		CreatedBy: createdBy,
		CreatedAt: at,
	}
	if err := s.events.PublishUserCreated(ctx, event); err != nil {
		s.log.Warn("publish user created event failed", zap.Error(err))
	}
}

func (s *UserService) publishPasswordChanged(ctx context.Context, username, changedBy string, at time.Time) {
	if s.events == nil {
		return
	}
	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		Username:  username,
		ChangedBy: changedBy,
		ChangedAt: at,
	}
	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.log.Warn("publish password changed event failed", zap.Error(err))
	}
}

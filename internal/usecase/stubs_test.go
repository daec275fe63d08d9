package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/arklim/console-auth/internal/core/domain"
)

var errUnexpectedCall = errors.New("unexpected call")

type stubUserRepo struct {
	getByUsername  func(ctx context.Context, username string) (*domain.User, error)
	insert         func(ctx context.Context, user domain.User) error
	updatePassword func(ctx context.Context, username, passwordHash string, changedAt time.Time) error
	delete         func(ctx context.Context, username string) error
	listPage       func(ctx context.Context, pageNo, pageSize int) (*domain.UserPage, error)
	search         func(ctx context.Context, fragment string) ([]string, error)
}

func (s *stubUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if s.getByUsername == nil {
		return nil, errUnexpectedCall
	}
	return s.getByUsername(ctx, username)
}

func (s *stubUserRepo) Insert(ctx context.Context, user domain.User) error {
	if s.insert == nil {
		return errUnexpectedCall
	}
	return s.insert(ctx, user)
}

func (s *stubUserRepo) UpdatePassword(ctx context.Context, username, passwordHash string, changedAt time.Time) error {
	if s.updatePassword == nil {
		return errUnexpectedCall
	}
	return s.updatePassword(ctx, username, passwordHash, changedAt)
}

func (s *stubUserRepo) Delete(ctx context.Context, username string) error {
	if s.delete == nil {
		return errUnexpectedCall
	}
	return s.delete(ctx, username)
}

func (s *stubUserRepo) ListPage(ctx context.Context, pageNo, pageSize int) (*domain.UserPage, error) {
	if s.listPage == nil {
		return nil, errUnexpectedCall
	}
	return s.listPage(ctx, pageNo, pageSize)
}

func (s *stubUserRepo) SearchByFragment(ctx context.Context, fragment string) ([]string, error) {
	if s.search == nil {
		return nil, errUnexpectedCall
	}
	return s.search(ctx, fragment)
}

type stubRoleRepo struct {
	rolesOf func(ctx context.Context, username string) ([]string, error)
}

func (s *stubRoleRepo) RolesOf(ctx context.Context, username string) ([]string, error) {
	if s.rolesOf == nil {
		return nil, errUnexpectedCall
	}
	return s.rolesOf(ctx, username)
}

func (s *stubRoleRepo) Assign(ctx context.Context, username, role string) error {
	return errUnexpectedCall
}

func (s *stubRoleRepo) Revoke(ctx context.Context, username, role string) error {
	return errUnexpectedCall
}

type stubPermissionRepo struct {
	listByRoles func(ctx context.Context, roles []string) ([]domain.Permission, error)
}

func (s *stubPermissionRepo) ListByRoles(ctx context.Context, roles []string) ([]domain.Permission, error) {
	if s.listByRoles == nil {
		return nil, errUnexpectedCall
	}
	return s.listByRoles(ctx, roles)
}

type stubAuthenticator struct {
	authenticate func(ctx context.Context, username, password string) (string, error)
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, username, password string) (string, error) {
	if s.authenticate == nil {
		return "", errUnexpectedCall
	}
	return s.authenticate(ctx, username, password)
}

type recordingPublisher struct {
	created       []domain.UserCreatedEvent
	deleted       []domain.UserDeletedEvent
	changed       []domain.PasswordChangedEvent
	authenticated []domain.UserAuthenticatedEvent
}

func (p *recordingPublisher) PublishUserCreated(_ context.Context, event domain.UserCreatedEvent) error {
	p.created = append(p.created, event)
	return nil
}

func (p *recordingPublisher) PublishUserDeleted(_ context.Context, event domain.UserDeletedEvent) error {
	p.deleted = append(p.deleted, event)
	return nil
}

func (p *recordingPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.changed = append(p.changed, event)
	return nil
}

func (p *recordingPublisher) PublishUserAuthenticated(_ context.Context, event domain.UserAuthenticatedEvent) error {
	p.authenticated = append(p.authenticated, event)
	return nil
}

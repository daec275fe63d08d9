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
	"github.com/arklim/console-auth/internal/infra/logger"
	"github.com/arklim/console-auth/internal/infra/security"
	"github.com/arklim/console-auth/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the username/password pair did not verify.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled indicates the account exists but is disabled.
	ErrAccountDisabled = errors.New("account is disabled")
	// ErrInvalidAccessToken indicates the presented token failed validation.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the presented token is expired.
	ErrExpiredAccessToken = errors.New("access token expired")
)

// LoginResult carries the issued token and the identity it represents.
type LoginResult struct {
	AccessToken string
	TokenTTL    time.Duration
	Username    string
	GlobalAdmin bool
}

// AuthService performs credential checks and token issuance. The credential
// backend is pluggable: local verification against the user store or an
// external provider, selected at wiring time.
type AuthService struct {
	authenticator port.Authenticator
	authz         *AuthorizationService
	tokens        *security.TokenCodec
	events        port.EventPublisher
	log           *zap.Logger
	now           func() time.Time
}

// NewAuthService constructs AuthService.
func NewAuthService(
	authenticator port.Authenticator,
	authz *AuthorizationService,
	tokens *security.TokenCodec,
	events port.EventPublisher,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		authz:         authz,
		tokens:        tokens,
		events:        events,
		log:           log,
		now:           time.Now,
	}
}

// Login verifies the credentials and issues an access token embedding the
// caller's admin snapshot. Missing users and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	canonical, err := s.authenticator.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	globalAdmin, err := s.authz.HasGlobalAdmin(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("resolve admin flag: %w", err)
	}

	token, err := s.tokens.Issue(canonical, globalAdmin)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	loginAt := s.now().UTC()
	if s.events != nil {
		event := domain.UserAuthenticatedEvent{
			EventID:     uuid.NewString(),
			Username:    canonical,
			GlobalAdmin: globalAdmin,
			LoginAt:     loginAt,
		}
		if err := s.events.PublishUserAuthenticated(ctx, event); err != nil {
			s.log.Warn("publish authenticated event failed", zap.Error(err))
		}
	}

	s.log.Info("user authenticated",
		zap.String("username", canonical),
		zap.Bool("global_admin", globalAdmin),
	)

	return &LoginResult{
		AccessToken: token,
		TokenTTL:    s.tokens.TTL(),
		Username:    canonical,
		GlobalAdmin: globalAdmin,
	}, nil
}

// ParseAccessToken validates a compact token and returns the identity it
// asserts. Expired tokens are distinguished from malformed or forged ones.
func (s *AuthService) ParseAccessToken(raw string) (*domain.Identity, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			return nil, ErrExpiredAccessToken
		default:
			return nil, ErrInvalidAccessToken
		}
	}

	return &domain.Identity{
		Username:    claims.Subject,
		GlobalAdmin: claims.GlobalAdmin,
	}, nil
}

// LocalAuthenticator verifies credentials against the user store.
type LocalAuthenticator struct {
	users port.UserRepository
	log   *zap.Logger
}

// NewLocalAuthenticator constructs a store-backed authenticator.
func NewLocalAuthenticator(users port.UserRepository, log *zap.Logger) *LocalAuthenticator {
	return &LocalAuthenticator{users: users, log: log}
}

// Authenticate looks up the user and verifies the password hash. A malformed
// stored digest verifies as false, so corrupted rows surface as bad
// credentials rather than internal faults.
func (a *LocalAuthenticator) Authenticate(ctx context.Context, username, password string) (string, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if !user.Enabled {
		return "", ErrAccountDisabled
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		a.log.Info("password verification failed",
			zap.String("username", logger.MaskString(username)),
		)
		return "", ErrInvalidCredentials
	}

	return user.Username, nil
}

var _ port.Authenticator = (*LocalAuthenticator)(nil)

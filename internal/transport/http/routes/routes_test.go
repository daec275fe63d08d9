package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/console-auth/internal/core/domain"
	"github.com/arklim/console-auth/internal/infra/config"
	"github.com/arklim/console-auth/internal/infra/security"
	"github.com/arklim/console-auth/internal/repository"
	httproutes "github.com/arklim/console-auth/internal/transport/http/routes"
	"github.com/arklim/console-auth/internal/usecase"
)

type memoryUserRepo struct {
	users map[string]domain.User
}

func (m *memoryUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (m *memoryUserRepo) Insert(_ context.Context, user domain.User) error {
	if _, ok := m.users[user.Username]; ok {
		return repository.ErrAlreadyExists
	}
	m.users[user.Username] = user
	return nil
}

func (m *memoryUserRepo) UpdatePassword(_ context.Context, username, passwordHash string, changedAt time.Time) error {
	user, ok := m.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = changedAt
	m.users[username] = user
	return nil
}

func (m *memoryUserRepo) Delete(_ context.Context, username string) error {
	delete(m.users, username)
	return nil
}

func (m *memoryUserRepo) ListPage(_ context.Context, pageNo, pageSize int) (*domain.UserPage, error) {
	items := make([]domain.User, 0, len(m.users))
	for _, user := range m.users {
		items = append(items, user)
	}
	return &domain.UserPage{
		TotalCount:     len(items),
		PageNumber:     pageNo,
		PagesAvailable: 1,
		PageItems:      items,
	}, nil
}

func (m *memoryUserRepo) SearchByFragment(_ context.Context, _ string) ([]string, error) {
	names := make([]string, 0, len(m.users))
	for name := range m.users {
		names = append(names, name)
	}
	return names, nil
}

type memoryRoleRepo struct {
	roles map[string][]string
}

func (m *memoryRoleRepo) RolesOf(_ context.Context, username string) ([]string, error) {
	return m.roles[username], nil
}

func (m *memoryRoleRepo) Assign(_ context.Context, username, role string) error {
	m.roles[username] = append(m.roles[username], role)
	return nil
}

func (m *memoryRoleRepo) Revoke(_ context.Context, _, _ string) error {
	return nil
}

type memoryPermissionRepo struct{}

func (memoryPermissionRepo) ListByRoles(_ context.Context, _ []string) ([]domain.Permission, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zaptest.NewLogger(t)

	hash, err := security.HashPassword("tr4verse-Mountain-91")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	users := &memoryUserRepo{users: map[string]domain.User{
		"console-admin": {
			Username:     "console-admin",
			PasswordHash: hash,
			Enabled:      true,
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		},
	}}
	roles := &memoryRoleRepo{roles: map[string][]string{
		"console-admin": {domain.RoleGlobalAdmin},
	}}

	codec, err := security.NewTokenCodec(security.TokenCodecConfig{
		Secret: "routes-test-signing-secret-0123456789",
		Issuer: "console-auth-test",
		TTL:    time.Minute,
	})
	if err != nil {
		t.Fatalf("build token codec: %v", err)
	}

	authz := usecase.NewAuthorizationService(roles, memoryPermissionRepo{})
	authenticator := usecase.NewLocalAuthenticator(users, log)
	auth := usecase.NewAuthService(authenticator, authz, codec, nil, log)
	userService := usecase.NewUserService(users, authz, nil, nil, log)

	cfg := &config.AppConfig{App: config.AppSettings{Env: "test"}}

	return httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: log,
		Services: httproutes.ServiceSet{
			Auth:  auth,
			Users: userService,
		},
	})
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestUsersRequireBearerToken(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/auth/users", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestLoginThenListUsers(t *testing.T) {
	r := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{
		"username": "console-admin",
		"password": "tr4verse-Mountain-91",
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected login status 200, got %d: %s", w.Code, w.Body.String())
	}

	var login struct {
		AccessToken string `json:"access_token"`
		GlobalAdmin bool   `json:"global_admin"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if login.AccessToken == "" {
		t.Fatal("expected a non-empty access token")
	}
	if !login.GlobalAdmin {
		t.Fatal("expected the admin account to carry the admin flag")
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/v1/auth/users", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected list status 200, got %d: %s", w.Code, w.Body.String())
	}

	var page struct {
		TotalCount int `json:"total_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected total count 1, got %d", page.TotalCount)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	r := newTestRouter(t)

	body, _ := json.Marshal(map[string]string{
		"username": "console-admin",
		"password": "not-the-password",
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

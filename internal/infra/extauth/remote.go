package extauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/console-auth/internal/core/port"
	"github.com/arklim/console-auth/internal/usecase"
)

// RemoteAuthenticator delegates credential checks to an external identity
// provider over HTTP. The provider owns the credential store; this service
// still issues its own tokens and evaluates its own permissions.
type RemoteAuthenticator struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewRemoteAuthenticator constructs an authenticator calling the provider at
// the given endpoint.
func NewRemoteAuthenticator(endpoint string, timeout time.Duration, logger *zap.Logger) (*RemoteAuthenticator, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("extauth: endpoint is required")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &RemoteAuthenticator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}, nil
}

type verifyRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type verifyResponse struct {
	Username string `json:"username"`
}

// Authenticate posts the credentials to the provider. A 2xx response means
// the credentials are valid; the provider may return a canonical username
// differing in case from the submitted one.
func (a *RemoteAuthenticator) Authenticate(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(verifyRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("extauth: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("extauth: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("extauth: call provider: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", usecase.ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		a.logger.Warn("external auth provider returned unexpected status",
			zap.Int("status", resp.StatusCode),
		)
		return "", fmt.Errorf("extauth: provider status %d", resp.StatusCode)
	}

	var decoded verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("extauth: decode response: %w", err)
	}

	canonical := strings.TrimSpace(decoded.Username)
	if canonical == "" {
		canonical = username
	}

	return canonical, nil
}

var _ port.Authenticator = (*RemoteAuthenticator)(nil)

package port

import "context"

// Authenticator verifies a username/password pair against some credential
// backend and returns the canonical username. The gateway depends on this
// interface only, so the local user-store backend and an external provider
// are interchangeable at wiring time.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

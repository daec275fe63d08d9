package domain

import "time"

// UserCreatedEvent is emitted after a user record is persisted.
type UserCreatedEvent struct {
	EventID   string
	Username  string
	CreatedBy string
	CreatedAt time.Time
}

// UserDeletedEvent is emitted after a user record is removed.
type UserDeletedEvent struct {
	EventID   string
	Username  string
	DeletedBy string
	DeletedAt time.Time
}

// PasswordChangedEvent is emitted after a password hash is replaced, either
// by the user themselves or by an administrator.
type PasswordChangedEvent struct {
	EventID   string
	Username  string
	ChangedBy string
	ChangedAt time.Time
}

// UserAuthenticatedEvent is emitted after a successful login.
type UserAuthenticatedEvent struct {
	EventID     string
	Username    string
	GlobalAdmin bool
	LoginAt     time.Time
}

package domain

import "time"

// User mirrors the persisted representation in the users table. The username
// is the immutable natural key; the password is stored only as an encoded
// Argon2id digest.
type User struct {
	Username     string
	PasswordHash string
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated caller threaded explicitly through every
// gateway operation. GlobalAdmin is a snapshot taken at token issuance.
type Identity struct {
	Username    string
	GlobalAdmin bool
}

// UserPage is the paged listing shape returned by the console API.
type UserPage struct {
	TotalCount     int
	PageNumber     int
	PagesAvailable int
	PageItems      []User
}

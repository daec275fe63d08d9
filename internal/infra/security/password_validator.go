package security

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// ErrWeakPassword wraps all password policy violations so callers can map
// the whole family to a single failure kind.
var ErrWeakPassword = errors.New("password does not meet policy")

// PasswordPolicy holds the rules applied to new passwords.
type PasswordPolicy struct {
	MinLength      int
	MaxLength      int
	MinStrength    int
	RequireLetter  bool
	RequireDigit   bool
	ForbidUsername bool
}

// DefaultPasswordPolicy returns the policy used when configuration does not
// override it.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:      8,
		MaxLength:      128,
		MinStrength:    2,
		RequireLetter:  true,
		RequireDigit:   true,
		ForbidUsername: true,
	}
}

// PasswordValidator checks candidate passwords against the policy.
type PasswordValidator struct {
	policy PasswordPolicy
}

// NewPasswordValidator constructs a validator with the provided policy,
// falling back to defaults for unset fields.
func NewPasswordValidator(policy PasswordPolicy) *PasswordValidator {
	defaults := DefaultPasswordPolicy()
	if policy.MinLength <= 0 {
		policy.MinLength = defaults.MinLength
	}
	if policy.MaxLength <= 0 {
		policy.MaxLength = defaults.MaxLength
	}
	if policy.MinStrength < 0 || policy.MinStrength > 4 {
		policy.MinStrength = defaults.MinStrength
	}
	return &PasswordValidator{policy: policy}
}

// Validate returns an error wrapping ErrWeakPassword when the candidate
// violates the policy. The username is used as dictionary input so passwords
// derived from the account name score lower.
func (v *PasswordValidator) Validate(username, password string) error {
	if len(password) < v.policy.MinLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, v.policy.MinLength)
	}
	if len(password) > v.policy.MaxLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrWeakPassword, v.policy.MaxLength)
	}

	if v.policy.RequireLetter && !containsClass(password, unicode.IsLetter) {
		return fmt.Errorf("%w: must contain a letter", ErrWeakPassword)
	}
	if v.policy.RequireDigit && !containsClass(password, unicode.IsDigit) {
		return fmt.Errorf("%w: must contain a digit", ErrWeakPassword)
	}

	if v.policy.ForbidUsername && username != "" {
		if strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
			return fmt.Errorf("%w: must not contain the username", ErrWeakPassword)
		}
	}

	if v.policy.MinStrength > 0 {
		result := zxcvbn.PasswordStrength(password, []string{username})
		if result.Score < v.policy.MinStrength {
			return fmt.Errorf("%w: too guessable, add length or variety", ErrWeakPassword)
		}
	}

	return nil
}

func containsClass(s string, class func(rune) bool) bool {
	for _, r := range s {
		if class(r) {
			return true
		}
	}
	return false
}

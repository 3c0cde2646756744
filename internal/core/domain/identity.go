package domain

import (
	"net/mail"
	"strings"
)

const MinPasswordLength = 6

// Identity is the user as reported by the identity provider.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
	Provider    string // "password", "google.com", "local"
}

// Name returns the best label for the user.
func (i *Identity) Name() string {
	if i == nil {
		return ""
	}
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Email
}

type SessionState string

const (
	StateInitializing  SessionState = "initializing"
	StateAuthenticated SessionState = "authenticated"
	StateAnonymous     SessionState = "anonymous"
)

// SessionSnapshot is what listeners of the session receive on every change.
type SessionSnapshot struct {
	User    *Identity
	Loading bool
	State   SessionState
}

// Profile is the public user record kept by the backend (/users).
type Profile struct {
	Name     string
	Email    string
	PhotoURL string
}

// --- VALIDATORS ---

// ValidateEmail rejects syntactically invalid addresses.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return Invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return Invalid("%q is not a valid email address", email)
	}
	return nil
}

// ValidateCredentials checks an email/password pair before it reaches the provider.
func ValidateCredentials(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if len(password) < MinPasswordLength {
		return Invalid("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

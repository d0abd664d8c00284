// Package identity is the gateway to the credential provider: it signs
// actors in and out, verifies session tokens and provisions accounts.
// Two providers exist: Local (bcrypt accounts plus signed JWTs) and
// Firebase (Firebase Authentication).
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("account not found")
)

// Principal is the verified identity behind a session token.
type Principal struct {
	UID   string
	Email string
	// Admin is a signed claim carried by the token itself.
	Admin bool
}

// Session is an issued session token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Principal Principal
}

// Gateway is implemented by every credential provider.
type Gateway interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Verify(ctx context.Context, token string) (*Principal, error)
	SignOut(ctx context.Context, token string) error
	// CreateAccount registers credentials server side without signing the
	// caller out of their own session.
	CreateAccount(ctx context.Context, email, password string, admin bool) (string, error)
	DeleteAccount(ctx context.Context, uid string) error
}

// Account is a credential record of the local provider.
type Account struct {
	UID          string
	Email        string
	PasswordHash string
	Admin        bool
	CreatedAt    time.Time
}

// AccountStore persists local accounts.
type AccountStore interface {
	// Create fails with ErrEmailTaken when the email is registered.
	Create(ctx context.Context, a *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Delete(ctx context.Context, uid string) error
}

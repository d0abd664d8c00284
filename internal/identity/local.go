package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Local authenticates against bcrypt hashes held in an AccountStore and
// issues HS256 tokens tracked by a SessionRegistry.
type Local struct {
	accounts   AccountStore
	tokens     *TokenIssuer
	sessions   SessionRegistry
	bcryptCost int
	log        zerolog.Logger
}

// NewLocal creates a Local provider.
func NewLocal(accounts AccountStore, tokens *TokenIssuer, sessions SessionRegistry, bcryptCost int, log zerolog.Logger) *Local {
	return &Local{
		accounts:   accounts,
		tokens:     tokens,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		log:        log.With().Str("component", "identity_local").Logger(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes a password with the configured bcrypt cost.
func (l *Local) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.bcryptCost)
	return string(hash), err
}

func (l *Local) SignIn(ctx context.Context, email, password string) (*Session, error) {
	acct, err := l.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, claims, err := l.tokens.Issue(acct)
	if err != nil {
		return nil, err
	}
	expiresAt := claims.ExpiresAt.Time
	if err := l.sessions.Register(ctx, acct.UID, claims.ID, time.Until(expiresAt)); err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Principal: Principal{UID: acct.UID, Email: acct.Email, Admin: acct.Admin},
	}, nil
}

func (l *Local) Verify(ctx context.Context, token string) (*Principal, error) {
	claims, err := l.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	active, err := l.sessions.Active(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrInvalidSession
	}
	return &Principal{UID: claims.Subject, Email: claims.Email, Admin: claims.Admin}, nil
}

// SignOut revokes the session. Signing out an unknown or expired token is a no-op.
func (l *Local) SignOut(ctx context.Context, token string) error {
	claims, err := l.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return l.sessions.Revoke(ctx, claims.ID)
}

func (l *Local) CreateAccount(ctx context.Context, email, password string, admin bool) (string, error) {
	hash, err := l.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	acct := &Account{
		UID:          uuid.NewString(),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Admin:        admin,
	}
	if err := l.accounts.Create(ctx, acct); err != nil {
		return "", err
	}
	l.log.Info().Str("uid", acct.UID).Bool("admin", admin).Msg("Account created")
	return acct.UID, nil
}

func (l *Local) DeleteAccount(ctx context.Context, uid string) error {
	if err := l.accounts.Delete(ctx, uid); err != nil {
		return err
	}
	if err := l.sessions.RevokeAll(ctx, uid); err != nil {
		l.log.Warn().Err(err).Str("uid", uid).Msg("Failed to revoke sessions of deleted account")
	}
	return nil
}

var _ Gateway = (*Local)(nil)

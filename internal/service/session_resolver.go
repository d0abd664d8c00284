package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/identity"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
)

// StudentAddress synthesises the sign-in address of a student from their
// registration number.
func StudentAddress(registrationNumber, domain string) string {
	return strings.ToLower(strings.TrimSpace(registrationNumber)) + "@" + domain
}

// SessionResolver turns a bearer credential into an Actor.
type SessionResolver struct {
	idp         identity.Gateway
	users       store.UserStore
	emailDomain string
	log         zerolog.Logger
}

// NewSessionResolver creates a new SessionResolver.
func NewSessionResolver(idp identity.Gateway, users store.UserStore, studentEmailDomain string, log zerolog.Logger) *SessionResolver {
	return &SessionResolver{
		idp:         idp,
		users:       users,
		emailDomain: studentEmailDomain,
		log:         log.With().Str("component", "session_resolver").Logger(),
	}
}

// Resolve classifies the caller. It never fails: identity and role lookup
// problems degrade to Unauthenticated or Unrecognized.
func (r *SessionResolver) Resolve(ctx context.Context, token string) model.Actor {
	if token == "" {
		return model.Actor{Kind: model.ActorUnauthenticated}
	}
	p, err := r.idp.Verify(ctx, token)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidSession) {
			r.log.Warn().Err(err).Msg("Session verification failed")
		}
		return model.Actor{Kind: model.ActorUnauthenticated}
	}
	return r.actorFor(ctx, p)
}

func (r *SessionResolver) actorFor(ctx context.Context, p *identity.Principal) model.Actor {
	actor := model.Actor{UID: p.UID, Email: p.Email}

	// The admin claim is signed by the identity provider; no role record is read.
	if p.Admin {
		actor.Kind = model.ActorAdmin
		actor.Name = "Administrator"
		return actor
	}

	rec, err := r.users.Get(ctx, p.UID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			r.log.Error().Err(err).Str("uid", p.UID).Msg("Role lookup failed")
		}
		actor.Kind = model.ActorUnrecognized
		return actor
	}
	actor.Kind = model.KindForRole(rec.Role)
	actor.Name = rec.Name
	return actor
}

// SignIn authenticates with email and password. Unknown accounts and wrong
// passwords both yield identity.ErrInvalidCredentials.
func (r *SessionResolver) SignIn(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	sess, err := r.idp.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return &model.LoginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Actor:     r.actorFor(ctx, &sess.Principal),
	}, nil
}

// SignInStudent authenticates a student by registration number.
func (r *SessionResolver) SignInStudent(ctx context.Context, registrationNumber, password string) (*model.LoginResponse, error) {
	return r.SignIn(ctx, StudentAddress(registrationNumber, r.emailDomain), password)
}

// SignOut ends the session behind token.
func (r *SessionResolver) SignOut(ctx context.Context, token string) error {
	return r.idp.SignOut(ctx, token)
}

// StudentAddress returns the sign-in address for a registration number.
func (r *SessionResolver) StudentAddress(registrationNumber string) string {
	return StudentAddress(registrationNumber, r.emailDomain)
}

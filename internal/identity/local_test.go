package identity

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	return NewLocal(NewMemoryAccounts(), NewTokenIssuer("test-secret", time.Hour), NewMemorySessions(), bcrypt.MinCost, zerolog.Nop())
}

func TestLocal_SignInVerifySignOut(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)

	uid, err := l.CreateAccount(ctx, " Teacher@Example.com ", "secret1", false)
	require.NoError(t, err)

	sess, err := l.SignIn(ctx, "teacher@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, uid, sess.Principal.UID)
	assert.Equal(t, "teacher@example.com", sess.Principal.Email)
	assert.False(t, sess.Principal.Admin)

	p, err := l.Verify(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, uid, p.UID)

	require.NoError(t, l.SignOut(ctx, sess.Token))
	_, err = l.Verify(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestLocal_AdminClaim(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	_, err := l.CreateAccount(ctx, "root@example.com", "secret1", true)
	require.NoError(t, err)

	sess, err := l.SignIn(ctx, "root@example.com", "secret1")
	require.NoError(t, err)
	p, err := l.Verify(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, p.Admin)
}

func TestLocal_RejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	_, err := l.CreateAccount(ctx, "a@example.com", "secret1", false)
	require.NoError(t, err)

	_, err = l.SignIn(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = l.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocal_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	_, err := l.CreateAccount(ctx, "a@example.com", "secret1", false)
	require.NoError(t, err)
	_, err = l.CreateAccount(ctx, "A@example.com", "other12", false)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLocal_DeleteAccountRevokesSessions(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	uid, err := l.CreateAccount(ctx, "a@example.com", "secret1", false)
	require.NoError(t, err)
	sess, err := l.SignIn(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, l.DeleteAccount(ctx, uid))
	_, err = l.Verify(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.ErrorIs(t, l.DeleteAccount(ctx, uid), ErrAccountNotFound)
}

func TestLocal_VerifyRejectsForeignToken(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t)
	other := NewTokenIssuer("other-secret", time.Hour)
	token, _, err := other.Issue(&Account{UID: "u1", Email: "x@example.com", Admin: true})
	require.NoError(t, err)

	_, err = l.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.NoError(t, l.SignOut(ctx, "garbage"))
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("s", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.Issue(&Account{UID: "u1"})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

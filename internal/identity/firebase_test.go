package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	tokens  map[string]*auth.Token
	claims  map[string]map[string]interface{}
	revoked []string
	deleted []string
}

func (f *fakeAuth) CreateUser(_ context.Context, _ *auth.UserToCreate) (*auth.UserRecord, error) {
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: "new-uid"}}, nil
}

func (f *fakeAuth) DeleteUser(_ context.Context, uid string) error {
	f.deleted = append(f.deleted, uid)
	return nil
}

func (f *fakeAuth) VerifyIDTokenAndCheckRevoked(_ context.Context, idToken string) (*auth.Token, error) {
	tok, ok := f.tokens[idToken]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return tok, nil
}

func (f *fakeAuth) SetCustomUserClaims(_ context.Context, uid string, c map[string]interface{}) error {
	if f.claims == nil {
		f.claims = map[string]map[string]interface{}{}
	}
	f.claims[uid] = c
	return nil
}

func (f *fakeAuth) RevokeRefreshTokens(_ context.Context, uid string) error {
	f.revoked = append(f.revoked, uid)
	return nil
}

func signInServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "web-key", r.URL.Query().Get("key"))
		var req signInRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret1" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(signInResponse{IDToken: "id-token", LocalID: "uid-1", Email: req.Email, ExpiresIn: "3600"})
	}))
}

func TestFirebase_SignIn(t *testing.T) {
	srv := signInServer(t)
	defer srv.Close()

	fa := &fakeAuth{tokens: map[string]*auth.Token{
		"id-token": {UID: "uid-1", Claims: map[string]interface{}{"email": "root@example.com", "admin": true}},
	}}
	f := NewFirebase(fa, "web-key", zerolog.Nop(), WithSignInURL(srv.URL))

	sess, err := f.SignIn(context.Background(), "root@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "id-token", sess.Token)
	assert.Equal(t, "uid-1", sess.Principal.UID)
	assert.True(t, sess.Principal.Admin)

	_, err = f.SignIn(context.Background(), "root@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestFirebase_VerifyAndSignOut(t *testing.T) {
	fa := &fakeAuth{tokens: map[string]*auth.Token{
		"t": {UID: "uid-2", Claims: map[string]interface{}{"email": "t@example.com"}},
	}}
	f := NewFirebase(fa, "k", zerolog.Nop())

	p, err := f.Verify(context.Background(), "t")
	require.NoError(t, err)
	assert.False(t, p.Admin)
	assert.Equal(t, "t@example.com", p.Email)

	_, err = f.Verify(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrInvalidSession)

	require.NoError(t, f.SignOut(context.Background(), "t"))
	assert.Equal(t, []string{"uid-2"}, fa.revoked)
}

func TestFirebase_CreateAdminSetsClaim(t *testing.T) {
	fa := &fakeAuth{}
	f := NewFirebase(fa, "k", zerolog.Nop())

	uid, err := f.CreateAccount(context.Background(), "root@example.com", "secret1", true)
	require.NoError(t, err)
	assert.Equal(t, "new-uid", uid)
	assert.Equal(t, true, fa.claims["new-uid"]["admin"])
}

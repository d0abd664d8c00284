package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"
)

const defaultSignInURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// AuthClient is the subset of the Firebase Admin auth client used here.
type AuthClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// Firebase signs in through the Identity Toolkit REST endpoint and manages
// accounts with the Admin SDK. The admin flag is a custom claim.
type Firebase struct {
	client    AuthClient
	apiKey    string
	signInURL string
	http      *http.Client
	log       zerolog.Logger
}

// FirebaseOption customises a Firebase provider.
type FirebaseOption func(*Firebase)

// WithSignInURL overrides the password sign-in endpoint.
func WithSignInURL(url string) FirebaseOption {
	return func(f *Firebase) { f.signInURL = url }
}

// WithHTTPClient overrides the client used for sign-in calls.
func WithHTTPClient(c *http.Client) FirebaseOption {
	return func(f *Firebase) { f.http = c }
}

// NewFirebase creates a Firebase provider.
func NewFirebase(client AuthClient, webAPIKey string, log zerolog.Logger, opts ...FirebaseOption) *Firebase {
	f := &Firebase{
		client:    client,
		apiKey:    webAPIKey,
		signInURL: defaultSignInURL,
		http:      &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("component", "identity_firebase").Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken   string `json:"idToken"`
	LocalID   string `json:"localId"`
	Email     string `json:"email"`
	ExpiresIn string `json:"expiresIn"`
}

type signInError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(signInRequest{Email: normalizeEmail(email), Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.signInURL+"?key="+f.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sign in request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr signInError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if isCredentialError(apiErr.Error.Message) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: status %d: %s", resp.StatusCode, apiErr.Error.Message)
	}

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode sign in response: %w", err)
	}

	principal, err := f.Verify(ctx, out.IDToken)
	if err != nil {
		return nil, err
	}
	secs, _ := strconv.Atoi(out.ExpiresIn)
	return &Session{
		Token:     out.IDToken,
		ExpiresAt: time.Now().Add(time.Duration(secs) * time.Second),
		Principal: *principal,
	}, nil
}

func isCredentialError(msg string) bool {
	for _, m := range []string{"INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED", "INVALID_EMAIL"} {
		if strings.HasPrefix(msg, m) {
			return true
		}
	}
	return false
}

func (f *Firebase) Verify(ctx context.Context, token string) (*Principal, error) {
	tok, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	p := &Principal{UID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		p.Email = email
	}
	if admin, ok := tok.Claims["admin"].(bool); ok {
		p.Admin = admin
	}
	return p, nil
}

// SignOut revokes the refresh tokens of the account behind the token, which
// also invalidates the token for Verify.
func (f *Firebase) SignOut(ctx context.Context, token string) error {
	tok, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return nil
	}
	return f.client.RevokeRefreshTokens(ctx, tok.UID)
}

func (f *Firebase) CreateAccount(ctx context.Context, email, password string, admin bool) (string, error) {
	user := (&auth.UserToCreate{}).Email(normalizeEmail(email)).Password(password)
	rec, err := f.client.CreateUser(ctx, user)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	if admin {
		if err := f.client.SetCustomUserClaims(ctx, rec.UID, map[string]interface{}{"admin": true}); err != nil {
			return "", fmt.Errorf("set admin claim: %w", err)
		}
	}
	f.log.Info().Str("uid", rec.UID).Bool("admin", admin).Msg("Account created")
	return rec.UID, nil
}

func (f *Firebase) DeleteAccount(ctx context.Context, uid string) error {
	if err := f.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}

var _ Gateway = (*Firebase)(nil)

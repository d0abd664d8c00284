package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type tokenTable map[string]model.Actor

func (t tokenTable) Resolve(_ context.Context, token string) model.Actor {
	if a, ok := t[token]; ok {
		return a
	}
	return model.Actor{Kind: model.ActorUnauthenticated}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestRequireRole(t *testing.T) {
	tokens := tokenTable{
		"t": {Kind: model.ActorTeacher, UID: "t1"},
		"s": {Kind: model.ActorStudent, UID: "s1"},
		"u": {Kind: model.ActorUnrecognized, UID: "u1"},
	}
	r := gin.New()
	r.Use(Authenticate(tokens))
	r.GET("/teach", RequireRole(model.ActorTeacher, model.ActorAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, GetActor(c).UID)
	})

	cases := []struct {
		name   string
		header string
		query  string
		status int
		code   string
	}{
		{"no credential", "", "", http.StatusUnauthorized, string(response.ErrTokenRequired)},
		{"bad credential", "Bearer nope", "", http.StatusUnauthorized, string(response.ErrTokenInvalid)},
		{"unrecognized role", "Bearer u", "", http.StatusForbidden, string(response.ErrRoleUnrecognized)},
		{"wrong role", "Bearer s", "", http.StatusForbidden, string(response.ErrForbidden)},
		{"query fallback", "", "?token=t", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/teach"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, errorCode(t, w))
			} else {
				assert.Equal(t, "t1", w.Body.String())
			}
		})
	}
}

func TestRateLimiter_RefillsPerInterval(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"))

	now = now.Add(10 * time.Minute)
	rl.cleanup()
	assert.Empty(t, rl.buckets)
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, want, w.Code)
	}
}

func TestBrotli(t *testing.T) {
	big := strings.Repeat("question ", 500)
	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 64, SkipPaths: []string{"/metrics"}}))
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, big) })

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/big")
	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, big, string(plain))

	w = get("/small")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())

	w = get("/metrics")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, big, w.Body.String())
}

func TestCacheControl(t *testing.T) {
	r := gin.New()
	r.GET("/x", CacheControl("no-store"), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

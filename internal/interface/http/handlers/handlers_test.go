package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func newAuth(t *testing.T) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator(AuthConfig{Secret: secret, Issuer: "skillswap-idp"})
	require.NoError(t, err)
	return a
}

func whoami() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := UserIDFromContext(r.Context())
		_, _ = w.Write([]byte(id))
	})
}

func TestAuthenticator_IssueVerify(t *testing.T) {
	a := newAuth(t)

	token, err := a.Issue("alice", time.Hour, time.Now())
	require.NoError(t, err)

	sub, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestAuthenticator_RejectsExpiredAndForeign(t *testing.T) {
	a := newAuth(t)

	expired, err := a.Issue("alice", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = a.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewAuthenticator(AuthConfig{Secret: []byte("other"), Issuer: "skillswap-idp"})
	require.NoError(t, err)
	foreign, err := other.Issue("alice", time.Hour, time.Now())
	require.NoError(t, err)
	_, err = a.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewAuthenticator(AuthConfig{})
	assert.Error(t, err)
}

func TestAuthenticator_Middleware(t *testing.T) {
	a := newAuth(t)
	h := a.Middleware(whoami())

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "unauthenticated")
	})

	t.Run("bearer header", func(t *testing.T) {
		token, _ := a.Issue("bob", time.Hour, time.Now())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "bob", rec.Body.String())
	})

	t.Run("query parameter", func(t *testing.T) {
		token, _ := a.Issue("carol", time.Hour, time.Now())
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?access_token="+token, nil))
		assert.Equal(t, "carol", rec.Body.String())
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "buckets are per key")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, rl.Cleanup())
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, time.Minute)
	h := rl.Middleware(whoami())

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(req))
}

func TestCompositeHealthChecker(t *testing.T) {
	c := NewCompositeHealthChecker("test")
	c.AddCheck("postgres", func(context.Context) error { return nil })
	c.AddOptionalCheck("redis", func(context.Context) error { return errors.New("connection refused") })

	status := c.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, "failed checks: redis", status.Message)
	assert.False(t, status.Checks["redis"].Critical)

	c.AddCheck("postgres", func(context.Context) error { return errors.New("down") })
	status = c.Check(context.Background())
	assert.False(t, status.Ready)
	assert.Equal(t, "failed checks: postgres, redis", status.Message)
}

func TestRequestSizeLimit(t *testing.T) {
	h := RequestSizeLimitMiddleware(4)(whoami())
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.ContentLength = 10
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

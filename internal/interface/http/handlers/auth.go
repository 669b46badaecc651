package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// JWT AUTHENTICATION
// Tokens come from the identity provider. Only the subject is used: it is
// the current user ID for every authenticated endpoint.
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrMissingToken is returned when no bearer token was sent.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned when the token fails verification.
	ErrInvalidToken = errors.New("invalid token")
)

// AuthConfig configures token verification.
type AuthConfig struct {
	// Secret is the HMAC key shared with the identity provider.
	Secret []byte

	// Issuer and Audience are checked when set.
	Issuer   string
	Audience string

	// Leeway tolerates clock skew on exp/nbf.
	Leeway time.Duration
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	config AuthConfig
	parser *jwt.Parser
}

// NewAuthenticator creates an Authenticator. An empty secret is rejected.
func NewAuthenticator(config AuthConfig) (*Authenticator, error) {
	if len(config.Secret) == 0 {
		return nil, errors.New("auth: secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(config.Leeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	return &Authenticator{config: config, parser: jwt.NewParser(opts...)}, nil
}

// Verify checks the token and returns its subject.
func (a *Authenticator) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := a.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.config.Secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Issue signs a token for subject. Used by swapctl for local testing.
func (a *Authenticator) Issue(subject string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if a.config.Issuer != "" {
		claims.Issuer = a.config.Issuer
	}
	if a.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{a.config.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.config.Secret)
}

// Middleware rejects requests without a valid bearer token and stores the
// subject in the request context. Browsers cannot set headers on WebSocket
// upgrades, so the token may also come in the access_token query parameter.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated", ErrMissingToken.Error())
			return
		}

		userID, err := a.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return r.URL.Query().Get("access_token")
}

type userIDKey struct{}

// WithUserID stores the authenticated user ID in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the authenticated user ID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of issued tokens when none is given
const DefaultTokenTTL = 24 * time.Hour

// TokenAuth issues and checks HS256 bearer tokens for the query API
type TokenAuth struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenAuth creates a token authority. A ttl of zero uses DefaultTokenTTL.
func NewTokenAuth(secret string, ttl time.Duration) (*TokenAuth, error) {
	if secret == "" {
		return nil, errors.New("token secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenAuth{secret: []byte(secret), ttl: ttl}, nil
}

// IssueToken signs a token for subject
func (a *TokenAuth) IssueToken(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ValidateToken checks the signature and expiry of token and returns its
// subject
func (a *TokenAuth) ValidateToken(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("invalid token: missing subject")
	}
	return claims.Subject, nil
}

// requireToken rejects requests without a valid bearer token. Health checks
// pass through. Browsers cannot set headers on WebSocket requests, so the
// token may also arrive as the access_token query parameter.
func requireToken(auth *TokenAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			token := r.URL.Query().Get("access_token")
			if header := r.Header.Get("Authorization"); header != "" {
				scheme, value, ok := strings.Cut(header, " ")
				if !ok || scheme != "Bearer" || value == "" {
					renderError(w, http.StatusUnauthorized, "unauthorized", errors.New("invalid authorization format"), "")
					return
				}
				token = value
			}
			if token == "" {
				renderError(w, http.StatusUnauthorized, "unauthorized", errors.New("authorization required"), "")
				return
			}

			if _, err := auth.ValidateToken(token); err != nil {
				renderError(w, http.StatusUnauthorized, "unauthorized", err, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

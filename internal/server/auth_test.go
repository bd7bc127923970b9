package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenAuth_IssueAndValidate(t *testing.T) {
	auth, err := NewTokenAuth("s3cret", time.Hour)
	require.NoError(t, err)

	token, err := auth.IssueToken("ci")
	require.NoError(t, err)

	subject, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ci", subject)

	other, err := NewTokenAuth("different", time.Hour)
	require.NoError(t, err)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenAuth_Rejects(t *testing.T) {
	auth, err := NewTokenAuth("s3cret", time.Hour)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	now := time.Now()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{
			Subject:   "ci",
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		})},
		{"no expiry", sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{Subject: "ci"})},
		{"no subject", sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		})},
		{"wrong algorithm", sign(jwt.SigningMethodHS512, []byte("s3cret"), jwt.RegisteredClaims{
			Subject:   "ci",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestNewTokenAuth(t *testing.T) {
	_, err := NewTokenAuth("", time.Hour)
	assert.Error(t, err)

	auth, err := NewTokenAuth("s3cret", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, auth.ttl)
}

func TestHandlerRequiresToken(t *testing.T) {
	auth, err := NewTokenAuth("s3cret", time.Hour)
	require.NoError(t, err)
	token, err := auth.IssueToken("ci")
	require.NoError(t, err)

	h := NewHandler(fixture(t), nil, WithTokenAuth(auth))

	tests := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"health is open", "/healthz", "", http.StatusOK},
		{"missing token", "/namespaces", "", http.StatusUnauthorized},
		{"wrong scheme", "/namespaces", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "/namespaces", "Bearer nope", http.StatusUnauthorized},
		{"bearer token", "/namespaces", "Bearer " + token, http.StatusOK},
		{"query token", "/namespaces?access_token=" + token, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

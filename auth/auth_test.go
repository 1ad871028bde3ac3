package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raghav352/bankapp/auth"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash, "passwords must never be stored in the clear")

	assert.NoError(t, auth.CheckPassword(hash, "password123"))
	assert.ErrorIs(t, auth.CheckPassword(hash, "wrong"), auth.ErrInvalidCredentials)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := auth.NewService([]byte("test-secret"), time.Hour)

	token, err := svc.Issue("acct-1", "alice")
	require.NoError(t, err)

	identity, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", identity.AccountID)
	assert.Equal(t, "alice", identity.Username)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := auth.NewService([]byte("test-secret"), -time.Minute)

	token, err := svc.Issue("acct-1", "alice")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	issuer := auth.NewService([]byte("secret-a"), time.Hour)
	verifier := auth.NewService([]byte("secret-b"), time.Hour)

	token, err := issuer.Issue("acct-1", "alice")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc := auth.NewService([]byte("test-secret"), time.Hour)

	_, err := svc.Verify("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func protectedEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFrom(r.Context())
		require.True(t, ok, "middleware must inject the identity")
		w.Write([]byte(identity.Username))
	})
}

func TestMiddleware_ValidToken(t *testing.T) {
	svc := auth.NewService([]byte("test-secret"), time.Hour)
	token, err := svc.Issue("acct-1", "alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/balance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	svc.Middleware(protectedEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestMiddleware_Rejections(t *testing.T) {
	svc := auth.NewService([]byte("test-secret"), time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a valid token")
	})

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/balance", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			svc.Middleware(next).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/offlinedesk/internal/server/handlers"
)

var testJWT = handlers.JWTConfig{
	Secret: []byte("test-secret-key"),
	TTL:    15 * time.Minute,
}

func mustToken(t *testing.T, cfg handlers.JWTConfig) string {
	t.Helper()
	token, _, err := handlers.GenerateAccessToken(cfg, "user123", "testuser", "manager")
	require.NoError(t, err)
	return token
}

func rejectingHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})
}

func TestAuthMiddleware_Success(t *testing.T) {
	handler := AuthMiddleware(discardLogger(), testJWT)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := handlers.ClaimsFromContext(r.Context())
		require.True(t, ok, "claims should be in context")
		assert.Equal(t, "user123", claims.UserID)
		assert.Equal(t, "testuser", claims.Username)
		assert.Equal(t, "manager", claims.Role)
		assert.Equal(t, "user123", handlers.UserIDFromContext(r.Context()))
		_, _ = w.Write([]byte("OK"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "Bearer "+mustToken(t, testJWT))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	handler := AuthMiddleware(discardLogger(), testJWT)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Authorization", "bearer "+mustToken(t, testJWT))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	expired := mustToken(t, handlers.JWTConfig{Secret: testJWT.Secret, TTL: -time.Minute})
	foreign := mustToken(t, handlers.JWTConfig{Secret: []byte("other-secret"), TTL: time.Minute})

	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{name: "missing header", header: "", wantMsg: "missing token"},
		{name: "no scheme", header: "token123", wantMsg: "invalid token format"},
		{name: "wrong scheme", header: "Basic token123", wantMsg: "invalid token format"},
		{name: "only scheme", header: "Bearer", wantMsg: "invalid token format"},
		{name: "empty token", header: "Bearer ", wantMsg: "invalid token format"},
		{name: "malformed token", header: "Bearer invalid.token.here", wantMsg: "invalid or expired token"},
		{name: "expired token", header: "Bearer " + expired, wantMsg: "invalid or expired token"},
		{name: "wrong secret", header: "Bearer " + foreign, wantMsg: "invalid or expired token"},
	}

	handler := AuthMiddleware(discardLogger(), testJWT)(rejectingHandler(t))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), tt.wantMsg)
		})
	}
}

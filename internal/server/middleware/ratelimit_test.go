package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/offlinedesk/pkg/api"
)

func TestNewRateLimiter_DefaultBurst(t *testing.T) {
	limiter := NewRateLimiter(1, 0)
	assert.Equal(t, defaultBurst, limiter.burst)
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("burst is allowed then denied", func(t *testing.T) {
		// почти нулевая скорость: пополнение не успевает за тест
		limiter := NewRateLimiter(0.001, 3)
		key := "192.168.1.2"

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow(key), fmt.Sprintf("request %d should be allowed", i+1))
		}
		assert.False(t, limiter.Allow(key), "request over burst should be denied")
	})

	t.Run("different keys are tracked separately", func(t *testing.T) {
		limiter := NewRateLimiter(0.001, 2)

		assert.True(t, limiter.Allow("a"))
		assert.True(t, limiter.Allow("a"))
		assert.False(t, limiter.Allow("a"), "a over limit")

		assert.True(t, limiter.Allow("b"))
		assert.True(t, limiter.Allow("b"))
		assert.False(t, limiter.Allow("b"), "b over limit")
	})

	t.Run("tokens refill over time", func(t *testing.T) {
		limiter := NewRateLimiter(50, 1)
		key := "192.168.1.3"

		assert.True(t, limiter.Allow(key))
		assert.False(t, limiter.Allow(key), "should be rate limited")

		time.Sleep(60 * time.Millisecond)

		assert.True(t, limiter.Allow(key), "token should be refilled")
	})
}

func TestRateLimiter_Cleanup(t *testing.T) {
	limiter := NewRateLimiter(10, 10)
	limiter.Allow("old")
	limiter.Allow("fresh")

	v := limiter.visitor("old")
	v.mu.Lock()
	v.lastSeen = time.Now().Add(-time.Hour)
	v.mu.Unlock()

	assert.Equal(t, 1, limiter.Cleanup(time.Minute))

	_, ok := limiter.limiters.Load("old")
	assert.False(t, ok)
	_, ok = limiter.limiters.Load("fresh")
	assert.True(t, ok)
}

func TestRateLimitMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RateLimitMiddleware(NewRateLimiter(0.001, 2), logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	call := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	// разные порты одного IP делят один bucket
	assert.Equal(t, http.StatusOK, call("192.168.1.1:1000").Code)
	assert.Equal(t, http.StatusOK, call("192.168.1.1:2000").Code)

	w := call("192.168.1.1:3000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, http.StatusText(http.StatusTooManyRequests), resp.Error)
	assert.Contains(t, resp.Message, "rate limit exceeded")
	assert.Contains(t, buf.String(), "rate limit exceeded")
	assert.Contains(t, buf.String(), "ip=192.168.1.1")

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000").Code, "other IP unaffected")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		headers    map[string]string
		name       string
		remoteAddr string
		want       string
	}{
		{
			name:       "X-Forwarded-For single IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			remoteAddr: "192.168.1.1:12345",
			want:       "203.0.113.1",
		},
		{
			name:       "X-Forwarded-For multiple IPs",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 198.51.100.1"},
			remoteAddr: "192.168.1.1:12345",
			want:       "203.0.113.1",
		},
		{
			name:       "X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.2"},
			remoteAddr: "192.168.1.1:12345",
			want:       "203.0.113.2",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.1:12345",
			want:       "192.168.1.1",
		},
		{
			name:       "RemoteAddr not host:port",
			remoteAddr: "pipe",
			want:       "pipe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

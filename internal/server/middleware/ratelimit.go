package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/iudanet/offlinedesk/internal/server/handlers"
)

// defaultBurst используется, когда burst не задан
const defaultBurst = 5

// RateLimiter хранит по token bucket на ключ (IP клиента)
type RateLimiter struct {
	limiters sync.Map // key -> *visitor
	rps      rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

// NewRateLimiter создает limiter на rps запросов в секунду с заданным burst
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = defaultBurst
	}
	return &RateLimiter{rps: rate.Limit(rps), burst: burst}
}

// Allow проверяет, разрешен ли запрос для данного ключа
func (rl *RateLimiter) Allow(key string) bool {
	v := rl.visitor(key)

	v.mu.Lock()
	v.lastSeen = time.Now()
	v.mu.Unlock()

	return v.limiter.Allow()
}

func (rl *RateLimiter) visitor(key string) *visitor {
	if v, ok := rl.limiters.Load(key); ok {
		return v.(*visitor)
	}
	actual, _ := rl.limiters.LoadOrStore(key, &visitor{
		limiter:  rate.NewLimiter(rl.rps, rl.burst),
		lastSeen: time.Now(),
	})
	return actual.(*visitor)
}

// Cleanup удаляет ключи, не встречавшиеся дольше idle; возвращает число удаленных
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	removed := 0
	rl.limiters.Range(func(key, value any) bool {
		v := value.(*visitor)
		v.mu.Lock()
		stale := v.lastSeen.Before(cutoff)
		v.mu.Unlock()
		if stale {
			rl.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// RateLimitMiddleware отвечает 429, когда IP клиента исчерпал свой bucket
func RateLimitMiddleware(limiter *RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)

			if !limiter.Allow(key) {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("ip", key),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", "1")
				handlers.SendError(logger, w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP извлекает IP адрес клиента из запроса
// Проверяет заголовки X-Forwarded-For и X-Real-IP для прокси
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// порт отбрасываем: иначе каждое соединение получит свой bucket
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

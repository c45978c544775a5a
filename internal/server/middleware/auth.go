package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/offlinedesk/internal/server/handlers"
)

// AuthMiddleware проверяет bearer JWT и кладет claims в контекст запроса
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "missing Authorization header", slog.String("path", r.URL.Path))
				handlers.SendError(logger, w, "missing token", http.StatusUnauthorized)
				return
			}

			// формат: "Bearer <token>"
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				logger.WarnContext(r.Context(), "invalid Authorization header format")
				handlers.SendError(logger, w, "invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, strings.TrimSpace(token))
			if err != nil {
				logger.WarnContext(r.Context(), "invalid access token", slog.Any("error", err))
				handlers.SendError(logger, w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			logger.DebugContext(r.Context(), "user authenticated",
				slog.String("user_id", claims.UserID),
				slog.String("role", claims.Role))

			next.ServeHTTP(w, r.WithContext(handlers.WithClaims(r.Context(), claims)))
		})
	}
}

package handlers

import "context"

type contextKey string

// claimsKey ключ для хранения проверенных claims в контексте
const claimsKey contextKey = "claims"

// WithClaims returns ctx carrying the authenticated caller
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext извлекает claims, положенные auth middleware
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

// UserIDFromContext возвращает id вызывающего или "" без аутентификации
func UserIDFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.UserID
	}
	return ""
}

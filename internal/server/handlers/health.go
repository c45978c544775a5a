package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/offlinedesk/pkg/api"
)

// Pinger reports database availability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger *slog.Logger
	db     Pinger
	now    func() time.Time
}

// NewHealthHandler создает новый handler для health check; db может быть nil
func NewHealthHandler(logger *slog.Logger, db Pinger) *HealthHandler {
	return &HealthHandler{
		logger: logger,
		db:     db,
		now:    time.Now,
	}
}

// Health обрабатывает GET /api/health. Клиентский probe считает сервер
// доступным только по 2xx, поэтому недоступная БД отдает 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.ErrorContext(r.Context(), "health check: database unavailable", slog.Any("error", err))
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	SendJSON(h.logger, w, api.HealthResponse{
		Status: status,
		Time:   h.now().UnixMilli(),
	}, code)
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iudanet/offlinedesk/internal/models"
	"github.com/iudanet/offlinedesk/internal/server/storage"
	"github.com/iudanet/offlinedesk/internal/validation"
	"github.com/iudanet/offlinedesk/pkg/api"
)

// NestedResources are resource paths with two segments; they get their own
// routes so that "chat/messages" is not read as resource "chat", id "messages".
var NestedResources = []string{"chat/messages"}

// reserved первые сегменты, занятые служебными маршрутами
var reserved = map[string]bool{"auth": true, "health": true}

// filterKey допустимое имя атрибута в query-фильтре
var filterKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

const (
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

// ResourceHandler serves generic JSON collections under /api/{resource}
type ResourceHandler struct {
	logger  *slog.Logger
	records storage.RecordStorage
	now     func() time.Time
	newID   func() string
}

// NewResourceHandler создает handler ресурсов
func NewResourceHandler(logger *slog.Logger, records storage.RecordStorage) *ResourceHandler {
	return &ResourceHandler{
		logger:  logger,
		records: records,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Routes registers collection and item routes on r, which is expected to be
// mounted at /api behind the auth middleware.
func (h *ResourceHandler) Routes(r chi.Router) {
	for _, nested := range NestedResources {
		resource := nested
		r.Route("/"+resource, func(r chi.Router) {
			h.mount(r, func(*http.Request) string { return resource })
		})
	}
	r.Route("/{resource}", func(r chi.Router) {
		h.mount(r, func(req *http.Request) string { return chi.URLParam(req, "resource") })
	})
}

func (h *ResourceHandler) mount(r chi.Router, resource func(*http.Request) string) {
	r.Get("/", func(w http.ResponseWriter, req *http.Request) { h.List(w, req, resource(req)) })
	r.Post("/", func(w http.ResponseWriter, req *http.Request) { h.Create(w, req, resource(req)) })
	r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) { h.Get(w, req, resource(req)) })
	r.Put("/{id}", func(w http.ResponseWriter, req *http.Request) { h.Update(w, req, resource(req), false) })
	r.Patch("/{id}", func(w http.ResponseWriter, req *http.Request) { h.Update(w, req, resource(req), true) })
	r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) { h.Delete(w, req, resource(req)) })
}

// List обрабатывает GET /api/{resource}; query-параметры фильтруют по
// равенству атрибутов. Ответ оборачивается в ключ ресурса: {"todos": [...]}.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request, resource string) {
	if !h.checkResource(w, resource) {
		return
	}

	filter := make(map[string]string)
	for key, values := range r.URL.Query() {
		if !filterKey.MatchString(key) {
			SendError(h.logger, w, "invalid filter "+key, http.StatusBadRequest)
			return
		}
		filter[key] = values[0]
	}

	records, err := h.records.ListRecords(r.Context(), resource, filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list records",
			slog.String("resource", resource), slog.Any("error", err))
		SendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	SendJSON(h.logger, w, map[string]any{api.EnvelopeKey(resource): records}, http.StatusOK)
}

// Create обрабатывает POST /api/{resource}. Id из тела сохраняется,
// иначе назначается UUID.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request, resource string) {
	ctx := r.Context()
	if !h.checkResource(w, resource) {
		return
	}

	var rec models.Record
	if err := decodeJSON(w, r, &rec); err != nil || rec == nil {
		SendError(h.logger, w, "request body must be a JSON object", http.StatusBadRequest)
		return
	}

	if rec.ID() == "" {
		rec[models.FieldID] = h.newID()
	}
	if err := validation.ValidateRecordID(rec.ID()); err != nil {
		SendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	// маркер оптимистичной записи клиента не хранится на сервере
	delete(rec, models.FieldOffline)
	if _, ok := rec[fieldCreatedAt]; !ok {
		rec[fieldCreatedAt] = h.now().UTC().Format(time.RFC3339)
	}

	owner := UserIDFromContext(ctx)
	if err := h.records.CreateRecord(ctx, resource, owner, rec); err != nil {
		if errors.Is(err, storage.ErrRecordExists) {
			SendError(h.logger, w, "record "+rec.ID()+" already exists", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create record",
			slog.String("resource", resource), slog.Any("error", err))
		SendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "record created",
		slog.String("resource", resource),
		slog.String("id", rec.ID()),
		slog.String("user_id", owner))

	SendJSON(h.logger, w, map[string]any{
		"message":           "created",
		api.DefaultEnvelope: rec,
	}, http.StatusCreated)
}

// Get обрабатывает GET /api/{resource}/{id}
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request, resource string) {
	id, ok := h.checkItem(w, r, resource)
	if !ok {
		return
	}

	rec, err := h.records.GetRecord(r.Context(), resource, id)
	if err != nil {
		h.sendStorageError(w, r, resource, id, err)
		return
	}

	SendJSON(h.logger, w, map[string]any{api.DefaultEnvelope: rec}, http.StatusOK)
}

// Update обрабатывает PUT (замена) и PATCH (слияние) /api/{resource}/{id}
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request, resource string, merge bool) {
	id, ok := h.checkItem(w, r, resource)
	if !ok {
		return
	}

	var patch models.Record
	if err := decodeJSON(w, r, &patch); err != nil || patch == nil {
		SendError(h.logger, w, "request body must be a JSON object", http.StatusBadRequest)
		return
	}
	delete(patch, models.FieldOffline)
	patch[fieldUpdatedAt] = h.now().UTC().Format(time.RFC3339)

	rec, err := h.records.UpdateRecord(r.Context(), resource, id, patch, merge)
	if err != nil {
		h.sendStorageError(w, r, resource, id, err)
		return
	}

	SendJSON(h.logger, w, map[string]any{
		"message":           "updated",
		api.DefaultEnvelope: rec,
	}, http.StatusOK)
}

// Delete обрабатывает DELETE /api/{resource}/{id}
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request, resource string) {
	id, ok := h.checkItem(w, r, resource)
	if !ok {
		return
	}

	if err := h.records.DeleteRecord(r.Context(), resource, id); err != nil {
		h.sendStorageError(w, r, resource, id, err)
		return
	}

	h.logger.InfoContext(r.Context(), "record deleted",
		slog.String("resource", resource), slog.String("id", id))

	SendJSON(h.logger, w, map[string]any{"message": "deleted", models.FieldID: id}, http.StatusOK)
}

func (h *ResourceHandler) checkResource(w http.ResponseWriter, resource string) bool {
	if reserved[resource] {
		SendError(h.logger, w, "unknown resource", http.StatusNotFound)
		return false
	}
	if err := validation.ValidateResource(resource); err != nil {
		SendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *ResourceHandler) checkItem(w http.ResponseWriter, r *http.Request, resource string) (string, bool) {
	if !h.checkResource(w, resource) {
		return "", false
	}
	id := chi.URLParam(r, "id")
	if err := validation.ValidateRecordID(id); err != nil {
		SendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func (h *ResourceHandler) sendStorageError(w http.ResponseWriter, r *http.Request, resource, id string, err error) {
	if errors.Is(err, storage.ErrRecordNotFound) {
		SendError(h.logger, w, resource+"/"+id+" not found", http.StatusNotFound)
		return
	}
	h.logger.ErrorContext(r.Context(), "record storage failure",
		slog.String("resource", resource),
		slog.String("id", id),
		slog.Any("error", err))
	SendError(h.logger, w, "internal server error", http.StatusInternalServerError)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/offlinedesk/internal/server/storage/sqlite"
)

type resourceFixture struct {
	router http.Handler
	store  *sqlite.Storage
}

func newResourceFixture(t *testing.T) *resourceFixture {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := NewResourceHandler(setupTestLogger(), store)
	h.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	ids := 0
	h.newID = func() string {
		ids++
		return fmt.Sprintf("srv-%d", ids)
	}

	r := chi.NewRouter()
	r.Route("/api", h.Routes)
	return &resourceFixture{router: r, store: store}
}

func (f *resourceFixture) do(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func TestResourceHandler_CreateAssignsID(t *testing.T) {
	f := newResourceFixture(t)

	w, out := f.do(t, http.MethodPost, "/api/todos", map[string]any{"title": "beli kopi", "_offline": true})
	require.Equal(t, http.StatusCreated, w.Code)

	data, ok := out["data"].(map[string]any)
	require.True(t, ok, "created record is wrapped in data")
	assert.Equal(t, "srv-1", data["id"])
	assert.Equal(t, "beli kopi", data["title"])
	assert.Equal(t, "2024-05-01T08:00:00Z", data["createdAt"])
	assert.NotContains(t, data, "_offline")

	stored, err := f.store.GetRecord(context.Background(), "todos", "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "beli kopi", stored["title"])
}

func TestResourceHandler_CreateKeepsClientID(t *testing.T) {
	f := newResourceFixture(t)

	w, out := f.do(t, http.MethodPost, "/api/jobdesks", map[string]any{"id": "j-7", "title": "audit"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "j-7", out["data"].(map[string]any)["id"])

	w, out = f.do(t, http.MethodPost, "/api/jobdesks", map[string]any{"id": "j-7"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "record j-7 already exists", out["message"])
}

func TestResourceHandler_ListUsesEnvelope(t *testing.T) {
	f := newResourceFixture(t)

	for _, rec := range []map[string]any{
		{"id": "l1", "status": "done"},
		{"id": "l2", "status": "open"},
	} {
		w, _ := f.do(t, http.MethodPost, "/api/daily-logs", rec)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, out := f.do(t, http.MethodGet, "/api/daily-logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs, ok := out["logs"].([]any)
	require.True(t, ok, "daily-logs are listed under logs: %v", out)
	assert.Len(t, logs, 2)

	w, out = f.do(t, http.MethodGet, "/api/daily-logs?status=open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, out["logs"], 1)
	assert.Equal(t, "l2", out["logs"].([]any)[0].(map[string]any)["id"])

	// пустая коллекция отдается массивом, не null
	w, out = f.do(t, http.MethodGet, "/api/attachments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, out["data"])
}

func TestResourceHandler_NestedResource(t *testing.T) {
	f := newResourceFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/chat/messages", map[string]any{"id": "m1", "text": "halo"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, out := f.do(t, http.MethodGet, "/api/chat/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["messages"], 1)

	w, out = f.do(t, http.MethodGet, "/api/chat/messages/m1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "halo", out["data"].(map[string]any)["text"])

	_, err := f.store.GetRecord(context.Background(), "chat/messages", "m1")
	assert.NoError(t, err)
}

func TestResourceHandler_UpdateAndDelete(t *testing.T) {
	f := newResourceFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/todos", map[string]any{"id": "t1", "title": "old", "done": false})
	require.Equal(t, http.StatusCreated, w.Code)

	w, out := f.do(t, http.MethodPatch, "/api/todos/t1", map[string]any{"done": true})
	require.Equal(t, http.StatusOK, w.Code)
	data := out["data"].(map[string]any)
	assert.Equal(t, "old", data["title"])
	assert.Equal(t, true, data["done"])
	assert.Equal(t, "2024-05-01T08:00:00Z", data["updatedAt"])

	w, out = f.do(t, http.MethodPut, "/api/todos/t1", map[string]any{"title": "new"})
	require.Equal(t, http.StatusOK, w.Code)
	data = out["data"].(map[string]any)
	assert.Equal(t, "t1", data["id"])
	assert.Equal(t, "new", data["title"])
	assert.NotContains(t, data, "done")

	w, out = f.do(t, http.MethodDelete, "/api/todos/t1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t1", out["id"])

	w, _ = f.do(t, http.MethodGet, "/api/todos/t1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = f.do(t, http.MethodDelete, "/api/todos/t1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = f.do(t, http.MethodPatch, "/api/todos/t1", map[string]any{"x": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResourceHandler_BadRequests(t *testing.T) {
	f := newResourceFixture(t)

	tests := []struct {
		body     any
		name     string
		method   string
		url      string
		wantCode int
	}{
		{name: "array body", method: http.MethodPost, url: "/api/todos", body: []int{1}, wantCode: http.StatusBadRequest},
		{name: "empty body", method: http.MethodPost, url: "/api/todos", body: nil, wantCode: http.StatusBadRequest},
		{name: "invalid resource", method: http.MethodGet, url: "/api/Todos", wantCode: http.StatusBadRequest},
		{name: "reserved resource", method: http.MethodGet, url: "/api/auth", wantCode: http.StatusNotFound},
		{name: "invalid filter", method: http.MethodGet, url: "/api/todos?a-b=1", wantCode: http.StatusBadRequest},
		{name: "patch with array", method: http.MethodPatch, url: "/api/todos/t1", body: []int{1}, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out := f.do(t, tt.method, tt.url, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, http.StatusText(tt.wantCode), out["error"])
		})
	}
}

func TestResourceHandler_CreatePreservesNumbers(t *testing.T) {
	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := NewResourceHandler(setupTestLogger(), store)

	req := httptest.NewRequest(http.MethodPost, "/api/todos", bytes.NewReader([]byte(`{"id":"t9","n":12345678901234567}`)))
	req = req.WithContext(WithClaims(req.Context(), &Claims{UserID: "u-42"}))
	w := httptest.NewRecorder()
	h.Create(w, req, "todos")
	require.Equal(t, http.StatusCreated, w.Code)

	rec, err := store.GetRecord(context.Background(), "todos", "t9")
	require.NoError(t, err)
	// большие целые не теряют точность
	assert.Equal(t, json.Number("12345678901234567"), rec["n"])
	assert.Equal(t, "t9", rec.ID())
}

package sqlite

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/offlinedesk/internal/models"
	"github.com/iudanet/offlinedesk/internal/server/storage"
)

func TestRecordStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	rec := models.Record{"id": "t1", "title": "buy milk", "done": false, "priority": 2}
	require.NoError(t, s.CreateRecord(ctx, "todos", "u1", rec))

	got, err := s.GetRecord(ctx, "todos", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID())
	assert.Equal(t, "buy milk", got["title"])
	assert.Equal(t, false, got["done"])
	// числа декодируются как json.Number
	assert.Equal(t, json.Number("2"), got["priority"])

	_, err = s.GetRecord(ctx, "jobdesks", "t1")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestRecordStorage_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	require.NoError(t, s.CreateRecord(ctx, "todos", "u1", models.Record{"id": "t1"}))
	assert.ErrorIs(t, s.CreateRecord(ctx, "todos", "u1", models.Record{"id": "t1"}), storage.ErrRecordExists)

	// тот же id в другом ресурсе допустим
	assert.NoError(t, s.CreateRecord(ctx, "jobdesks", "u1", models.Record{"id": "t1"}))
}

func TestRecordStorage_CreateWithoutID(t *testing.T) {
	s := setupTestStorage(t)
	assert.Error(t, s.CreateRecord(context.Background(), "todos", "u1", models.Record{"title": "x"}))
}

func TestRecordStorage_List(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	for _, rec := range []models.Record{
		{"id": "a", "status": "open", "done": true},
		{"id": "b", "status": "closed", "done": false},
		{"id": "c", "status": "open", "done": false},
	} {
		require.NoError(t, s.CreateRecord(ctx, "todos", "u1", rec))
	}
	require.NoError(t, s.CreateRecord(ctx, "chat/messages", "u1", models.Record{"id": "m1"}))

	tests := []struct {
		filter map[string]string
		name   string
		want   []string
	}{
		{name: "all in insertion order", want: []string{"a", "b", "c"}},
		{name: "string filter", filter: map[string]string{"status": "open"}, want: []string{"a", "c"}},
		{name: "bool filter", filter: map[string]string{"done": "1"}, want: []string{"a"}},
		{name: "combined", filter: map[string]string{"status": "open", "done": "0"}, want: []string{"c"}},
		{name: "no match", filter: map[string]string{"status": "archived"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := s.ListRecords(ctx, "todos", tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(records))
			for _, r := range records {
				ids = append(ids, r.ID())
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	empty, err := s.ListRecords(ctx, "users", nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestRecordStorage_Update(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	require.NoError(t, s.CreateRecord(ctx, "todos", "u1", models.Record{"id": "t1", "title": "old", "done": false}))

	t.Run("merge keeps untouched fields", func(t *testing.T) {
		got, err := s.UpdateRecord(ctx, "todos", "t1", models.Record{"done": true}, true)
		require.NoError(t, err)
		assert.Equal(t, "old", got["title"])
		assert.Equal(t, true, got["done"])
	})

	t.Run("replace drops missing fields and keeps id", func(t *testing.T) {
		got, err := s.UpdateRecord(ctx, "todos", "t1", models.Record{"id": "other", "title": "new"}, false)
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID())
		assert.NotContains(t, got, "done")

		stored, err := s.GetRecord(ctx, "todos", "t1")
		require.NoError(t, err)
		assert.Equal(t, "new", stored["title"])
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := s.UpdateRecord(ctx, "todos", "nope", models.Record{"x": 1}, true)
		assert.ErrorIs(t, err, storage.ErrRecordNotFound)
	})
}

func TestRecordStorage_Delete(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	require.NoError(t, s.CreateRecord(ctx, "todos", "u1", models.Record{"id": "t1"}))
	require.NoError(t, s.DeleteRecord(ctx, "todos", "t1"))

	_, err := s.GetRecord(ctx, "todos", "t1")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
	assert.ErrorIs(t, s.DeleteRecord(ctx, "todos", "t1"), storage.ErrRecordNotFound)
}

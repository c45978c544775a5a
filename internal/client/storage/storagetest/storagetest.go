// Package storagetest holds behaviour checks shared by every storage.Storage
// backend. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/offlinedesk/internal/client/storage"
	"github.com/iudanet/offlinedesk/internal/models"
)

// Factory returns a fresh, empty store opened with storage.DefaultSchema.
type Factory func(t *testing.T) storage.Storage

// Run executes the shared suite against the backend.
func Run(t *testing.T, newStore Factory) {
	t.Run("PutGet", func(t *testing.T) { testPutGet(t, newStore(t)) })
	t.Run("PutReplaces", func(t *testing.T) { testPutReplaces(t, newStore(t)) })
	t.Run("PutMissingID", func(t *testing.T) { testPutMissingID(t, newStore(t)) })
	t.Run("UndeclaredTable", func(t *testing.T) { testUndeclaredTable(t, newStore(t)) })
	t.Run("Query", func(t *testing.T) { testQuery(t, newStore(t)) })
	t.Run("QueryMultiEntry", func(t *testing.T) { testQueryMultiEntry(t, newStore(t)) })
	t.Run("DeleteClear", func(t *testing.T) { testDeleteClear(t, newStore(t)) })
	t.Run("ClearAll", func(t *testing.T) { testClearAll(t, newStore(t)) })
	t.Run("Queue", func(t *testing.T) { testQueue(t, newStore(t)) })
	t.Run("QueueDeleteMatching", func(t *testing.T) { testQueueDeleteMatching(t, newStore(t)) })
	t.Run("Auth", func(t *testing.T) { testAuth(t, newStore(t)) })
	t.Run("LastSync", func(t *testing.T) { testLastSync(t, newStore(t)) })
}

func testPutGet(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	rec, err := s.Get(ctx, storage.TableTodos, "missing")
	require.NoError(t, err)
	assert.Nil(t, rec, "missing record is not an error")

	require.NoError(t, s.Put(ctx, storage.TableTodos,
		models.Record{"id": "b", "title": "second", "done": false},
		models.Record{"id": "a", "title": "first", "priority": 2},
	))

	got, err := s.Get(ctx, storage.TableTodos, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first", got["title"])
	// числа возвращаются так же, как после JSON
	assert.Equal(t, float64(2), got["priority"])

	all, err := s.GetAll(ctx, storage.TableTodos)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID())
	assert.Equal(t, "b", all[1].ID())

	empty, err := s.GetAll(ctx, storage.TableUsers)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testPutReplaces(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, storage.TableTodos, models.Record{"id": "t1", "status": "open"}))
	require.NoError(t, s.Put(ctx, storage.TableTodos, models.Record{"id": "t1", "status": "done"}))

	all, err := s.GetAll(ctx, storage.TableTodos)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "done", all[0]["status"])

	// старое значение индекса больше не находит запись
	open, err := s.Query(ctx, storage.TableTodos, "status", "open")
	require.NoError(t, err)
	assert.Empty(t, open)

	done, err := s.Query(ctx, storage.TableTodos, "status", "done")
	require.NoError(t, err)
	assert.Len(t, done, 1)
}

func testPutMissingID(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	err := s.Put(ctx, storage.TableTodos,
		models.Record{"id": "ok"},
		models.Record{"title": "no id"},
	)
	assert.ErrorIs(t, err, storage.ErrMissingID)

	// пакет записывается целиком или не записывается вовсе
	all, err := s.GetAll(ctx, storage.TableTodos)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testUndeclaredTable(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	err := s.Put(ctx, "nope", models.Record{"id": "1"})
	assert.ErrorIs(t, err, storage.ErrTableNotDeclared)

	_, err = s.GetAll(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrTableNotDeclared)

	_, err = s.Query(ctx, storage.TableTodos, "nope", "x")
	assert.ErrorIs(t, err, storage.ErrIndexNotDeclared)
}

func testQuery(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, storage.TableTodos,
		models.Record{"id": "1", "status": "open", "userId": 7},
		models.Record{"id": "2", "status": "done", "userId": "7"},
		models.Record{"id": "3", "status": "open"},
	))

	open, err := s.Query(ctx, storage.TableTodos, "status", "open")
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "1", open[0].ID())
	assert.Equal(t, "3", open[1].ID())

	// число и строка не совпадают
	byNum, err := s.Query(ctx, storage.TableTodos, "userId", 7)
	require.NoError(t, err)
	require.Len(t, byNum, 1)
	assert.Equal(t, "1", byNum[0].ID())

	none, err := s.Query(ctx, storage.TableTodos, "status", "archived")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testQueryMultiEntry(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, storage.TableJobdesks,
		models.Record{"id": "j1", "assignedTo": []any{"u1", "u2"}},
		models.Record{"id": "j2", "assignedTo": []any{"u2"}},
		models.Record{"id": "j3", "assignedTo": []any{}},
	))

	u2, err := s.Query(ctx, storage.TableJobdesks, "assignedTo", "u2")
	require.NoError(t, err)
	assert.Len(t, u2, 2)

	u1, err := s.Query(ctx, storage.TableJobdesks, "assignedTo", "u1")
	require.NoError(t, err)
	require.Len(t, u1, 1)
	assert.Equal(t, "j1", u1[0].ID())
}

func testDeleteClear(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, storage.TableTodos,
		models.Record{"id": "1", "status": "open"},
		models.Record{"id": "2", "status": "open"},
	))

	require.NoError(t, s.Delete(ctx, storage.TableTodos, "1"))
	require.NoError(t, s.Delete(ctx, storage.TableTodos, "1"), "deleting a missing record is not an error")

	open, err := s.Query(ctx, storage.TableTodos, "status", "open")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "2", open[0].ID())

	require.NoError(t, s.Clear(ctx, storage.TableTodos))
	all, err := s.GetAll(ctx, storage.TableTodos)
	require.NoError(t, err)
	assert.Empty(t, all)

	open, err = s.Query(ctx, storage.TableTodos, "status", "open")
	require.NoError(t, err)
	assert.Empty(t, open)
}

func testClearAll(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, storage.TableTodos, models.Record{"id": "1"}))
	require.NoError(t, s.Put(ctx, storage.TableUsers, models.Record{"id": "u1", "role": "admin"}))
	_, err := s.AddQueueItem(ctx, &models.QueueItem{Method: "POST", URL: "/api/todos"})
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(ctx))

	for _, table := range []string{storage.TableTodos, storage.TableUsers} {
		all, err := s.GetAll(ctx, table)
		require.NoError(t, err)
		assert.Empty(t, all, table)
	}
	items, err := s.ListQueueItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	admins, err := s.Query(ctx, storage.TableUsers, "role", "admin")
	require.NoError(t, err)
	assert.Empty(t, admins)
}

func testQueue(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	first := &models.QueueItem{
		Type:       "POST_todos",
		Method:     "POST",
		URL:        "/api/todos",
		Body:       json.RawMessage(`{"title":"x"}`),
		Headers:    map[string]string{"Content-Type": "application/json"},
		Timestamp:  time.Now().UnixMilli(),
		MaxRetries: 3,
	}
	id1, err := s.AddQueueItem(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, id1, first.ID)

	id2, err := s.AddQueueItem(ctx, &models.QueueItem{Method: "DELETE", URL: "/api/todos/1", MaxRetries: 3})
	require.NoError(t, err)
	assert.Greater(t, id2, id1, "ids are assigned in increasing order")

	got, err := s.GetQueueItem(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "POST_todos", got.Type)
	assert.JSONEq(t, `{"title":"x"}`, string(got.Body))
	assert.Equal(t, "application/json", got.Headers["Content-Type"])

	err = s.UpdateQueueItem(ctx, id1, func(item *models.QueueItem) error {
		item.Retries++
		item.LastError = "boom"
		return nil
	})
	require.NoError(t, err)

	items, err := s.ListQueueItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, id1, items[0].ID)
	assert.Equal(t, 1, items[0].Retries)
	assert.Equal(t, "boom", items[0].LastError)
	assert.Equal(t, id2, items[1].ID)

	err = s.UpdateQueueItem(ctx, 9999, func(*models.QueueItem) error { return nil })
	assert.ErrorIs(t, err, storage.ErrQueueItemNotFound)

	_, err = s.GetQueueItem(ctx, 9999)
	assert.ErrorIs(t, err, storage.ErrQueueItemNotFound)

	require.NoError(t, s.DeleteQueueItem(ctx, id1))
	items, err = s.ListQueueItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id2, items[0].ID)
}

func testQueueDeleteMatching(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := s.AddQueueItem(ctx, &models.QueueItem{Method: "POST", URL: "/api/todos", Synced: i%2 == 0})
		require.NoError(t, err)
	}

	n, err := s.DeleteQueueItems(ctx, func(item *models.QueueItem) bool { return item.Synced })
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := s.ListQueueItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	n, err = s.DeleteQueueItems(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func testAuth(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	ok, err := s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	auth := &storage.AuthData{Username: "alice", UserID: "1", AccessToken: "tok"}
	require.NoError(t, s.SaveAuth(ctx, auth))

	got, err := s.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.AccessToken)

	ok, err = s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "token without expiry stays valid")

	require.NoError(t, s.DeleteAuth(ctx))
	_, err = s.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func testLastSync(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	ts, err := s.GetLastSyncTimestamp(ctx)
	require.NoError(t, err)
	assert.Zero(t, ts)

	require.NoError(t, s.SaveLastSyncTimestamp(ctx, 42))
	ts, err = s.GetLastSyncTimestamp(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ts)
}

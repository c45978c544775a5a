package boltdb

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/offlinedesk/internal/client/storage"
	"github.com/iudanet/offlinedesk/internal/client/storage/storagetest"
	"github.com/iudanet/offlinedesk/internal/models"
)

func TestStorage_Conformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return newTestStorage(t)
	})
}

func TestStorage_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t, WithQuota(256<<10))

	big := strings.Repeat("x", 512<<10)
	err := store.Put(ctx, storage.TableAttachments, models.Record{"id": "a1", "data": big})
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)

	// запись не сохранилась
	rec, err := store.Get(ctx, storage.TableAttachments, "a1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = store.AddQueueItem(ctx, &models.QueueItem{Method: "POST", URL: "/api/attachments", Body: []byte(`"` + big + `"`)})
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)

	// мелкие записи по-прежнему проходят
	require.NoError(t, store.Put(ctx, storage.TableAttachments, models.Record{"id": "a2", "data": "small"}))
}

func TestStorage_QuotaAllowsInPlaceUpdate(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t, WithQuota(400<<10))

	payload := strings.Repeat("x", 200<<10)
	require.NoError(t, store.Put(ctx, storage.TableAttachments, models.Record{"id": "a1", "data": payload}))

	// запись того же размера не увеличивает базу
	updated := strings.Repeat("y", 200<<10)
	require.NoError(t, store.Put(ctx, storage.TableAttachments, models.Record{"id": "a1", "data": updated}))

	rec, err := store.Get(ctx, storage.TableAttachments, "a1")
	require.NoError(t, err)
	assert.Equal(t, updated, rec["data"])

	// новая строка того же размера в квоту уже не помещается
	err = store.Put(ctx, storage.TableAttachments, models.Record{"id": "a2", "data": payload})
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
}

func TestStorage_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := t.TempDir() + "/offline.db"

	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, storage.TableJobdesks, models.Record{"id": "j1", "assignedTo": []any{"u1"}}))
	require.NoError(t, store.Close())

	store, err = New(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Query(ctx, storage.TableJobdesks, "assignedTo", "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []any{"u1"}, got[0]["assignedTo"])
}

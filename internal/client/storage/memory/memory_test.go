package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/offlinedesk/internal/client/storage"
	"github.com/iudanet/offlinedesk/internal/client/storage/storagetest"
	"github.com/iudanet/offlinedesk/internal/models"
)

func TestStorage_Conformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		s, err := New(storage.DefaultSchema)
		require.NoError(t, err)
		return s
	})
}

func TestNew_InvalidSchema(t *testing.T) {
	_, err := New(storage.Schema{})
	assert.Error(t, err)
}

func TestStorage_Closed(t *testing.T) {
	ctx := context.Background()
	s, err := New(storage.DefaultSchema)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Put(ctx, storage.TableTodos, models.Record{"id": "1"})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = s.AddQueueItem(ctx, &models.QueueItem{})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = s.EstimateUsage(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestStorage_EstimateUsageUnavailable(t *testing.T) {
	s, err := New(storage.DefaultSchema)
	require.NoError(t, err)

	usage, err := s.EstimateUsage(context.Background())
	require.NoError(t, err)
	assert.Nil(t, usage)
}

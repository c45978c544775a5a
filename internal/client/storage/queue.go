package storage

import (
	"context"

	"github.com/iudanet/offlinedesk/internal/models"
)

//go:generate moq -out queuestorage_mock.go . QueueStorage

// QueueStorage is the persistence primitive behind the mutation queue.
// It is append-only from the caller's perspective: ids are assigned by the
// backend and increase monotonically.
type QueueStorage interface {
	// AddQueueItem persists a new item and returns its assigned id
	AddQueueItem(ctx context.Context, item *models.QueueItem) (uint64, error)

	// GetQueueItem returns an item by id
	// Returns ErrQueueItemNotFound if it doesn't exist
	GetQueueItem(ctx context.Context, id uint64) (*models.QueueItem, error)

	// ListQueueItems returns every item in storage order
	ListQueueItems(ctx context.Context) ([]*models.QueueItem, error)

	// UpdateQueueItem applies fn to the stored item inside a single transaction
	// Returns ErrQueueItemNotFound if it doesn't exist
	UpdateQueueItem(ctx context.Context, id uint64, fn func(item *models.QueueItem) error) error

	// DeleteQueueItem removes an item, deleting a missing id is a no-op
	DeleteQueueItem(ctx context.Context, id uint64) error

	// DeleteQueueItems removes every item for which match returns true
	// A nil match removes everything
	DeleteQueueItems(ctx context.Context, match func(item *models.QueueItem) bool) (int, error)
}

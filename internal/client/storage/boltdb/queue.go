package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/offlinedesk/internal/client/storage"
	"github.com/iudanet/offlinedesk/internal/models"
)

// AddQueueItem appends an item and assigns it the next sequence id.
// Big-endian keys keep the bucket in enqueue order.
func (s *Storage) AddQueueItem(ctx context.Context, item *models.QueueItem) (uint64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var id uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate queue id: %w", err)
		}
		item.ID = seq

		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal queue item: %w", err)
		}

		if s.quota > 0 && tx.Size()+int64(len(data)) > s.quota {
			return fmt.Errorf("%w: enqueue %s", storage.ErrQuotaExceeded, item.Type)
		}

		if err := bucket.Put(itob(seq), data); err != nil {
			return fmt.Errorf("failed to save queue item: %w", err)
		}

		id = seq
		return nil
	})
	if err != nil {
		item.ID = 0
		return 0, err
	}

	return id, nil
}

// GetQueueItem returns the item or ErrQueueItemNotFound
func (s *Storage) GetQueueItem(ctx context.Context, id uint64) (*models.QueueItem, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var item *models.QueueItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		data := bucket.Get(itob(id))
		if data == nil {
			return fmt.Errorf("%w: %d", storage.ErrQueueItemNotFound, id)
		}

		item = &models.QueueItem{}
		if err := json.Unmarshal(data, item); err != nil {
			return fmt.Errorf("failed to unmarshal queue item %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// ListQueueItems returns all items in ascending id order
func (s *Storage) ListQueueItems(ctx context.Context) ([]*models.QueueItem, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	items := make([]*models.QueueItem, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		return bucket.ForEach(func(k, v []byte) error {
			item := &models.QueueItem{}
			if err := json.Unmarshal(v, item); err != nil {
				return fmt.Errorf("failed to unmarshal queue item %d: %w", btoi(k), err)
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// UpdateQueueItem loads the item, applies fn and writes the result back
// in a single transaction. An error from fn aborts the update.
func (s *Storage) UpdateQueueItem(ctx context.Context, id uint64, fn func(item *models.QueueItem) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		key := itob(id)
		data := bucket.Get(key)
		if data == nil {
			return fmt.Errorf("%w: %d", storage.ErrQueueItemNotFound, id)
		}

		item := &models.QueueItem{}
		if err := json.Unmarshal(data, item); err != nil {
			return fmt.Errorf("failed to unmarshal queue item %d: %w", id, err)
		}

		if err := fn(item); err != nil {
			return err
		}
		// id менять нельзя
		item.ID = id

		updated, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal queue item %d: %w", id, err)
		}
		if err := bucket.Put(key, updated); err != nil {
			return fmt.Errorf("failed to save queue item %d: %w", id, err)
		}
		return nil
	})
}

// DeleteQueueItem removes a single item; missing items are not an error
func (s *Storage) DeleteQueueItem(ctx context.Context, id uint64) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}
		if err := bucket.Delete(itob(id)); err != nil {
			return fmt.Errorf("failed to delete queue item %d: %w", id, err)
		}
		return nil
	})
}

// DeleteQueueItems removes every item for which match returns true.
// A nil match removes all items.
func (s *Storage) DeleteQueueItems(ctx context.Context, match func(item *models.QueueItem) bool) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var removed int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return fmt.Errorf("queue bucket not found")
		}

		// Собираем ключи заранее: удалять во время ForEach нельзя
		var keys [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			if match != nil {
				item := &models.QueueItem{}
				if err := json.Unmarshal(v, item); err != nil {
					return fmt.Errorf("failed to unmarshal queue item %d: %w", btoi(k), err)
				}
				if !match(item) {
					return nil
				}
			}
			keys = append(keys, append([]byte(nil), k...))
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range keys {
			if err := bucket.Delete(k); err != nil {
				return fmt.Errorf("failed to delete queue item %d: %w", btoi(k), err)
			}
		}
		removed = len(keys)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}

//go:build !unix

package boltdb

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/iudanet/offlinedesk/internal/client/storage"
)

// EstimateUsage reports the database size; without a configured quota
// the estimate is unavailable on this platform and nil is returned.
func (s *Storage) EstimateUsage(ctx context.Context) (*storage.Usage, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}
	if s.quota <= 0 {
		return nil, nil
	}

	var size int64
	if err := s.db.View(func(tx *bbolt.Tx) error {
		size = tx.Size()
		return nil
	}); err != nil {
		return nil, err
	}

	return storage.NewUsage(size, s.quota), nil
}

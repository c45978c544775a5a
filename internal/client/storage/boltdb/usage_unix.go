//go:build unix

package boltdb

import (
	"context"
	"fmt"
	"path/filepath"

	"go.etcd.io/bbolt"
	"golang.org/x/sys/unix"

	"github.com/iudanet/offlinedesk/internal/client/storage"
)

// EstimateUsage reports the database size against the configured quota.
// Without a quota the free space of the underlying filesystem is used.
func (s *Storage) EstimateUsage(ctx context.Context) (*storage.Usage, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var size int64
	if err := s.db.View(func(tx *bbolt.Tx) error {
		size = tx.Size()
		return nil
	}); err != nil {
		return nil, err
	}

	if s.quota > 0 {
		return storage.NewUsage(size, s.quota), nil
	}

	var st unix.Statfs_t
	if err := unix.Statfs(filepath.Dir(s.path), &st); err != nil {
		return nil, fmt.Errorf("failed to stat filesystem: %w", err)
	}
	free := int64(st.Bavail) * int64(st.Bsize) //nolint:unconvert // типы полей различаются по платформам

	return storage.NewUsage(size, size+free), nil
}

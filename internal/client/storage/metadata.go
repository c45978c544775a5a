package storage

import "context"

//go:generate moq -out metadata_mock.go . MetadataStorage

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// SaveLastSyncTimestamp saves the time (unix ms) of the last completed queue drain
	SaveLastSyncTimestamp(ctx context.Context, timestamp int64) error

	// GetLastSyncTimestamp retrieves the time of the last completed queue drain
	// Returns 0 if no drain has been performed yet
	GetLastSyncTimestamp(ctx context.Context) (int64, error)
}

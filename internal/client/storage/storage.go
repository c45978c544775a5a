// Package storage defines the client-side persistence contracts of the
// offline-first core: the per-table record cache, the mutation queue log,
// client metadata and the bearer credential.
package storage

// Storage is everything a single client backend provides.
type Storage interface {
	RecordStorage
	QueueStorage
	MetadataStorage
	AuthStorage

	// Close releases the backend
	Close() error
}

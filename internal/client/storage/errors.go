package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no authentication data exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")

	// ErrTableNotDeclared indicates that the table is absent from the schema
	ErrTableNotDeclared = errors.New("table not declared in schema")

	// ErrIndexNotDeclared indicates that the index is absent from the table schema
	ErrIndexNotDeclared = errors.New("index not declared in schema")

	// ErrMissingID indicates a record without a primary key
	ErrMissingID = errors.New("record has no id")

	// ErrQuotaExceeded indicates that the write would exceed the storage quota
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrSchemaDowngrade indicates that the persisted schema is newer than the binary
	ErrSchemaDowngrade = errors.New("stored schema version is newer than supported")

	// ErrQueueItemNotFound indicates that the queue item does not exist
	ErrQueueItemNotFound = errors.New("queue item not found")
)

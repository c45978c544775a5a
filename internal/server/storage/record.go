package storage

import (
	"context"

	"github.com/iudanet/offlinedesk/internal/models"
)

// RecordStorage persists the opaque JSON records served under /api/{resource}.
// Records are addressed by (resource, id); the payload always carries its own
// "id" attribute.
type RecordStorage interface {
	// CreateRecord stores a new record owned by ownerID.
	// Returns ErrRecordExists if the id is already used within the resource
	CreateRecord(ctx context.Context, resource, ownerID string, rec models.Record) error

	// GetRecord returns ErrRecordNotFound if the record doesn't exist
	GetRecord(ctx context.Context, resource, id string) (models.Record, error)

	// ListRecords returns records of a resource in insertion order.
	// Each filter entry keeps only records whose attribute equals the value.
	// Returns empty slice if nothing matches
	ListRecords(ctx context.Context, resource string, filter map[string]string) ([]models.Record, error)

	// UpdateRecord replaces the payload (merge=false) or applies patch on top
	// of the stored payload (merge=true) and returns the stored result.
	// Returns ErrRecordNotFound if the record doesn't exist
	UpdateRecord(ctx context.Context, resource, id string, patch models.Record, merge bool) (models.Record, error)

	// DeleteRecord returns ErrRecordNotFound if the record doesn't exist
	DeleteRecord(ctx context.Context, resource, id string) error
}

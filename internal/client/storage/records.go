package storage

import (
	"context"

	"github.com/iudanet/offlinedesk/internal/models"
)

//go:generate moq -out recordstorage_mock.go . RecordStorage

// RecordStorage is the per-table durable cache of entity records.
//
// Every call runs in its own transaction scoped to the table. A missing record
// is never an error: Get returns nil and GetAll/Query return an empty slice.
type RecordStorage interface {
	// Put upserts one or many records by primary key
	Put(ctx context.Context, table string, records ...models.Record) error

	// Get returns the record with the given id or nil if it doesn't exist
	Get(ctx context.Context, table, id string) (models.Record, error)

	// GetAll returns every record in the table, order is unspecified
	GetAll(ctx context.Context, table string) ([]models.Record, error)

	// Query returns records whose indexed attribute equals value
	// Returns ErrIndexNotDeclared if the index is not in the schema
	Query(ctx context.Context, table, index string, value any) ([]models.Record, error)

	// Delete removes one record, deleting a missing id is a no-op
	Delete(ctx context.Context, table, id string) error

	// Clear removes every record of the table
	Clear(ctx context.Context, table string) error

	// ClearAll clears every declared table and the mutation queue (logout/reset)
	ClearAll(ctx context.Context) error

	// EstimateUsage reports consumed vs. available space
	// Returns nil when the backend cannot report it
	EstimateUsage(ctx context.Context) (*Usage, error)
}

// Usage is a best-effort storage consumption report.
type Usage struct {
	Usage           int64   `json:"usage"`
	Quota           int64   `json:"quota"`
	UsagePercentage float64 `json:"usagePercentage"`
}

// NewUsage builds a report with the percentage rounded to two decimals.
func NewUsage(usage, quota int64) *Usage {
	u := &Usage{Usage: usage, Quota: quota}
	if quota > 0 {
		pct := float64(usage) / float64(quota) * 100
		u.UsagePercentage = float64(int64(pct*100+0.5)) / 100
	}
	return u
}

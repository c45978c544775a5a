package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchema_Valid(t *testing.T) {
	require.NoError(t, DefaultSchema.Validate())

	jobdesks, ok := DefaultSchema.Table(TableJobdesks)
	require.True(t, ok)
	idx, ok := jobdesks.Index("assignedTo")
	require.True(t, ok)
	assert.True(t, idx.MultiEntry)

	_, ok = DefaultSchema.Table("offline_queue")
	assert.False(t, ok, "queue is not a record table")
}

func TestSchema_Validate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr bool
	}{
		{name: "zero version", schema: Schema{Version: 0}, wantErr: true},
		{name: "empty table name", schema: Schema{Version: 1, Tables: []TableSchema{{}}}, wantErr: true},
		{
			name:    "duplicate table",
			schema:  Schema{Version: 1, Tables: []TableSchema{{Name: "a"}, {Name: "a"}}},
			wantErr: true,
		},
		{
			name: "duplicate index",
			schema: Schema{Version: 1, Tables: []TableSchema{{Name: "a", Indexes: []IndexSchema{
				{Name: "x", Attribute: "x"}, {Name: "x", Attribute: "y"},
			}}}},
			wantErr: true,
		},
		{name: "ok", schema: Schema{Version: 3, Tables: []TableSchema{{Name: "a"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewUsage(t *testing.T) {
	u := NewUsage(1, 3)
	assert.Equal(t, 33.33, u.UsagePercentage)

	u = NewUsage(10, 0)
	assert.Equal(t, 0.0, u.UsagePercentage)
}

package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/offlinedesk/internal/models"
)

func TestIndexKey(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   string
		wantOK bool
	}{
		{name: "string", value: "open", want: "s:open", wantOK: true},
		{name: "int and float match", value: 7, want: "n:7", wantOK: true},
		{name: "float", value: 7.0, want: "n:7", wantOK: true},
		{name: "json number", value: json.Number("7"), want: "n:7", wantOK: true},
		{name: "bool", value: true, want: "b:true", wantOK: true},
		{name: "nil", value: nil, wantOK: false},
		{name: "object", value: map[string]any{"a": 1}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IndexKey(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	// строка "1" и число 1 не должны совпадать
	s, _ := IndexKey("1")
	n, _ := IndexKey(1)
	assert.NotEqual(t, s, n)
}

func TestIndexKeys(t *testing.T) {
	multi := IndexSchema{Name: "assignedTo", Attribute: "assignedTo", MultiEntry: true}
	single := IndexSchema{Name: "assignedTo", Attribute: "assignedTo"}

	rec := models.Record{"id": "j1", "assignedTo": []any{"u1", "u2", "u1"}}

	assert.ElementsMatch(t, []string{"s:u1", "s:u2"}, IndexKeys(rec, multi))
	assert.Empty(t, IndexKeys(rec, single), "arrays are not indexed without multiEntry")
	assert.Empty(t, IndexKeys(models.Record{"id": "j2"}, multi), "missing attribute")
	assert.Equal(t, []string{"s:open"}, IndexKeys(models.Record{"status": "open"}, IndexSchema{Name: "status", Attribute: "status"}))
	assert.ElementsMatch(t, []string{"s:a", "s:b"}, IndexKeys(models.Record{"assignedTo": []string{"a", "b"}}, multi))
}

package models

import (
	"encoding/json"
	"fmt"
)

const (
	// FieldID имя атрибута первичного ключа записи
	FieldID = "id"
	// FieldOffline маркер записи, созданной без сети с временным id
	FieldOffline = "_offline"
)

// Record is a single cached entity row. The payload is opaque to the sync
// core; only the "id" and "_offline" attributes carry meaning.
type Record map[string]any

// ID returns the primary key of the record or "" when absent.
func (r Record) ID() string {
	switch v := r[FieldID].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// IsOffline reports whether the record is an optimistic local insert.
func (r Record) IsOffline() bool {
	v, ok := r[FieldOffline].(bool)
	return ok && v
}

// Clone возвращает поверхностную копию записи
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a copy of r with every attribute of patch applied on top.
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	if out == nil {
		out = make(Record, len(patch))
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// DecodeRecord parses a JSON object into a Record.
func DecodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}

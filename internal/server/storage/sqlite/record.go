package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iudanet/offlinedesk/internal/models"
	"github.com/iudanet/offlinedesk/internal/server/storage"
)

// CreateRecord stores a new record owned by ownerID
func (s *Storage) CreateRecord(ctx context.Context, resource, ownerID string, rec models.Record) error {
	id := rec.ID()
	if id == "" {
		return fmt.Errorf("record without id")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO records (resource, id, owner_id, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, resource, id, ownerID, string(payload), now, now); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrRecordExists
		}
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// GetRecord retrieves a single record
func (s *Storage) GetRecord(ctx context.Context, resource, id string) (models.Record, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM records WHERE resource = ? AND id = ?`,
		resource, id,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return decodePayload(payload)
}

// ListRecords returns records of a resource, optionally filtered by
// attribute equality. Values are compared as text: {"done": "1"} matches true.
func (s *Storage) ListRecords(ctx context.Context, resource string, filter map[string]string) ([]models.Record, error) {
	var b strings.Builder
	b.WriteString(`SELECT payload FROM records WHERE resource = ?`)
	args := []any{resource}

	// порядок ключей фиксирован, чтобы запрос был детерминированным
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(` AND CAST(json_extract(payload, ?) AS TEXT) = ?`)
		args = append(args, jsonPath(k), filter[k])
	}
	b.WriteString(` ORDER BY seq`)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec, err := decodePayload(payload)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}

// UpdateRecord replaces or merges the stored payload. The stored id always
// wins over an id carried in patch.
func (s *Storage) UpdateRecord(ctx context.Context, resource, id string, patch models.Record, merge bool) (models.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var payload string
	err = tx.QueryRowContext(ctx,
		`SELECT payload FROM records WHERE resource = ? AND id = ?`,
		resource, id,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var updated models.Record
	if merge {
		current, err := decodePayload(payload)
		if err != nil {
			return nil, err
		}
		updated = current.Merge(patch)
	} else {
		updated = patch.Clone()
		if updated == nil {
			updated = models.Record{}
		}
	}
	updated[models.FieldID] = id

	encoded, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE records SET payload = ?, updated_at = ? WHERE resource = ? AND id = ?`,
		string(encoded), time.Now().UTC(), resource, id,
	); err != nil {
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return updated, nil
}

// DeleteRecord deletes a record
func (s *Storage) DeleteRecord(ctx context.Context, resource, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE resource = ? AND id = ?`,
		resource, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrRecordNotFound
	}

	return nil
}

// jsonPath строит путь json_extract; ключ берется в кавычки
func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, ``) + `"`
}

func decodePayload(payload string) (models.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()

	var rec models.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}

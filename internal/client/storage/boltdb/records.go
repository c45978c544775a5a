package boltdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/iudanet/offlinedesk/internal/client/storage"
	"github.com/iudanet/offlinedesk/internal/models"
)

// indexSep отделяет значение индекса от id записи в ключе индекса
const indexSep = 0x00

func indexBucketName(index string) []byte {
	return []byte("idx:" + index)
}

func indexEntry(key, id string) []byte {
	entry := make([]byte, 0, len(key)+1+len(id))
	entry = append(entry, key...)
	entry = append(entry, indexSep)
	return append(entry, id...)
}

// tableBucket возвращает bucket таблицы, объявленной в схеме
func (s *Storage) tableBucket(tx *bbolt.Tx, table string) (storage.TableSchema, *bbolt.Bucket, error) {
	ts, ok := s.schema.Table(table)
	if !ok {
		return ts, nil, fmt.Errorf("%w: %s", storage.ErrTableNotDeclared, table)
	}
	tb := tx.Bucket([]byte(table))
	if tb == nil || tb.Bucket(bucketRecords) == nil {
		return ts, nil, fmt.Errorf("table %s bucket not found", table)
	}
	return ts, tb, nil
}

// Put inserts or replaces records by id. All records are written in one
// transaction: a single invalid record aborts the whole batch.
func (s *Storage) Put(ctx context.Context, table string, records ...models.Record) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		ts, tb, err := s.tableBucket(tx, table)
		if err != nil {
			return err
		}
		rb := tb.Bucket(bucketRecords)

		var added int64
		for _, rec := range records {
			id := rec.ID()
			if id == "" {
				return fmt.Errorf("%w: table %s", storage.ErrMissingID, table)
			}

			// Снимаем индексы предыдущей версии записи
			var replaced int64
			if old := rb.Get([]byte(id)); old != nil {
				replaced = int64(len(id) + len(old))
				prev, err := models.DecodeRecord(old)
				if err != nil {
					return fmt.Errorf("failed to decode stored record %s/%s: %w", table, id, err)
				}
				if err := unindexRecord(tb, ts, prev, id); err != nil {
					return err
				}
			}

			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to marshal record %s/%s: %w", table, id, err)
			}
			// замена строки растит базу только на разницу размеров
			added += int64(len(id)+len(data)) - replaced

			if s.quota > 0 && tx.Size()+added > s.quota {
				return fmt.Errorf("%w: put %s/%s", storage.ErrQuotaExceeded, table, id)
			}

			if err := rb.Put([]byte(id), data); err != nil {
				return fmt.Errorf("failed to save record %s/%s: %w", table, id, err)
			}

			// Перечитываем запись из JSON, чтобы индексы строились по тем же типам, что и при чтении
			stored, err := models.DecodeRecord(data)
			if err != nil {
				return fmt.Errorf("failed to decode record %s/%s: %w", table, id, err)
			}
			if err := indexRecord(tb, ts, stored, id); err != nil {
				return err
			}
		}

		return nil
	})
}

// Get returns the record or nil if it does not exist
func (s *Storage) Get(ctx context.Context, table, id string) (models.Record, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var rec models.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		_, tb, err := s.tableBucket(tx, table)
		if err != nil {
			return err
		}

		data := tb.Bucket(bucketRecords).Get([]byte(id))
		if data == nil {
			return nil
		}

		rec, err = models.DecodeRecord(data)
		return err
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// GetAll returns every record in the table ordered by id
func (s *Storage) GetAll(ctx context.Context, table string) ([]models.Record, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	records := make([]models.Record, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		_, tb, err := s.tableBucket(tx, table)
		if err != nil {
			return err
		}

		return tb.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			rec, err := models.DecodeRecord(v)
			if err != nil {
				return fmt.Errorf("failed to decode record %s/%s: %w", table, k, err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Query returns records whose indexed attribute equals value.
// For multiEntry indexes a record matches when any array element equals value.
func (s *Storage) Query(ctx context.Context, table, index string, value any) ([]models.Record, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	records := make([]models.Record, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		ts, tb, err := s.tableBucket(tx, table)
		if err != nil {
			return err
		}
		if _, ok := ts.Index(index); !ok {
			return fmt.Errorf("%w: %s.%s", storage.ErrIndexNotDeclared, table, index)
		}

		key, ok := storage.IndexKey(value)
		if !ok {
			// значение, которое нельзя проиндексировать, ничего не находит
			return nil
		}

		ib := tb.Bucket(indexBucketName(index))
		if ib == nil {
			return fmt.Errorf("index %s.%s bucket not found", table, index)
		}
		rb := tb.Bucket(bucketRecords)

		prefix := indexEntry(key, "")
		c := ib.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			id := k[len(prefix):]
			data := rb.Get(id)
			if data == nil {
				continue
			}
			rec, err := models.DecodeRecord(data)
			if err != nil {
				return fmt.Errorf("failed to decode record %s/%s: %w", table, id, err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Delete removes a record by id; missing records are not an error
func (s *Storage) Delete(ctx context.Context, table, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		ts, tb, err := s.tableBucket(tx, table)
		if err != nil {
			return err
		}
		rb := tb.Bucket(bucketRecords)

		data := rb.Get([]byte(id))
		if data == nil {
			return nil
		}

		prev, err := models.DecodeRecord(data)
		if err != nil {
			return fmt.Errorf("failed to decode stored record %s/%s: %w", table, id, err)
		}
		if err := unindexRecord(tb, ts, prev, id); err != nil {
			return err
		}

		if err := rb.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete record %s/%s: %w", table, id, err)
		}
		return nil
	})
}

// Clear removes every record of the table
func (s *Storage) Clear(ctx context.Context, table string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		ts, tb, err := s.tableBucket(tx, table)
		if err != nil {
			return err
		}
		return clearTable(tb, ts)
	})
}

// ClearAll empties every declared table and the offline queue
func (s *Storage) ClearAll(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, ts := range s.schema.Tables {
			_, tb, err := s.tableBucket(tx, ts.Name)
			if err != nil {
				return err
			}
			if err := clearTable(tb, ts); err != nil {
				return err
			}
		}

		if err := recreateBucket(tx.DeleteBucket, tx.CreateBucket, bucketQueue); err != nil {
			return fmt.Errorf("failed to clear offline queue: %w", err)
		}
		return nil
	})
}

func clearTable(tb *bbolt.Bucket, ts storage.TableSchema) error {
	if err := recreateBucket(tb.DeleteBucket, tb.CreateBucket, bucketRecords); err != nil {
		return fmt.Errorf("failed to clear table %s: %w", ts.Name, err)
	}
	for _, idx := range ts.Indexes {
		if err := recreateBucket(tb.DeleteBucket, tb.CreateBucket, indexBucketName(idx.Name)); err != nil {
			return fmt.Errorf("failed to clear index %s.%s: %w", ts.Name, idx.Name, err)
		}
	}
	return nil
}

// recreateBucket работает и для *bbolt.Tx, и для *bbolt.Bucket
func recreateBucket(
	del func([]byte) error,
	create func([]byte) (*bbolt.Bucket, error),
	name []byte,
) error {
	if err := del(name); err != nil && !errors.Is(err, berrors.ErrBucketNotFound) {
		return err
	}
	_, err := create(name)
	return err
}

func indexRecord(tb *bbolt.Bucket, ts storage.TableSchema, rec models.Record, id string) error {
	for _, idx := range ts.Indexes {
		ib := tb.Bucket(indexBucketName(idx.Name))
		if ib == nil {
			return fmt.Errorf("index %s.%s bucket not found", ts.Name, idx.Name)
		}
		for _, key := range storage.IndexKeys(rec, idx) {
			if err := ib.Put(indexEntry(key, id), []byte{}); err != nil {
				return fmt.Errorf("failed to update index %s.%s: %w", ts.Name, idx.Name, err)
			}
		}
	}
	return nil
}

func unindexRecord(tb *bbolt.Bucket, ts storage.TableSchema, rec models.Record, id string) error {
	for _, idx := range ts.Indexes {
		ib := tb.Bucket(indexBucketName(idx.Name))
		if ib == nil {
			continue
		}
		for _, key := range storage.IndexKeys(rec, idx) {
			if err := ib.Delete(indexEntry(key, id)); err != nil {
				return fmt.Errorf("failed to update index %s.%s: %w", ts.Name, idx.Name, err)
			}
		}
	}
	return nil
}

// backfillIndex строит новый индекс по уже сохраненным записям
func backfillIndex(records, ib *bbolt.Bucket, idx storage.IndexSchema) error {
	return records.ForEach(func(k, v []byte) error {
		rec, err := models.DecodeRecord(v)
		if err != nil {
			return fmt.Errorf("failed to decode record %s: %w", k, err)
		}
		for _, key := range storage.IndexKeys(rec, idx) {
			if err := ib.Put(indexEntry(key, string(k)), []byte{}); err != nil {
				return err
			}
		}
		return nil
	})
}

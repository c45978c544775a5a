// Package memory is an in-process storage.Storage used when the on-disk
// store cannot be opened. Nothing survives a restart.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iudanet/offlinedesk/internal/client/storage"
	"github.com/iudanet/offlinedesk/internal/models"
)

// Storage keeps JSON-encoded rows in maps guarded by a single mutex.
// Values are stored encoded so callers get the same types back as from
// the bbolt backend.
type Storage struct {
	tables   map[string]map[string][]byte
	queue    map[uint64][]byte
	auth     []byte
	schema   storage.Schema
	seq      uint64
	lastSync int64
	mu       sync.RWMutex
	closed   bool
}

var _ storage.Storage = (*Storage)(nil)

// New creates an empty store for schema.
func New(schema storage.Schema) (*Storage, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	s := &Storage{
		tables: make(map[string]map[string][]byte, len(schema.Tables)),
		queue:  make(map[uint64][]byte),
		schema: schema,
	}
	for _, t := range schema.Tables {
		s.tables[t.Name] = make(map[string][]byte)
	}
	return s, nil
}

// Close marks the store closed; subsequent calls fail with ErrStorageClosed.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Storage) table(name string) (map[string][]byte, error) {
	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	rows, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrTableNotDeclared, name)
	}
	return rows, nil
}

func (s *Storage) Put(ctx context.Context, table string, records ...models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.table(table)
	if err != nil {
		return err
	}

	// Сначала кодируем все записи, чтобы пакет применялся целиком
	encoded := make(map[string][]byte, len(records))
	order := make([]string, 0, len(records))
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			return fmt.Errorf("%w: table %s", storage.ErrMissingID, table)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record %s/%s: %w", table, id, err)
		}
		if _, seen := encoded[id]; !seen {
			order = append(order, id)
		}
		encoded[id] = data
	}

	for _, id := range order {
		rows[id] = encoded[id]
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, table, id string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.table(table)
	if err != nil {
		return nil, err
	}
	data, ok := rows[id]
	if !ok {
		return nil, nil
	}
	return models.DecodeRecord(data)
}

func (s *Storage) GetAll(ctx context.Context, table string) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.table(table)
	if err != nil {
		return nil, err
	}
	return decodeSorted(rows, nil)
}

func (s *Storage) Query(ctx context.Context, table, index string, value any) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.table(table)
	if err != nil {
		return nil, err
	}
	ts, _ := s.schema.Table(table)
	idx, ok := ts.Index(index)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", storage.ErrIndexNotDeclared, table, index)
	}

	want, ok := storage.IndexKey(value)
	if !ok {
		return make([]models.Record, 0), nil
	}

	return decodeSorted(rows, func(rec models.Record) bool {
		for _, k := range storage.IndexKeys(rec, idx) {
			if k == want {
				return true
			}
		}
		return false
	})
}

func (s *Storage) Delete(ctx context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.table(table)
	if err != nil {
		return err
	}
	delete(rows, id)
	return nil
}

func (s *Storage) Clear(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.table(table); err != nil {
		return err
	}
	s.tables[table] = make(map[string][]byte)
	return nil
}

func (s *Storage) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	for name := range s.tables {
		s.tables[name] = make(map[string][]byte)
	}
	s.queue = make(map[uint64][]byte)
	return nil
}

// EstimateUsage is unavailable for the in-memory store.
func (s *Storage) EstimateUsage(ctx context.Context) (*storage.Usage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	return nil, nil
}

func decodeSorted(rows map[string][]byte, keep func(models.Record) bool) ([]models.Record, error) {
	ids := make([]string, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := models.DecodeRecord(rows[id])
		if err != nil {
			return nil, err
		}
		if keep != nil && !keep(rec) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Storage) AddQueueItem(ctx context.Context, item *models.QueueItem) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, storage.ErrStorageClosed
	}

	s.seq++
	item.ID = s.seq
	data, err := json.Marshal(item)
	if err != nil {
		item.ID = 0
		return 0, fmt.Errorf("failed to marshal queue item: %w", err)
	}
	s.queue[item.ID] = data
	return item.ID, nil
}

func (s *Storage) GetQueueItem(ctx context.Context, id uint64) (*models.QueueItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	data, ok := s.queue[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", storage.ErrQueueItemNotFound, id)
	}
	return decodeItem(data)
}

func (s *Storage) ListQueueItems(ctx context.Context) ([]*models.QueueItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	return s.sortedItems()
}

func (s *Storage) sortedItems() ([]*models.QueueItem, error) {
	ids := make([]uint64, 0, len(s.queue))
	for id := range s.queue {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := make([]*models.QueueItem, 0, len(ids))
	for _, id := range ids {
		item, err := decodeItem(s.queue[id])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Storage) UpdateQueueItem(ctx context.Context, id uint64, fn func(item *models.QueueItem) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	data, ok := s.queue[id]
	if !ok {
		return fmt.Errorf("%w: %d", storage.ErrQueueItemNotFound, id)
	}
	item, err := decodeItem(data)
	if err != nil {
		return err
	}
	if err := fn(item); err != nil {
		return err
	}
	item.ID = id

	updated, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal queue item %d: %w", id, err)
	}
	s.queue[id] = updated
	return nil
}

func (s *Storage) DeleteQueueItem(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	delete(s.queue, id)
	return nil
}

func (s *Storage) DeleteQueueItems(ctx context.Context, match func(item *models.QueueItem) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, storage.ErrStorageClosed
	}

	items, err := s.sortedItems()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, item := range items {
		if match == nil || match(item) {
			delete(s.queue, item.ID)
			removed++
		}
	}
	return removed, nil
}

func decodeItem(data []byte) (*models.QueueItem, error) {
	item := &models.QueueItem{}
	if err := json.Unmarshal(data, item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queue item: %w", err)
	}
	return item, nil
}

func (s *Storage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	data, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("failed to marshal auth data: %w", err)
	}
	s.auth = data
	return nil
}

func (s *Storage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}
	if s.auth == nil {
		return nil, storage.ErrAuthNotFound
	}
	auth := &storage.AuthData{}
	if err := json.Unmarshal(s.auth, auth); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth data: %w", err)
	}
	return auth, nil
}

func (s *Storage) DeleteAuth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	if s.auth == nil {
		return storage.ErrAuthNotFound
	}
	s.auth = nil
	return nil
}

func (s *Storage) IsAuthenticated(ctx context.Context) (bool, error) {
	auth, err := s.GetAuth(ctx)
	if err == storage.ErrAuthNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !auth.Expired(time.Now().Unix()), nil
}

func (s *Storage) SaveLastSyncTimestamp(ctx context.Context, timestamp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	s.lastSync = timestamp
	return nil
}

func (s *Storage) GetLastSyncTimestamp(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, storage.ErrStorageClosed
	}
	return s.lastSync, nil
}

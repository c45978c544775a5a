package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/offlinedesk/internal/client/storage"
)

var (
	// BoltDB bucket names
	bucketAuth     = []byte("auth")
	bucketMetadata = []byte("meta")
	bucketQueue    = []byte("offline_queue")

	// вложенные buckets внутри bucket таблицы
	bucketRecords = []byte("records")

	keySchemaVersion = []byte("schema_version")
)

// reservedNames не могут использоваться как имена таблиц
var reservedNames = map[string]bool{
	string(bucketAuth):     true,
	string(bucketMetadata): true,
	string(bucketQueue):    true,
}

// Storage represents BoltDB storage implementation for client
type Storage struct {
	db     *bbolt.DB
	logger *slog.Logger
	schema storage.Schema
	path   string
	quota  int64
}

// Compile-time check that Storage implements storage.Storage
var _ storage.Storage = (*Storage)(nil)

// Option configures Storage
type Option func(*Storage)

// WithSchema overrides storage.DefaultSchema
func WithSchema(schema storage.Schema) Option {
	return func(s *Storage) {
		s.schema = schema
	}
}

// WithQuota caps the database size in bytes, 0 means unlimited
func WithQuota(bytes int64) Option {
	return func(s *Storage) {
		s.quota = bytes
	}
}

// WithLogger sets the logger used for schema upgrade messages
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		s.logger = logger
	}
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
//
// The schema is applied once per version bump; opening a store that is
// already at the current version only establishes the connection.
func New(ctx context.Context, dbPath string, opts ...Option) (*Storage, error) {
	s := &Storage{
		schema: storage.DefaultSchema,
		logger: slog.New(slog.DiscardHandler),
		path:   dbPath,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	for _, t := range s.schema.Tables {
		if reservedNames[t.Name] {
			return nil, fmt.Errorf("invalid schema: table name %q is reserved", t.Name)
		}
	}

	// Открываем BoltDB, Timeout защищает от вечного ожидания file lock
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}
	s.db = db

	if err := s.applySchema(); err != nil {
		_ = db.Close()
		s.db = nil
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Schema returns the schema the store was opened with
func (s *Storage) Schema() storage.Schema {
	return s.schema
}

// SchemaVersion returns the version persisted in the database file
func (s *Storage) SchemaVersion() (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}
	var version int
	err := s.db.View(func(tx *bbolt.Tx) error {
		version = readVersion(tx)
		return nil
	})
	return version, err
}

// applySchema создает недостающие buckets при повышении версии схемы
func (s *Storage) applySchema() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		stored := readVersion(tx)

		if stored > s.schema.Version {
			return fmt.Errorf("%w: stored %d, supported %d", storage.ErrSchemaDowngrade, stored, s.schema.Version)
		}
		if stored == s.schema.Version {
			return nil
		}

		s.logger.Info("Upgrading local store schema", "from", stored, "to", s.schema.Version)

		for _, name := range [][]byte{bucketAuth, bucketMetadata, bucketQueue} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}

		for _, table := range s.schema.Tables {
			if err := s.upgradeTable(tx, table); err != nil {
				return err
			}
		}

		return writeVersion(tx, s.schema.Version)
	})
}

// upgradeTable создает bucket таблицы и индексы; новые индексы заполняются
// из уже сохраненных записей
func (s *Storage) upgradeTable(tx *bbolt.Tx, table storage.TableSchema) error {
	tb, err := tx.CreateBucketIfNotExists([]byte(table.Name))
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", table.Name, err)
	}
	records, err := tb.CreateBucketIfNotExists(bucketRecords)
	if err != nil {
		return fmt.Errorf("failed to create records bucket for %s: %w", table.Name, err)
	}

	for _, idx := range table.Indexes {
		name := indexBucketName(idx.Name)
		if tb.Bucket(name) != nil {
			continue
		}
		ib, err := tb.CreateBucket(name)
		if err != nil {
			return fmt.Errorf("failed to create index %s.%s: %w", table.Name, idx.Name, err)
		}
		if err := backfillIndex(records, ib, idx); err != nil {
			return fmt.Errorf("failed to backfill index %s.%s: %w", table.Name, idx.Name, err)
		}
		s.logger.Debug("Created index", "table", table.Name, "index", idx.Name)
	}

	return nil
}

func readVersion(tx *bbolt.Tx) int {
	meta := tx.Bucket(bucketMetadata)
	if meta == nil {
		return 0
	}
	raw := meta.Get(keySchemaVersion)
	if len(raw) != 8 {
		return 0
	}
	return int(binary.BigEndian.Uint64(raw))
}

func writeVersion(tx *bbolt.Tx, version int) error {
	meta := tx.Bucket(bucketMetadata)
	if meta == nil {
		return fmt.Errorf("metadata bucket not found")
	}
	if err := meta.Put(keySchemaVersion, itob(uint64(version))); err != nil {
		return fmt.Errorf("failed to save schema version: %w", err)
	}
	return nil
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

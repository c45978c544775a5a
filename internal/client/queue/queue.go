// Package queue is the persistent FIFO of write operations that could not
// reach the server. Items live in the local store and are drained by the
// sync engine.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/iudanet/offlinedesk/internal/client/storage"
	"github.com/iudanet/offlinedesk/internal/client/wake"
	"github.com/iudanet/offlinedesk/internal/models"
)

// Action describes a write to replay later.
type Action struct {
	Headers    map[string]string
	Method     string
	URL        string
	Body       json.RawMessage
	MaxRetries int // 0 means the queue default
}

// Queue wraps storage.QueueStorage with the item lifecycle rules.
type Queue struct {
	store      storage.QueueStorage
	waker      wake.Waker
	logger     *slog.Logger
	now        func() time.Time
	maxRetries int
}

// Option configures Queue
type Option func(*Queue)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

// WithMaxRetries sets the retry budget for actions that do not carry one
func WithMaxRetries(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxRetries = n
		}
	}
}

// New creates a queue over store. waker may be nil.
func New(store storage.QueueStorage, waker wake.Waker, logger *slog.Logger, opts ...Option) *Queue {
	if waker == nil {
		waker = wake.Noop{}
	}
	q := &Queue{
		store:      store,
		waker:      waker,
		logger:     logger,
		now:        time.Now,
		maxRetries: models.DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue persists a new pending item and signals the sync runner.
// The wake signal is best-effort: its failure is logged, not returned.
func (q *Queue) Enqueue(ctx context.Context, action Action) (uint64, error) {
	method := strings.ToUpper(action.Method)
	if !models.IsWriteMethod(method) {
		return 0, fmt.Errorf("method %q cannot be queued", action.Method)
	}
	if action.URL == "" {
		return 0, fmt.Errorf("url is required")
	}

	maxRetries := action.MaxRetries
	if maxRetries <= 0 {
		maxRetries = q.maxRetries
	}

	item := &models.QueueItem{
		Type:           models.TypeTag(method, action.URL),
		Method:         method,
		URL:            action.URL,
		Body:           action.Body,
		Headers:        action.Headers,
		Timestamp:      q.now().UnixMilli(),
		MaxRetries:     maxRetries,
		CreatedOffline: true,
	}

	id, err := q.store.AddQueueItem(ctx, item)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue %s: %w", item.Type, err)
	}

	q.logger.Debug("Queued offline action", "id", id, "type", item.Type)

	if err := q.waker.Wake(ctx); err != nil {
		q.logger.Warn("Failed to signal background sync", "error", err)
	}

	return id, nil
}

// ListPending returns unsynced items, oldest first. Equal timestamps keep
// enqueue order.
func (q *Queue) ListPending(ctx context.Context) ([]*models.QueueItem, error) {
	items, err := q.store.ListQueueItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}

	pending := make([]*models.QueueItem, 0, len(items))
	for _, item := range items {
		if item.Pending() {
			pending = append(pending, item)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].Timestamp != pending[j].Timestamp {
			return pending[i].Timestamp < pending[j].Timestamp
		}
		return pending[i].ID < pending[j].ID
	})

	return pending, nil
}

// Count returns the number of pending items.
func (q *Queue) Count(ctx context.Context) (int, error) {
	pending, err := q.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// List returns every item including terminal ones, in id order.
func (q *Queue) List(ctx context.Context) ([]*models.QueueItem, error) {
	items, err := q.store.ListQueueItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	return items, nil
}

// Failed returns items that were given up on after exhausting retries.
func (q *Queue) Failed(ctx context.Context) ([]*models.QueueItem, error) {
	items, err := q.List(ctx)
	if err != nil {
		return nil, err
	}

	failed := make([]*models.QueueItem, 0)
	for _, item := range items {
		if item.Failed() {
			failed = append(failed, item)
		}
	}
	return failed, nil
}

// MarkTerminal records the final outcome of an item.
func (q *Queue) MarkTerminal(ctx context.Context, id uint64, success bool) error {
	now := q.now()
	err := q.store.UpdateQueueItem(ctx, id, func(item *models.QueueItem) error {
		item.Synced = true
		item.SyncedAt = &now
		item.SyncSuccess = &success
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark queue item %d: %w", id, err)
	}
	return nil
}

// IncrementRetry counts a failed attempt. Retries never exceed MaxRetries;
// an item at the cap stays pending until the engine marks it terminal.
func (q *Queue) IncrementRetry(ctx context.Context, id uint64, cause string) error {
	now := q.now()
	err := q.store.UpdateQueueItem(ctx, id, func(item *models.QueueItem) error {
		if item.Retries < item.MaxRetries {
			item.Retries++
		}
		item.LastRetryAt = &now
		item.LastError = cause
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update retries of queue item %d: %w", id, err)
	}
	return nil
}

// Remove deletes an item.
func (q *Queue) Remove(ctx context.Context, id uint64) error {
	if err := q.store.DeleteQueueItem(ctx, id); err != nil {
		return fmt.Errorf("failed to remove queue item %d: %w", id, err)
	}
	return nil
}

// ClearSynced deletes every terminal item and returns how many were removed.
func (q *Queue) ClearSynced(ctx context.Context) (int, error) {
	n, err := q.store.DeleteQueueItems(ctx, func(item *models.QueueItem) bool {
		return item.Synced
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear synced items: %w", err)
	}
	return n, nil
}

// ClearAll deletes every item.
func (q *Queue) ClearAll(ctx context.Context) (int, error) {
	n, err := q.store.DeleteQueueItems(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to clear queue: %w", err)
	}
	return n, nil
}

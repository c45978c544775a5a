// Package sync drains the offline queue against the remote API.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/offlinedesk/internal/client/api"
	"github.com/iudanet/offlinedesk/internal/client/auth"
	"github.com/iudanet/offlinedesk/internal/client/connectivity"
	"github.com/iudanet/offlinedesk/internal/client/storage"
	"github.com/iudanet/offlinedesk/internal/metrics"
	"github.com/iudanet/offlinedesk/internal/models"
)

//go:generate moq -out engine_mock.go . Queue Dispatcher

// DefaultItemDelay пауза между отправкой элементов очереди
const DefaultItemDelay = 100 * time.Millisecond

// Queue is the part of queue.Queue the engine drives
type Queue interface {
	ListPending(ctx context.Context) ([]*models.QueueItem, error)
	MarkTerminal(ctx context.Context, id uint64, success bool) error
	IncrementRetry(ctx context.Context, id uint64, cause string) error
	Remove(ctx context.Context, id uint64) error
}

// Dispatcher sends one request to the remote API
type Dispatcher interface {
	Do(ctx context.Context, r api.Request) (*api.Response, error)
}

// Status is the outcome of one item in a pass
type Status string

const (
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusError      Status = "error"
	StatusMaxRetries Status = "max_retries"
)

// Detail describes what happened to one item
type Detail struct {
	Type       string `json:"type"`
	Status     Status `json:"status"`
	Error      string `json:"error,omitempty"`
	ID         uint64 `json:"id"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// Result summarizes a drain pass
type Result struct {
	Details []Detail `json:"details,omitempty"`
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Pending bool     `json:"pending,omitempty"` // true when skipped because offline
}

// Engine replays queued writes in FIFO order
type Engine struct {
	queue      Queue
	dispatcher Dispatcher
	conn       connectivity.Checker
	tokens     auth.TokenSource
	meta       storage.MetadataStorage
	logger     *slog.Logger
	now        func() time.Time
	itemDelay  time.Duration
}

// Option configures Engine
type Option func(*Engine)

// WithItemDelay overrides DefaultItemDelay; 0 disables the pause
func WithItemDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.itemDelay = d
	}
}

// WithMetadata records the time of every completed pass
func WithMetadata(meta storage.MetadataStorage) Option {
	return func(e *Engine) {
		e.meta = meta
	}
}

// NewEngine creates a sync engine. tokens may be nil.
func NewEngine(q Queue, d Dispatcher, conn connectivity.Checker, tokens auth.TokenSource, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		queue:      q,
		dispatcher: d,
		conn:       conn,
		tokens:     tokens,
		logger:     logger,
		now:        time.Now,
		itemDelay:  DefaultItemDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessQueue makes one pass over the pending items.
//
// Items are sent strictly one at a time in enqueue order. A 2xx response
// removes the item; any other outcome counts a retry. An item whose retry
// budget is already spent is marked as permanently failed without being
// sent. The returned error is reserved for failing to load the queue and
// for ctx cancellation; the result is valid in both cases. A request cut
// short by cancellation leaves its item pending with the retry count intact.
func (e *Engine) ProcessQueue(ctx context.Context) (*Result, error) {
	if !e.conn.Online(ctx) {
		e.logger.Debug("Offline, queue processing deferred")
		return &Result{Pending: true}, nil
	}

	items, err := e.queue.ListPending(ctx)
	if err != nil {
		return &Result{}, fmt.Errorf("failed to list pending items: %w", err)
	}

	result := &Result{}
	if len(items) == 0 {
		metrics.SetQueuePending(0)
		return result, nil
	}

	metrics.IncSyncRun()
	e.logger.Info("Processing offline queue", "count", len(items))

	token := e.token(ctx)
	remaining := len(items)

	for i, item := range items {
		if i > 0 && e.itemDelay > 0 {
			select {
			case <-ctx.Done():
				metrics.SetQueuePending(remaining)
				return result, ctx.Err()
			case <-time.After(e.itemDelay):
			}
		}
		if err := ctx.Err(); err != nil {
			metrics.SetQueuePending(remaining)
			return result, err
		}

		detail, err := e.processItem(ctx, item, token)
		if err != nil {
			// прерванная отправка не расходует попытку, элемент остается в очереди
			e.logger.Info("Queue processing interrupted", "id", item.ID, "error", err)
			metrics.SetQueuePending(remaining)
			return result, err
		}
		result.Details = append(result.Details, detail)
		metrics.IncSyncItem(string(detail.Status))

		switch detail.Status {
		case StatusSuccess:
			result.Success++
			remaining--
		case StatusMaxRetries:
			result.Failed++
			remaining--
		default:
			result.Failed++
		}
	}

	metrics.SetQueuePending(remaining)

	if e.meta != nil {
		if err := e.meta.SaveLastSyncTimestamp(ctx, e.now().UnixMilli()); err != nil {
			e.logger.Warn("Failed to save last sync timestamp", "error", err)
		}
	}

	e.logger.Info("Offline queue processed",
		"success", result.Success,
		"failed", result.Failed,
		"remaining", remaining)

	return result, nil
}

// processItem returns a non-nil error only when ctx was cancelled while the
// request was in flight; the item is then left untouched.
func (e *Engine) processItem(ctx context.Context, item *models.QueueItem, token string) (Detail, error) {
	detail := Detail{ID: item.ID, Type: item.Type}

	if item.Exhausted() {
		detail.Status = StatusMaxRetries
		if err := e.queue.MarkTerminal(ctx, item.ID, false); err != nil {
			e.logger.Error("Failed to mark queue item as failed", "id", item.ID, "error", err)
			detail.Status = StatusError
			detail.Error = err.Error()
			return detail, nil
		}
		e.logger.Warn("Queue item exceeded max retries", "id", item.ID, "type", item.Type, "last_error", item.LastError)
		return detail, nil
	}

	resp, err := e.dispatcher.Do(ctx, api.Request{
		Method:  item.Method,
		URL:     item.URL,
		Body:    item.Body,
		Headers: api.MergeHeaders(item.Headers, token, len(item.Body) > 0),
	})

	var statusErr *api.StatusError
	switch {
	case err == nil && resp != nil && resp.OK():
		detail.Status = StatusSuccess
		detail.StatusCode = resp.StatusCode
		if err := e.queue.Remove(ctx, item.ID); err != nil {
			// элемент останется в очереди и будет отправлен повторно
			e.logger.Error("Failed to remove synced queue item", "id", item.ID, "error", err)
			detail.Status = StatusError
			detail.Error = err.Error()
		}
		return detail, nil

	case errors.As(err, &statusErr):
		detail.Status = StatusFailed
		detail.StatusCode = statusErr.StatusCode
		detail.Error = fmt.Sprintf("HTTP %d", statusErr.StatusCode)

	case err == nil:
		detail.Status = StatusFailed
		if resp != nil {
			detail.StatusCode = resp.StatusCode
		}
		detail.Error = fmt.Sprintf("HTTP %d", detail.StatusCode)

	case ctx.Err() != nil:
		return detail, ctx.Err()

	default:
		detail.Status = StatusError
		detail.Error = err.Error()
	}

	e.logger.Warn("Queue item sync failed", "id", item.ID, "type", item.Type, "error", detail.Error)

	if err := e.queue.IncrementRetry(ctx, item.ID, detail.Error); err != nil {
		e.logger.Error("Failed to update queue item retries", "id", item.ID, "error", err)
	}
	return detail, nil
}

func (e *Engine) token(ctx context.Context) string {
	if e.tokens == nil {
		return ""
	}
	token, err := e.tokens.Token(ctx)
	if err != nil {
		e.logger.Warn("Failed to read access token, sending without it", "error", err)
		return ""
	}
	return token
}

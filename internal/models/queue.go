package models

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// DefaultMaxRetries лимит попыток для элемента очереди по умолчанию
const DefaultMaxRetries = 3

// QueueItem is a single pending write operation in the mutation queue.
//
// An item is pending while Synced is false. Once Synced is true the item is
// terminal and SyncSuccess records the outcome. Retries never exceeds MaxRetries.
type QueueItem struct {
	Headers        map[string]string `json:"headers,omitempty"`
	SyncedAt       *time.Time        `json:"syncedAt,omitempty"`
	LastRetryAt    *time.Time        `json:"lastRetryAt,omitempty"`
	SyncSuccess    *bool             `json:"syncSuccess,omitempty"`
	Type           string            `json:"type"`
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	LastError      string            `json:"lastError,omitempty"`
	Body           json.RawMessage   `json:"body,omitempty"`
	ID             uint64            `json:"id"`
	Timestamp      int64             `json:"timestamp"` // unix ms
	Retries        int               `json:"retries"`
	MaxRetries     int               `json:"maxRetries"`
	Synced         bool              `json:"synced"`
	CreatedOffline bool              `json:"createdOffline"`
}

// Pending reports whether the item still awaits a sync attempt.
func (q *QueueItem) Pending() bool {
	return !q.Synced
}

// Exhausted reports whether the retry budget is spent.
func (q *QueueItem) Exhausted() bool {
	return q.Retries >= q.MaxRetries
}

// Failed reports whether the item reached a terminal failed state.
func (q *QueueItem) Failed() bool {
	return q.Synced && q.SyncSuccess != nil && !*q.SyncSuccess
}

// EnqueuedAt returns the enqueue time.
func (q *QueueItem) EnqueuedAt() time.Time {
	return time.UnixMilli(q.Timestamp)
}

// TypeTag строит тег вида "POST_todos" из метода и последнего сегмента пути
func TypeTag(method, url string) string {
	path := url
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	last := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		last = path[i+1:]
	}
	return strings.ToUpper(method) + "_" + last
}

// IsWriteMethod reports whether method is one the queue accepts.
func IsWriteMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

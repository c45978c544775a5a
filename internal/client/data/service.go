// Package data is the cache-first access layer application code talks to.
// Reads answer from the local store and refresh from the network; writes go
// straight to the network when possible and fall back to the mutation queue.
package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/offlinedesk/internal/client/api"
	"github.com/iudanet/offlinedesk/internal/client/auth"
	"github.com/iudanet/offlinedesk/internal/client/connectivity"
	"github.com/iudanet/offlinedesk/internal/client/queue"
	"github.com/iudanet/offlinedesk/internal/metrics"
	"github.com/iudanet/offlinedesk/internal/models"
	pkgapi "github.com/iudanet/offlinedesk/pkg/api"
)

// Cache is the slice of the local store the access layer writes through
type Cache interface {
	Put(ctx context.Context, table string, records ...models.Record) error
	Get(ctx context.Context, table, id string) (models.Record, error)
	GetAll(ctx context.Context, table string) ([]models.Record, error)
	Delete(ctx context.Context, table, id string) error
}

// Enqueuer accepts writes that could not be sent
type Enqueuer interface {
	Enqueue(ctx context.Context, action queue.Action) (uint64, error)
}

// Dispatcher sends a request to the remote API
type Dispatcher interface {
	Do(ctx context.Context, r api.Request) (*api.Response, error)
}

// Source tells where the records of a FetchResult came from
type Source string

const (
	SourceNone    Source = ""
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
)

// TempIDPrefix marks ids assigned to optimistic offline inserts
const TempIDPrefix = "temp-"

// FetchRequest describes a read.
type FetchRequest struct {
	Headers map[string]string
	URL     string
	Table   string // "" resolves the table from Resources
}

// FetchResult is the outcome of a read.
//
// Err carries a network failure that was suppressed because cached rows
// were available.
type FetchResult struct {
	Err     error
	Source  Source
	Records []models.Record
}

// MutationRequest describes a write.
type MutationRequest struct {
	Headers    map[string]string
	Body       models.Record
	Method     string
	URL        string
	Table      string // "" resolves the table from Resources
	ID         string // target record for PUT/PATCH/DELETE; "" takes the last URL segment
	Reconcile  bool   // update the cached table after a direct success
	Optimistic bool   // update the cached table when the write is queued
	MaxRetries int
}

// MutationResult is the outcome of a write.
//
// Success && !Offline means applied remotely, Queued means durably stored
// for the sync engine, !Success is a direct failure reported in Error.
type MutationResult struct {
	Data    models.Record `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
	QueueID uint64        `json:"queueId,omitempty"`
	Success bool          `json:"success"`
	Offline bool          `json:"offline"`
	Queued  bool          `json:"queued"`
}

// Service implements the cache-first access layer.
type Service struct {
	cache  Cache
	queue  Enqueuer
	client Dispatcher
	conn   connectivity.Checker
	tokens auth.TokenSource
	logger *slog.Logger
	newID  func() string
}

// Option configures Service
type Option func(*Service)

// WithIDGenerator overrides the temp id generator
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// NewService creates the access layer. cache may be nil, in which case the
// service works network-only. tokens may be nil.
func NewService(cache Cache, q Enqueuer, client Dispatcher, conn connectivity.Checker, tokens auth.TokenSource, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		cache:  cache,
		queue:  q,
		client: client,
		conn:   conn,
		tokens: tokens,
		logger: logger,
		newID:  func() string { return TempIDPrefix + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch reads a resource cache-first.
//
// Cached rows are loaded first. When online, the network read replaces them
// and is written back to the table. A network failure is suppressed (and
// reported in FetchResult.Err) while cached rows exist; otherwise it is
// returned. Offline with an empty cache yields an empty result.
func (s *Service) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	res := Lookup(req.URL)
	table := req.Table
	if table == "" {
		table = res.Table
	}

	result := &FetchResult{Records: make([]models.Record, 0)}
	if table != "" && s.cache != nil {
		cached, err := s.cache.GetAll(ctx, table)
		if err != nil {
			// кэш недоступен - работаем только с сетью
			s.logger.Warn("Cache read failed", "table", table, "error", err)
		} else if len(cached) > 0 {
			result.Records = cached
			result.Source = SourceCache
		}
	}

	if !s.conn.Online(ctx) {
		if result.Source == SourceCache {
			metrics.IncFetch(string(SourceCache))
		}
		return result, nil
	}

	records, err := s.fetchNetwork(ctx, req, res.Envelope)
	if err != nil {
		if result.Source == SourceCache {
			s.logger.Debug("Network read failed, serving cache", "url", req.URL, "error", err)
			result.Err = err
			metrics.IncFetch(string(SourceCache))
			return result, nil
		}
		return nil, err
	}

	if table != "" && s.cache != nil && len(records) > 0 {
		if err := s.cache.Put(ctx, table, records...); err != nil {
			s.logger.Warn("Failed to cache fetched records", "table", table, "error", err)
		}
	}

	result.Records = records
	result.Source = SourceNetwork
	result.Err = nil
	metrics.IncFetch(string(SourceNetwork))
	return result, nil
}

func (s *Service) fetchNetwork(ctx context.Context, req FetchRequest, envelope string) ([]models.Record, error) {
	resp, err := s.client.Do(ctx, api.Request{
		Method:  http.MethodGet,
		URL:     req.URL,
		Headers: api.MergeHeaders(req.Headers, s.token(ctx), false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL, err)
	}
	records, err := Unwrap(resp.Body, envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", req.URL, err)
	}
	return records, nil
}

// SyncResource refreshes one table from the network. It does nothing when
// offline and returns the fresh records otherwise.
func (s *Service) SyncResource(ctx context.Context, url, table string) ([]models.Record, error) {
	if !s.conn.Online(ctx) {
		return nil, nil
	}
	if table == "" {
		table = Lookup(url).Table
	}
	records, err := s.fetchNetwork(ctx, FetchRequest{URL: url}, Lookup(url).Envelope)
	if err != nil {
		return nil, err
	}
	if table != "" && s.cache != nil && len(records) > 0 {
		if err := s.cache.Put(ctx, table, records...); err != nil {
			return nil, fmt.Errorf("failed to cache %s: %w", table, err)
		}
	}
	return records, nil
}

// Mutate performs a write.
//
// Online, the write is sent directly: a 2xx response optionally reconciles
// the cached table, a non-2xx response is returned as a failed result and
// is not queued. A network failure or being offline enqueues the write and
// optionally applies it to the cache optimistically. The returned error is
// reserved for invalid requests and for failing to enqueue.
func (s *Service) Mutate(ctx context.Context, req MutationRequest) (*MutationResult, error) {
	method := strings.ToUpper(req.Method)
	if !models.IsWriteMethod(method) {
		return nil, fmt.Errorf("method %q is not a write", req.Method)
	}
	if req.URL == "" {
		return nil, errors.New("url is required")
	}
	req.Method = method
	if req.Table == "" {
		req.Table = Lookup(req.URL).Table
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	if s.conn.Online(ctx) {
		resp, err := s.client.Do(ctx, api.Request{
			Method:  method,
			URL:     req.URL,
			Body:    body,
			Headers: api.MergeHeaders(req.Headers, s.token(ctx), len(body) > 0),
		})

		var statusErr *api.StatusError
		switch {
		case err == nil:
			data := decodeData(resp.Body)
			if req.Reconcile {
				s.reconcile(ctx, req, data)
			}
			return &MutationResult{Success: true, Data: data}, nil

		case errors.As(err, &statusErr):
			s.logger.Warn("Write rejected by server", "method", method, "url", req.URL, "status", statusErr.StatusCode)
			return &MutationResult{Error: rejectionMessage(statusErr, resp)}, nil

		default:
			s.logger.Info("Write failed, queueing", "method", method, "url", req.URL, "error", err)
		}
	}

	id, err := s.queue.Enqueue(ctx, queue.Action{
		Method:     method,
		URL:        req.URL,
		Body:       body,
		Headers:    req.Headers,
		MaxRetries: req.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to queue write: %w", err)
	}

	result := &MutationResult{Success: true, Offline: true, Queued: true, QueueID: id}
	if req.Optimistic {
		result.Data = s.applyOptimistic(ctx, req)
	}
	return result, nil
}

func encodeBody(body models.Record) (json.RawMessage, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal body: %w", err)
	}
	return data, nil
}

// decodeData extracts the written record from a response; responses that
// are not a single object yield nil
func decodeData(body []byte) models.Record {
	if len(body) == 0 {
		return nil
	}
	rec, err := models.DecodeRecord(body)
	if err != nil {
		return nil
	}
	if nested, ok := rec[pkgapi.DefaultEnvelope].(map[string]any); ok {
		return models.Record(nested)
	}
	return rec
}

func rejectionMessage(statusErr *api.StatusError, resp *api.Response) string {
	if resp != nil {
		var errResp pkgapi.ErrorResponse
		if json.Unmarshal(resp.Body, &errResp) == nil {
			if errResp.Message != "" {
				return errResp.Message
			}
			if errResp.Error != "" {
				return errResp.Error
			}
		}
	}
	return statusErr.Error()
}

// targetID возвращает id записи для PUT/PATCH/DELETE
func targetID(req MutationRequest) string {
	if req.ID != "" {
		return req.ID
	}
	if id := req.Body.ID(); id != "" {
		return id
	}
	path := pkgapi.ResourcePath(req.URL)
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return ""
}

func (s *Service) reconcile(ctx context.Context, req MutationRequest, data models.Record) {
	if req.Table == "" || s.cache == nil {
		return
	}

	var err error
	switch req.Method {
	case http.MethodPost:
		if data.ID() != "" {
			err = s.cache.Put(ctx, req.Table, data)
		}
	case http.MethodPut, http.MethodPatch:
		patch := data
		if patch.ID() == "" {
			patch = req.Body.Merge(models.Record{models.FieldID: targetID(req)})
		}
		err = s.mergeCached(ctx, req.Table, patch.ID(), patch, false)
	case http.MethodDelete:
		if id := targetID(req); id != "" {
			err = s.cache.Delete(ctx, req.Table, id)
		}
	}
	if err != nil {
		s.logger.Warn("Failed to reconcile cache", "table", req.Table, "method", req.Method, "error", err)
	}
}

func (s *Service) applyOptimistic(ctx context.Context, req MutationRequest) models.Record {
	if req.Table == "" || s.cache == nil {
		return nil
	}

	var (
		rec models.Record
		err error
	)
	switch req.Method {
	case http.MethodPost:
		rec = req.Body.Merge(models.Record{models.FieldID: s.newID(), models.FieldOffline: true})
		err = s.cache.Put(ctx, req.Table, rec)
	case http.MethodPut, http.MethodPatch:
		id := targetID(req)
		if id == "" {
			return nil
		}
		rec = req.Body.Merge(models.Record{models.FieldID: id})
		err = s.mergeCached(ctx, req.Table, id, rec, true)
	case http.MethodDelete:
		if id := targetID(req); id != "" {
			err = s.cache.Delete(ctx, req.Table, id)
		}
	}
	if err != nil {
		// запись уже в очереди, кэш обновится при следующем чтении
		s.logger.Warn("Optimistic cache update failed", "table", req.Table, "method", req.Method, "error", err)
		return nil
	}
	return rec
}

func (s *Service) mergeCached(ctx context.Context, table, id string, patch models.Record, offline bool) error {
	if id == "" {
		return nil
	}
	current, err := s.cache.Get(ctx, table, id)
	if err != nil {
		return err
	}
	merged := current.Merge(patch)
	merged[models.FieldID] = id
	if offline {
		merged[models.FieldOffline] = true
	} else {
		// сервер подтвердил запись, оптимистичная пометка больше не нужна
		delete(merged, models.FieldOffline)
	}
	return s.cache.Put(ctx, table, merged)
}

func (s *Service) token(ctx context.Context) string {
	if s.tokens == nil {
		return ""
	}
	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.logger.Warn("Failed to read access token", "error", err)
		return ""
	}
	return token
}

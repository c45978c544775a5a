package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/offlinedesk/internal/client/connectivity"
	"github.com/iudanet/offlinedesk/internal/client/data"
	"github.com/iudanet/offlinedesk/internal/client/storage"
	"github.com/iudanet/offlinedesk/internal/config"
	"github.com/iudanet/offlinedesk/internal/logging"
	"github.com/iudanet/offlinedesk/internal/models"
)

func testConfig(t *testing.T, serverURL string) config.ClientConfig {
	t.Helper()
	cfg := config.Default().Client
	cfg.ServerURL = serverURL
	cfg.DBPath = filepath.Join(t.TempDir(), "client.db")
	cfg.ItemDelay = 0
	return cfg
}

func TestOpen_Durable(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	a, err := Open(context.Background(), cfg, logging.Discard(), WithConnectivity(connectivity.NewStatic(false)))
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	assert.True(t, a.Durable())
	assert.NotNil(t, a.Data)
	assert.NotNil(t, a.Engine)
}

func TestOpen_FallsBackToMemory(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.DBPath = filepath.Join(t.TempDir(), "missing", "dir", "client.db")

	a, err := Open(context.Background(), cfg, logging.Discard(), WithConnectivity(connectivity.NewStatic(false)))
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	assert.False(t, a.Durable())

	// очередь продолжает работать в памяти
	res, err := a.Data.Mutate(context.Background(), data.MutationRequest{
		Method: http.MethodPost, URL: "/api/todos", Body: models.Record{"title": "x"},
	})
	require.NoError(t, err)
	assert.True(t, res.Queued)

	n, err := a.Queue.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_LockedDatabase(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	first, err := Open(context.Background(), cfg, logging.Discard(), WithConnectivity(connectivity.NewStatic(false)))
	require.NoError(t, err)
	defer func() { require.NoError(t, first.Close()) }()

	_, err = Open(context.Background(), cfg, logging.Discard(), WithConnectivity(connectivity.NewStatic(false)))
	assert.ErrorIs(t, err, ErrLocked)
}

func TestApp_OfflineRoundTrip(t *testing.T) {
	ctx := context.Background()

	var posted []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/todos" {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			posted = append(posted, body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"srv-1"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	conn := connectivity.NewStatic(false)
	a, err := Open(ctx, testConfig(t, srv.URL), logging.Discard(), WithConnectivity(conn))
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	res, err := a.Data.Mutate(ctx, data.MutationRequest{
		Method: http.MethodPost, URL: "/api/todos", Body: models.Record{"title": "Buy milk"}, Optimistic: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Queued)

	n, err := a.Queue.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	conn.Set(true)
	result, err := a.Engine.ProcessQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 0, result.Failed)

	n, err = a.Queue.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.Len(t, posted, 1)
	assert.Equal(t, "Buy milk", posted[0]["title"])

	last, err := a.Store.GetLastSyncTimestamp(ctx)
	require.NoError(t, err)
	assert.NotZero(t, last)

	// временная запись остается в кэше до следующего чтения
	cached, err := a.Store.GetAll(ctx, storage.TableTodos)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.True(t, cached[0].IsOffline())
}

func TestApp_RunnerWakesFromRedis(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.RedisURL = "redis://" + s.Addr()
	cfg.SyncInterval = time.Hour

	a, err := Open(ctx, cfg, logging.Discard(), WithConnectivity(connectivity.NewStatic(false)))
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	runner := a.StartRunner(ctx)
	require.NotNil(t, runner)
	assert.NotNil(t, a.redis)
	assert.Equal(t, 1, s.PubSubNumSub(cfg.WakeChannel)[cfg.WakeChannel])
}

func TestApp_RunnerWithoutRedis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.RedisURL = "redis://127.0.0.1:1"

	a, err := Open(ctx, cfg, logging.Discard(), WithConnectivity(connectivity.NewStatic(false)))
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	assert.NotNil(t, a.StartRunner(ctx))
	assert.Nil(t, a.redis)
}

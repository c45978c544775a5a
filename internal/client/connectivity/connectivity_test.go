package connectivity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()
	s := NewStatic(false)
	assert.False(t, s.Online(ctx))

	s.Set(true)
	assert.True(t, s.Online(ctx))
}

func TestProbe_CachesWithinTTL(t *testing.T) {
	ctx := context.Background()
	calls := 0
	var pingErr error
	pinger := PingFunc(func(context.Context) error {
		calls++
		return pingErr
	})

	now := time.Unix(1000, 0)
	p := NewProbe(pinger, time.Minute, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.now = func() time.Time { return now }

	assert.True(t, p.Online(ctx))
	assert.True(t, p.Online(ctx))
	assert.Equal(t, 1, calls)

	// После истечения TTL проверка повторяется
	pingErr = errors.New("connection refused")
	now = now.Add(2 * time.Minute)
	assert.False(t, p.Online(ctx))
	assert.Equal(t, 2, calls)
}

func TestProbe_NoTTL(t *testing.T) {
	calls := 0
	p := NewProbe(PingFunc(func(context.Context) error {
		calls++
		return nil
	}), 0, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	p.Online(context.Background())
	p.Online(context.Background())
	assert.Equal(t, 2, calls)
}

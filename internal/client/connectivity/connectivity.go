// Package connectivity answers "is the remote API reachable right now".
// The answer is a hint: a positive result does not guarantee that the next
// request succeeds.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

//go:generate moq -out checker_mock.go . Checker

// Checker reports the current connectivity state.
type Checker interface {
	Online(ctx context.Context) bool
}

// Static is a manually switched signal, e.g. for a forced offline mode.
type Static struct {
	online atomic.Bool
}

var _ Checker = (*Static)(nil)

// NewStatic creates a switch in the given state.
func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

func (s *Static) Online(context.Context) bool {
	return s.online.Load()
}

// Set switches the state.
func (s *Static) Set(online bool) {
	s.online.Store(online)
}

// Pinger is the part of the API client the probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Probe calls the server health endpoint and caches the answer for TTL,
// so a burst of operations does not hammer the server.
type Probe struct {
	checked time.Time
	pinger  Pinger
	logger  *slog.Logger
	now     func() time.Time
	ttl     time.Duration
	timeout time.Duration
	mu      sync.Mutex
	online  bool
}

var _ Checker = (*Probe)(nil)

// NewProbe creates a probe. ttl 0 disables caching.
func NewProbe(pinger Pinger, ttl, timeout time.Duration, logger *slog.Logger) *Probe {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Probe{
		pinger:  pinger,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

func (p *Probe) Online(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ttl > 0 && !p.checked.IsZero() && p.now().Sub(p.checked) < p.ttl {
		return p.online
	}

	pctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.pinger.Ping(pctx)
	online := err == nil
	if online != p.online || p.checked.IsZero() {
		p.logger.Info("Connectivity changed", "online", online, "error", err)
	}

	p.online = online
	p.checked = p.now()
	return online
}

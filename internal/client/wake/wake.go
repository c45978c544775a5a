// Package wake carries the "drain the queue later" signal from writers to
// the sync runner. A failed wake is never fatal: the runner also drains on
// a timer.
package wake

import "context"

//go:generate moq -out waker_mock.go . Waker

// Waker asks a listener to drain the queue soon.
type Waker interface {
	Wake(ctx context.Context) error
}

// Listener delivers wake signals. Bursts may collapse into one signal.
type Listener interface {
	C() <-chan struct{}
}

// Local is an in-process Waker and Listener backed by a one-slot channel.
type Local struct {
	ch chan struct{}
}

var (
	_ Waker    = (*Local)(nil)
	_ Listener = (*Local)(nil)
)

// NewLocal creates an in-process waker.
func NewLocal() *Local {
	return &Local{ch: make(chan struct{}, 1)}
}

// Wake never blocks; a pending signal absorbs the new one.
func (l *Local) Wake(ctx context.Context) error {
	select {
	case l.ch <- struct{}{}:
	default:
	}
	return nil
}

func (l *Local) C() <-chan struct{} {
	return l.ch
}

// Noop drops every signal.
type Noop struct{}

func (Noop) Wake(context.Context) error { return nil }

// Merge fans several listeners into one until ctx is done. nil entries are
// skipped.
func Merge(ctx context.Context, listeners ...Listener) Listener {
	out := NewLocal()
	for _, l := range listeners {
		if l == nil {
			continue
		}
		go func(c <-chan struct{}) {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-c:
					if !ok {
						return
					}
					_ = out.Wake(ctx)
				}
			}
		}(l.C())
	}
	return out
}

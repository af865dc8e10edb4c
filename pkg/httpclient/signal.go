package httpclient

import (
	"context"
	"time"
)

// DefaultSignalTTL is used when a signal is requested without a positive TTL.
const DefaultSignalTTL = 5 * time.Second

// Signal is a cancellation signal that aborts itself once its TTL elapses.
// The timer is never exposed: if the request it guards finishes first, the
// timer fires into an already completed operation and nothing happens.
type Signal struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	timer  *time.Timer
}

// NewTimeoutSignal returns a signal that aborts with ErrSignalTimeout after ttl.
func NewTimeoutSignal(ttl time.Duration) *Signal {
	if ttl <= 0 {
		ttl = DefaultSignalTTL
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	s := &Signal{ctx: ctx, cancel: cancel}
	s.timer = time.AfterFunc(ttl, func() { cancel(ErrSignalTimeout) })
	return s
}

// Abort cancels the signal immediately with ErrAborted.
func (s *Signal) Abort() {
	if s == nil {
		return
	}
	s.timer.Stop()
	s.cancel(ErrAborted)
}

// Aborted reports whether the signal has fired.
func (s *Signal) Aborted() bool {
	if s == nil {
		return false
	}
	return s.ctx.Err() != nil
}

// Done is closed once the signal fires.
func (s *Signal) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.ctx.Done()
}

// Err returns ErrSignalTimeout or ErrAborted once the signal fired, nil before.
func (s *Signal) Err() error {
	if s == nil || s.ctx.Err() == nil {
		return nil
	}
	return context.Cause(s.ctx)
}

// Bind derives a context from parent that is also cancelled when the signal
// fires. The returned cancel func must be called once the request completes.
func (s *Signal) Bind(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	if s == nil {
		return ctx, func() { cancel(context.Canceled) }
	}
	stop := context.AfterFunc(s.ctx, func() { cancel(context.Cause(s.ctx)) })
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}

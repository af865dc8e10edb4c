package apihook

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/apihook/pkg/httpclient"
)

// State is the observable lifecycle of a controller. Data is nil until a
// submission succeeds with a non-empty body.
type State[T any] struct {
	Fetching bool
	Data     *T
	Error    error
	Success  bool
}

type subscriber[T any] struct {
	id uint64
	fn func(State[T])
}

// Controller owns the request state of one consumer. Triggers return
// immediately; outcomes are written into the state and pushed to subscribers.
// Only the most recently dispatched submission may write its outcome.
type Controller[T any] struct {
	client  httpclient.Client
	source  string
	merger  Merger
	events  Events
	log     Logger
	metrics *Metrics

	ctx    context.Context
	cancel context.CancelFunc

	// emitMu serializes transitions with their notifications; it is always
	// taken before mu.
	emitMu   sync.Mutex
	mu       sync.Mutex
	settled  *sync.Cond // on mu, signalled when inFlight drops to zero
	inFlight int
	state    State[T]
	seq      uint64
	closed   bool
	subs     []subscriber[T]
	nextSub  uint64
}

// New creates a controller bound to ctx. The client is resolved from, in
// order: WithClient/WithBaseConfig, the Provider carried by ctx, the shared
// default client. The controller is closed when ctx is cancelled.
func New[T any](ctx context.Context, opts ...Option) *Controller[T] {
	if ctx == nil {
		ctx = context.Background()
	}
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	client, source := resolveClient(ctx, o)
	merger := DefaultMerger
	if o.merger != nil {
		merger = *o.merger
	}
	lifetime, cancel := context.WithCancel(ctx)

	c := &Controller[T]{
		client:  client,
		source:  source,
		merger:  merger,
		events:  resolveEvents(ctx, o),
		log:     loggerOrDiscard(o.log),
		metrics: o.metrics,
		ctx:     lifetime,
		cancel:  cancel,
	}
	c.settled = sync.NewCond(&c.mu)
	// lifetime ends on Close or when ctx is cancelled; either way close.
	context.AfterFunc(lifetime, c.Close)
	return c
}

// State returns a snapshot of the current state.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every state transition in order and
// returns a func that removes it. fn runs while transitions are serialized,
// so it must not call FetchData, Mutate, Submit, ClearState or Close
// synchronously; hand those off to another goroutine.
func (c *Controller[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// FetchData submits a fetch-kind request to endpoint.
func (c *Controller[T]) FetchData(endpoint string, cfg *RequestConfig) {
	req := c.merger.CreateConfig(derefConfig(cfg), KindFetch)
	c.Submit(endpoint, &req)
}

// Mutate submits data to endpoint. The method is POST unless cfg sets one.
func (c *Controller[T]) Mutate(endpoint string, data any, cfg *RequestConfig) {
	req := derefConfig(cfg)
	req.Data = data
	req = c.merger.CreateConfig(req, KindMutate)
	c.Submit(endpoint, &req)
}

// Submit is the funnel every trigger goes through. Accepted shapes:
// Submit("", &descriptor), Submit(endpoint, &descriptor) and
// Submit(endpoint, nil). A non-empty endpoint overrides descriptor.URL.
func (c *Controller[T]) Submit(endpoint string, cfg *RequestConfig) {
	req := derefConfig(cfg)
	if endpoint != "" {
		req.URL = endpoint
	}
	c.dispatch(c.merger.DefaultConfig(req))
}

// ClearState resets Success and Error, leaving Data and Fetching untouched.
func (c *Controller[T]) ClearState() {
	c.transition(func(s *State[T]) {
		s.Success = false
		s.Error = nil
	})
}

// Wait blocks until no submission is in flight. It may run concurrently with
// triggers; a submission dispatched while waiting extends the wait.
func (c *Controller[T]) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.inFlight > 0 {
		c.settled.Wait()
	}
}

// Close cancels in-flight requests and drops every later trigger, resolution
// and notification.
func (c *Controller[T]) Close() {
	c.emitMu.Lock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.emitMu.Unlock()
		return
	}
	c.closed = true
	c.subs = nil
	c.mu.Unlock()
	c.emitMu.Unlock()

	c.cancel()
	c.log.DebugObj("controller closed", "controller", map[string]any{"client_source": c.source})
}

func (c *Controller[T]) transition(apply func(*State[T])) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	apply(&c.state)
	snap, subs := c.state, c.subscribers()
	c.mu.Unlock()

	emit(subs, snap)
}

// dispatch enters Fetching before returning and runs the request in the background.
func (c *Controller[T]) dispatch(req RequestConfig) {
	c.emitMu.Lock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.emitMu.Unlock()
		req.Signal.Abort()
		return
	}
	c.seq++
	token := c.seq
	c.state.Error = nil
	c.state.Fetching = true
	snap, subs := c.state, c.subscribers()
	c.inFlight++
	c.mu.Unlock()

	emit(subs, snap)
	c.emitMu.Unlock()

	go c.run(token, req)
}

func (c *Controller[T]) run(token uint64, req RequestConfig) {
	defer c.done()

	method := req.MethodOrDefault()
	fields := map[string]any{
		"request_id":    uuid.NewString(),
		"method":        method,
		"url":           req.URL,
		"client_source": c.source,
	}
	c.log.DebugObj("submission dispatched", "submission", fields)
	c.metrics.recordStart(method)
	start := time.Now()

	var (
		data *T
		err  error
	)
	// data stays nil with a nil err when the response has no body.
	if strings.TrimSpace(req.URL) == "" {
		err = ErrNoEndpoint
	} else {
		var resp httpclient.Response
		resp, err = c.client.Do(c.ctx, req)
		if err == nil {
			data, err = decodeBody[T](resp)
		}
	}

	elapsed := time.Since(start)
	c.metrics.recordEnd(method, err, elapsed)
	fields["elapsed_ms"] = elapsed.Milliseconds()
	c.settle(token, fields, data, err)
}

// settle writes the outcome of submission token unless a newer submission
// was dispatched or the controller was closed meanwhile. A response without
// a body only ends Fetching: Data and Success keep their previous values,
// and OnSuccess still fires.
func (c *Controller[T]) settle(token uint64, fields map[string]any, data *T, err error) {
	c.emitMu.Lock()
	c.mu.Lock()
	if c.closed || token != c.seq {
		closed := c.closed
		c.mu.Unlock()
		c.emitMu.Unlock()
		if !closed {
			c.metrics.recordStale()
			c.log.DebugObj("stale resolution dropped", "submission", fields)
		}
		return
	}
	switch {
	case err != nil:
		c.state.Error = err
		c.state.Success = false
	case data != nil:
		c.state.Data = data
		c.state.Success = true
	}
	c.state.Fetching = false
	snap, subs := c.state, c.subscribers()
	c.mu.Unlock()

	emit(subs, snap)
	c.emitMu.Unlock()

	if err != nil {
		fields["error"] = err.Error()
		c.log.WarnObj("submission failed", "submission", fields)
		c.events.failure(err)
		return
	}
	fields["empty_body"] = data == nil
	c.log.DebugObj("submission succeeded", "submission", fields)
	c.events.success()
}

func (c *Controller[T]) done() {
	c.mu.Lock()
	c.inFlight--
	if c.inFlight == 0 {
		c.settled.Broadcast()
	}
	c.mu.Unlock()
}

// subscribers must be called with mu held.
func (c *Controller[T]) subscribers() []subscriber[T] {
	if len(c.subs) == 0 {
		return nil
	}
	out := make([]subscriber[T], len(c.subs))
	copy(out, c.subs)
	return out
}

func emit[T any](subs []subscriber[T], s State[T]) {
	for _, sub := range subs {
		sub.fn(s)
	}
}

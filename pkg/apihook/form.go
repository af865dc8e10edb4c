package apihook

import (
	"context"
	"net/url"
)

// FormController exposes a controller's state with a single form trigger.
type FormController[T any] struct {
	c *Controller[T]
}

// NewForm creates a form controller; client resolution follows New.
func NewForm[T any](ctx context.Context, opts ...Option) *FormController[T] {
	return &FormController[T]{c: New[T](ctx, opts...)}
}

// SubmitForm sends form urlencoded to endpoint through the mutate path, so
// the method is POST unless cfg sets one.
func (f *FormController[T]) SubmitForm(endpoint string, form url.Values, cfg *RequestConfig) {
	req := derefConfig(cfg)
	req.Data = form
	req = f.c.merger.CreateConfig(req, KindMutate)
	f.c.Submit(endpoint, &req)
}

// State returns a snapshot of the current state.
func (f *FormController[T]) State() State[T] { return f.c.State() }

// Subscribe registers fn for state transitions.
func (f *FormController[T]) Subscribe(fn func(State[T])) func() { return f.c.Subscribe(fn) }

// ClearState resets Success and Error.
func (f *FormController[T]) ClearState() { f.c.ClearState() }

// Wait blocks until dispatched submissions settle.
func (f *FormController[T]) Wait() { f.c.Wait() }

// Close cancels in-flight submissions and drops later ones.
func (f *FormController[T]) Close() { f.c.Close() }

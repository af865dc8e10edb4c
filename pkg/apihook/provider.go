package apihook

import (
	"context"

	"github.com/samvad-hq/apihook/pkg/httpclient"
)

// Events are lifecycle callbacks invoked when a submission settles.
type Events struct {
	OnError   func(err error)
	OnSuccess func()
}

// Provider is the ambient configuration made available to every controller
// created from a context that carries it.
type Provider struct {
	Client *httpclient.BaseConfig
	Events Events
}

type providerKey struct{}

// WithProvider returns a child context carrying p. Nested calls shadow
// outer providers for their descendants.
func WithProvider(ctx context.Context, p Provider) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, providerKey{}, p)
}

// ProviderFromContext returns the nearest provider stored on ctx.
func ProviderFromContext(ctx context.Context) (Provider, bool) {
	if ctx == nil {
		return Provider{}, false
	}
	p, ok := ctx.Value(providerKey{}).(Provider)
	return p, ok
}

func (e Events) success() {
	if e.OnSuccess != nil {
		e.OnSuccess()
	}
}

func (e Events) failure(err error) {
	if e.OnError != nil {
		e.OnError(err)
	}
}

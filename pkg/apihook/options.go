package apihook

import (
	"context"

	"github.com/samvad-hq/apihook/pkg/httpclient"
)

// Option configures a controller.
type Option func(*options)

type options struct {
	client  httpclient.Client
	base    *httpclient.BaseConfig
	log     Logger
	metrics *Metrics
	merger  *Merger
	events  *Events
}

// WithClient makes the controller use client, overriding any provider.
func WithClient(client httpclient.Client) Option {
	return func(o *options) { o.client = client }
}

// WithBaseConfig builds the controller's client from cfg, overriding any provider.
func WithBaseConfig(cfg httpclient.BaseConfig) Option {
	return func(o *options) { o.base = &cfg }
}

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(log Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics records submissions on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMerger replaces DefaultMerger for this controller.
func WithMerger(m Merger) Option {
	return func(o *options) { o.merger = &m }
}

// WithEvents sets lifecycle callbacks, overriding the provider's.
func WithEvents(e Events) Option {
	return func(o *options) { o.events = &e }
}

const (
	sourceExplicitClient = "explicit_client"
	sourceExplicitConfig = "explicit_config"
	sourceProvider       = "provider"
	sourceDefault        = "default"
)

// resolveClient applies the precedence explicit > provider > shared default.
func resolveClient(ctx context.Context, o options) (httpclient.Client, string) {
	if o.client != nil {
		return o.client, sourceExplicitClient
	}
	if o.base != nil {
		return httpclient.New(o.base), sourceExplicitConfig
	}
	if p, ok := ProviderFromContext(ctx); ok && p.Client != nil {
		return httpclient.New(p.Client), sourceProvider
	}
	return httpclient.Default(), sourceDefault
}

func resolveEvents(ctx context.Context, o options) Events {
	if o.events != nil {
		return *o.events
	}
	if p, ok := ProviderFromContext(ctx); ok {
		return p.Events
	}
	return Events{}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samvad-hq/apihook/internal/config"
	"github.com/samvad-hq/apihook/internal/logger"
	"github.com/samvad-hq/apihook/internal/storage"
	"github.com/samvad-hq/apihook/pkg/apihook"
	"github.com/samvad-hq/apihook/pkg/httpclient"
)

const metricsShutdownTimeout = 5 * time.Second

// Probe represents the apiprobe runtime. It issues the configured request
// through an apihook controller, once or on an interval, and logs every state
// transition. It owns the cookie jar and the optional metrics endpoint.
type Probe struct {
	cfg      *config.Config
	log      *logger.Logger
	jar      storage.Jar
	provider apihook.Provider
	merger   apihook.Merger
	registry *prometheus.Registry
	metrics  *apihook.Metrics
	interval time.Duration
}

// NewProbe builds a probe runtime from config.
func NewProbe(cfg *config.Config, log *logger.Logger) (*Probe, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.Nop()
	}

	var base httpclient.BaseConfig
	if path := strings.TrimSpace(cfg.ClientConfigFile); path != "" {
		loaded, err := httpclient.LoadBaseConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load client config: %w", err)
		}
		base = *loaded
		log.InfoObj("client config loaded", "client_config", map[string]any{
			"file":            path,
			"base_url":        base.BaseURL,
			"headers_count":   len(base.Headers),
			"timeout_seconds": int(base.Timeout.Seconds()),
		})
	}

	jar, err := storage.NewJar(cfg.CookieStoreType, cfg.CookieStorePath, storage.Options{
		SessionTTL:      cfg.CookieTTL,
		CleanupInterval: cfg.CookieCleanupInterval,
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("init cookie store: %w", err)
	}
	base.Jar = jar
	log.InfoObj("cookie store initialized", "cookie_store", map[string]any{
		"type":                     cfg.CookieStoreType,
		"path":                     cfg.CookieStorePath,
		"session_ttl_seconds":      int(cfg.CookieTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.CookieCleanupInterval.Seconds()),
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	p := &Probe{
		cfg:      cfg,
		log:      log,
		jar:      jar,
		merger:   apihook.Merger{SignalTTL: cfg.SignalTTL, WithCredentials: cfg.WithCredentials},
		registry: registry,
		metrics:  apihook.NewMetrics(registry),
		interval: cfg.ProbeInterval,
	}
	p.provider = apihook.Provider{
		Client: &base,
		Events: apihook.Events{
			OnSuccess: func() { log.DebugObj("probe event", "event", "success") },
			OnError:   func(err error) { log.DebugObj("probe event", "event", map[string]any{"error": err.Error()}) },
		},
	}
	return p, nil
}

// Run probes once, or every interval until the context is cancelled.
func (p *Probe) Run(ctx context.Context) error {
	if p == nil || p.cfg == nil {
		return fmt.Errorf("probe is not initialized")
	}
	defer p.closeJar()

	stopMetrics := p.serveMetrics()
	defer stopMetrics()

	ctrl := apihook.New[any](apihook.WithProvider(ctx, p.provider),
		apihook.WithLogger(p.log),
		apihook.WithMetrics(p.metrics),
		apihook.WithMerger(p.merger),
	)
	defer ctrl.Close()
	unsubscribe := ctrl.Subscribe(p.logTransition)
	defer unsubscribe()

	if p.interval <= 0 {
		return p.runOnce(ctrl)
	}

	p.log.InfoObj("probe loop starting", "probe_state", map[string]any{
		"target":   p.cfg.TargetURL,
		"method":   p.cfg.Method,
		"interval": p.interval.String(),
	})
	if err := p.runOnce(ctrl); err != nil {
		p.log.ErrorObj("initial probe failed", "error", err.Error())
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("probe loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := p.runOnce(ctrl); err != nil {
				p.log.ErrorObj("scheduled probe failed", "error", err.Error())
			}
		}
	}
}

// runOnce submits the configured request and waits for it to settle.
func (p *Probe) runOnce(ctrl *apihook.Controller[any]) error {
	start := time.Now()
	if p.cfg.Method == http.MethodGet {
		ctrl.FetchData(p.cfg.TargetURL, nil)
	} else {
		ctrl.Mutate(p.cfg.TargetURL, p.cfg.Body, &apihook.RequestConfig{Method: p.cfg.Method})
	}
	ctrl.Wait()

	state := ctrl.State()
	if state.Error != nil {
		return fmt.Errorf("probe %s %s: %w", p.cfg.Method, p.cfg.TargetURL, state.Error)
	}
	var data any
	if state.Data != nil {
		data = *state.Data
	}
	p.log.InfoObj("probe completed", "probe_result", map[string]any{
		"target":     p.cfg.TargetURL,
		"method":     p.cfg.Method,
		"elapsed_ms": time.Since(start).Milliseconds(),
		"data":       data,
	})
	return nil
}

func (p *Probe) logTransition(s apihook.State[any]) {
	fields := map[string]any{
		"fetching": s.Fetching,
		"success":  s.Success,
		"has_data": s.Data != nil,
	}
	if s.Error != nil {
		fields["error"] = s.Error.Error()
		var rerr *httpclient.ResponseError
		if errors.As(s.Error, &rerr) {
			fields["status"] = rerr.StatusCode
		}
	}
	p.log.InfoObj("state transition", "state", fields)
}

// serveMetrics starts the metrics endpoint when an address is configured and
// returns the func that shuts it down.
func (p *Probe) serveMetrics() func() {
	addr := strings.TrimSpace(p.cfg.MetricsAddr)
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.ErrorObj("metrics server failed", "error", err.Error())
		}
	}()
	p.log.InfoObj("metrics server started", "metrics_addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			p.log.ErrorObj("metrics server shutdown failed", "error", err.Error())
		}
	}
}

// closeJar safely closes the cookie jar, logging any errors encountered.
func (p *Probe) closeJar() {
	if p == nil || p.jar == nil {
		return
	}
	if err := p.jar.Close(); err != nil {
		p.log.ErrorObj("cookie store close failed", "error", err.Error())
	}
}

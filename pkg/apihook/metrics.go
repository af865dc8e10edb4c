package apihook

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samvad-hq/apihook/pkg/httpclient"
)

// Outcomes recorded for settled submissions.
const (
	OutcomeSuccess        = "success"
	OutcomeServerError    = "server_error"
	OutcomeTimeout        = "timeout"
	OutcomeCanceled       = "canceled"
	OutcomeDecodeError    = "decode_error"
	OutcomeTransportError = "transport_error"
)

// Metrics provides Prometheus metrics for controller submissions. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	submissionsTotal *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	inFlight         *prometheus.GaugeVec
	staleTotal       prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		submissionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "apihook_submissions_total",
				Help: "Total number of settled submissions by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "apihook_submission_duration_seconds",
				Help:    "Duration of submissions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "outcome"},
		),
		inFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "apihook_submissions_in_flight",
				Help: "Number of submissions awaiting a response",
			},
			[]string{"method"},
		),
		staleTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "apihook_stale_resolutions_total",
				Help: "Resolutions dropped because a newer submission was dispatched",
			},
		),
	}
}

func (m *Metrics) recordStart(method string) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(method).Inc()
}

func (m *Metrics) recordEnd(method string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := classify(err)
	m.inFlight.WithLabelValues(method).Dec()
	m.submissionsTotal.WithLabelValues(method, outcome).Inc()
	m.duration.WithLabelValues(method, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) recordStale() {
	if m == nil {
		return
	}
	m.staleTotal.Inc()
}

// classify maps a settle error to an outcome label.
func classify(err error) string {
	var rerr *httpclient.ResponseError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &rerr):
		return OutcomeServerError
	case errors.Is(err, httpclient.ErrSignalTimeout):
		return OutcomeTimeout
	case errors.Is(err, httpclient.ErrAborted), errors.Is(err, context.Canceled):
		return OutcomeCanceled
	case errors.Is(err, ErrDecode):
		return OutcomeDecodeError
	default:
		return OutcomeTransportError
	}
}

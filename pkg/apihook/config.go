package apihook

import (
	"time"

	"github.com/samvad-hq/apihook/pkg/httpclient"
)

// RequestConfig is the per-request descriptor accepted by controllers.
type RequestConfig = httpclient.Request

// Kind selects how CreateConfig fills in defaults.
type Kind int

const (
	// KindFetch leaves the method to the transport (GET when unset).
	KindFetch Kind = iota
	// KindMutate defaults the method to POST when unset.
	KindMutate
)

// Merger combines caller options with defaults into a final descriptor.
type Merger struct {
	// SignalTTL is the timeout used when a request has no signal and no SignalTTL.
	SignalTTL time.Duration
	// WithCredentials is applied to requests that leave the flag unset.
	WithCredentials bool
}

// DefaultMerger sends credentials by default and times requests out after
// httpclient.DefaultSignalTTL.
var DefaultMerger = Merger{
	SignalTTL:       httpclient.DefaultSignalTTL,
	WithCredentials: true,
}

// CreateConfig applies kind-specific defaults and then DefaultConfig.
func (m Merger) CreateConfig(req RequestConfig, kind Kind) RequestConfig {
	if req.Method == "" && kind == KindMutate {
		req.Method = "POST"
	}
	return m.DefaultConfig(req)
}

// DefaultConfig attaches a timeout signal and the credentials flag when the
// caller did not supply them. Applying it twice yields the same descriptor.
func (m Merger) DefaultConfig(req RequestConfig) RequestConfig {
	out := req.Clone()
	if out.Signal == nil {
		ttl := out.SignalTTL
		if ttl <= 0 {
			ttl = m.SignalTTL
		}
		out.Signal = httpclient.NewTimeoutSignal(ttl)
	}
	if out.WithCredentials == nil {
		out.WithCredentials = httpclient.Bool(m.WithCredentials)
	}
	return out
}

// CreateConfig uses DefaultMerger.
func CreateConfig(req RequestConfig, kind Kind) RequestConfig {
	return DefaultMerger.CreateConfig(req, kind)
}

// DefaultConfig uses DefaultMerger.
func DefaultConfig(req RequestConfig) RequestConfig {
	return DefaultMerger.DefaultConfig(req)
}

func derefConfig(cfg *RequestConfig) RequestConfig {
	if cfg == nil {
		return RequestConfig{}
	}
	return *cfg
}

package httpclient

import (
	"maps"
	"net/http"
	"strings"
	"time"
)

// Request describes a single request handed to the transport.
type Request struct {
	URL     string
	Method  string
	Data    any
	Params  map[string]string
	Headers map[string]string
	Signal  *Signal

	// WithCredentials controls whether auth and cookies are attached. nil
	// means the caller did not decide; the transport treats it as true.
	WithCredentials *bool

	// SignalTTL overrides the timeout used when a signal is attached for this request.
	SignalTTL time.Duration
}

// Clone returns a copy whose maps can be modified without touching r.
func (r Request) Clone() Request {
	out := r
	out.Params = maps.Clone(r.Params)
	out.Headers = maps.Clone(r.Headers)
	if r.WithCredentials != nil {
		v := *r.WithCredentials
		out.WithCredentials = &v
	}
	return out
}

// MethodOrDefault returns the upper-cased method, GET when unset.
func (r Request) MethodOrDefault() string {
	m := strings.ToUpper(strings.TrimSpace(r.Method))
	if m == "" {
		return http.MethodGet
	}
	return m
}

// CredentialsIncluded reports whether credentials should be sent.
func (r Request) CredentialsIncluded() bool {
	return r.WithCredentials == nil || *r.WithCredentials
}

// Bool returns a pointer to v, handy for WithCredentials.
func Bool(v bool) *bool { return &v }

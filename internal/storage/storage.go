package storage

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Package storage provides the cookie jars used when requests include credentials.

// Jar is an http.CookieJar that owns resources released by Close.
type Jar interface {
	http.CookieJar
	Close() error
}

// Logger receives jar failures, which http.CookieJar cannot return.
type Logger interface {
	WarnObj(msg, key string, obj interface{})
}

// Options controls retention characteristics for concrete jar implementations.
type Options struct {
	// SessionTTL bounds how long cookies without Expires/Max-Age are kept on disk.
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	Logger          Logger
}

const (
	defaultSessionTTL      = 7 * 24 * time.Hour
	defaultCleanupInterval = time.Hour
)

// NewJar creates the configured cookie jar backend.
func NewJar(typ, path string, opts Options) (Jar, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopJar{}, nil
	case "memory":
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create memory jar: %w", err)
		}
		return memoryJar{jar}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt cookie store requires a path")
		}
		jar, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return jar, nil
	default:
		return nil, fmt.Errorf("unsupported cookie store type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	return opts
}

type nopLogger struct{}

func (nopLogger) WarnObj(string, string, interface{}) {}

type memoryJar struct {
	*cookiejar.Jar
}

func (memoryJar) Close() error { return nil }

type noopJar struct{}

func (noopJar) Close() error                        { return nil }
func (noopJar) SetCookies(*url.URL, []*http.Cookie) {}
func (noopJar) Cookies(*url.URL) []*http.Cookie     { return nil }

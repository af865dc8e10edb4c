package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BaseConfig is the base configuration a client is built from.
type BaseConfig struct {
	BaseURL        string            `json:"base_url" yaml:"base_url"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
	AuthToken      string            `json:"auth_token" yaml:"auth_token"`
	BasicAuth      *BasicAuth        `json:"basic_auth" yaml:"basic_auth"`

	// Timeout bounds the whole exchange; zero means no client-level timeout.
	Timeout time.Duration `json:"-" yaml:"-"`

	// Transport replaces the default round tripper when set.
	Transport http.RoundTripper `json:"-" yaml:"-"`

	// Jar holds cookies sent with credentialed requests.
	Jar http.CookieJar `json:"-" yaml:"-"`
}

// BasicAuth holds credentials for HTTP basic authentication.
type BasicAuth struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// LoadBaseConfig loads a base client configuration from a YAML/JSON file.
func LoadBaseConfig(path string) (*BaseConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("client config path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open client config: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read client config: %w", err)
	}

	cfg, err := parseBaseConfig(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	cfg = sanitizeBaseConfig(cfg)
	if err := validateBaseConfig(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parseBaseConfig tries the decoders matching ext, or all of them when ext is empty.
func parseBaseConfig(data []byte, ext string) (BaseConfig, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var cfg BaseConfig
		if err := d.fn(data, &cfg); err != nil {
			errs = append(errs, fmt.Errorf("decode %s client config: %w", d.name, err))
			continue
		}
		return cfg, nil
	}
	if len(errs) > 0 {
		return BaseConfig{}, errors.Join(errs...)
	}
	return BaseConfig{}, errors.New("client config format not recognized (expected YAML or JSON)")
}

func sanitizeBaseConfig(cfg BaseConfig) BaseConfig {
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.AuthToken = strings.TrimSpace(cfg.AuthToken)
	cfg.Headers = sanitizeHeaders(cfg.Headers)
	if cfg.TimeoutSeconds > 0 && cfg.Timeout <= 0 {
		cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.BasicAuth != nil {
		ba := *cfg.BasicAuth
		ba.Username = strings.TrimSpace(ba.Username)
		cfg.BasicAuth = &ba
	}
	return cfg
}

func validateBaseConfig(cfg BaseConfig) error {
	if cfg.TimeoutSeconds < 0 {
		return errors.New("timeout_seconds must not be negative")
	}
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base_url must be http or https, got %q", cfg.BaseURL)
		}
	}
	if cfg.BasicAuth != nil && cfg.BasicAuth.Username == "" {
		return errors.New("basic_auth.username is required")
	}
	return nil
}

// sanitizeHeaders trims and removes empty headers.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

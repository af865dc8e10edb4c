package apihook

import (
	"context"
	"net/http"

	"github.com/samvad-hq/apihook/pkg/httpclient"
)

// Call performs a one-shot request on the shared default client without any
// controller state. method always replaces cfg.Method and defaults to GET.
// The response body is decoded like a controller's.
func Call[T any](ctx context.Context, endpoint, method string, cfg *RequestConfig) (*T, error) {
	return call[T](ctx, httpclient.Default(), endpoint, method, cfg)
}

func call[T any](ctx context.Context, client httpclient.Client, endpoint, method string, cfg *RequestConfig) (*T, error) {
	req := derefConfig(cfg)
	req.URL = endpoint
	if method == "" {
		method = http.MethodGet
	}
	req.Method = method
	req = DefaultMerger.DefaultConfig(req)

	resp, err := client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeBody[T](resp)
}

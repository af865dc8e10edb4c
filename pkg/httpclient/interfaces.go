package httpclient

import (
	"context"
	"net/http"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// Implementations return a *ResponseError when the server answered with an
// error status and the raw transport error otherwise.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}

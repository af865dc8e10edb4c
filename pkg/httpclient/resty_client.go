package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
)

// interceptor post-processes every transport outcome before it reaches the caller.
type interceptor func(resp *resty.Response, err error) (Response, error)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client    *resty.Client
	base      BaseConfig
	intercept interceptor
}

var (
	defaultOnce   sync.Once
	defaultClient *RestyClient
)

// Default returns the process-wide client built without base configuration.
func Default() *RestyClient {
	defaultOnce.Do(func() {
		defaultClient = New(nil)
	})
	return defaultClient
}

// New creates a RestyClient from base (nil means no base configuration) and
// installs the response interceptor that normalizes failures.
func New(base *BaseConfig) *RestyClient {
	var cfg BaseConfig
	if base != nil {
		cfg = *base
	}
	return &RestyClient{
		client:    newRestyBaseClient(cfg),
		base:      cfg,
		intercept: normalizeResponse,
	}
}

// newRestyBaseClient creates a new resty.Client from the base configuration.
func newRestyBaseClient(cfg BaseConfig) *resty.Client {
	c := resty.New()
	// cookies are attached per request depending on the credentials flag
	c.SetCookieJar(nil)
	if cfg.Transport != nil {
		c.SetTransport(cfg.Transport)
	}
	if cfg.BaseURL != "" {
		c.SetBaseURL(cfg.BaseURL)
	}
	if len(cfg.Headers) > 0 {
		c.SetHeaders(cfg.Headers)
	}
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	return c
}

// BaseURL returns the base URL the client resolves relative endpoints against.
func (r *RestyClient) BaseURL() string { return r.base.BaseURL }

// Do performs the request described by req.
func (r *RestyClient) Do(ctx context.Context, req Request) (Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Signal != nil {
		var release context.CancelFunc
		ctx, release = req.Signal.Bind(ctx)
		defer release()
	}

	rr := r.client.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	if len(req.Params) > 0 {
		rr.SetQueryParams(req.Params)
	}
	setBody(rr, req.Data)

	credentials := req.CredentialsIncluded()
	if credentials {
		r.attachCredentials(rr, req.URL)
	}

	resp, err := rr.Execute(req.MethodOrDefault(), req.URL)
	if credentials {
		r.storeCookies(resp)
	}
	if err != nil && ctx.Err() != nil {
		if cause := context.Cause(ctx); !errors.Is(err, cause) {
			err = fmt.Errorf("%w: %w", cause, err)
		}
	}
	return r.intercept(resp, err)
}

func setBody(rr *resty.Request, data any) {
	switch v := data.(type) {
	case nil:
	case url.Values:
		rr.SetFormDataFromValues(v)
	default:
		rr.SetBody(v)
	}
}

// attachCredentials adds auth and jar cookies for credentialed requests.
func (r *RestyClient) attachCredentials(rr *resty.Request, endpoint string) {
	if r.base.AuthToken != "" {
		rr.SetAuthToken(r.base.AuthToken)
	}
	if ba := r.base.BasicAuth; ba != nil {
		rr.SetBasicAuth(ba.Username, ba.Password)
	}
	if r.base.Jar == nil {
		return
	}
	u, err := resolveURL(r.base.BaseURL, endpoint)
	if err != nil {
		return
	}
	if cookies := r.base.Jar.Cookies(u); len(cookies) > 0 {
		rr.SetCookies(cookies)
	}
}

func (r *RestyClient) storeCookies(resp *resty.Response) {
	if r.base.Jar == nil || resp == nil || resp.RawResponse == nil || resp.RawResponse.Request == nil {
		return
	}
	if cookies := resp.Cookies(); len(cookies) > 0 {
		r.base.Jar.SetCookies(resp.RawResponse.Request.URL, cookies)
	}
}

// resolveURL mirrors how resty joins the base URL with a relative endpoint.
func resolveURL(base, endpoint string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if u.IsAbs() || base == "" {
		return u, nil
	}
	return url.Parse(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(endpoint, "/"))
}

// normalizeResponse passes successful responses through and rejects error
// statuses with the server payload, leaving transport errors untouched.
func normalizeResponse(resp *resty.Response, err error) (Response, error) {
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, newResponseError(resp.StatusCode(), resp.Status(), resp.Header(), resp.Body())
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }

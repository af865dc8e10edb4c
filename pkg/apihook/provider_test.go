package apihook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/samvad-hq/apihook/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestProviderFromContext(t *testing.T) {
	_, ok := ProviderFromContext(context.Background())
	assert.False(t, ok)

	outer := WithProvider(context.Background(), Provider{Client: &httpclient.BaseConfig{BaseURL: "http://outer"}})
	inner := WithProvider(outer, Provider{Client: &httpclient.BaseConfig{BaseURL: "http://inner"}})

	p, ok := ProviderFromContext(inner)
	require.True(t, ok)
	assert.Equal(t, "http://inner", p.Client.BaseURL)

	p, ok = ProviderFromContext(outer)
	require.True(t, ok)
	assert.Equal(t, "http://outer", p.Client.BaseURL)
}

func TestClientPrecedence(t *testing.T) {
	provided, providedHits := countingServer(t)
	explicit, explicitHits := countingServer(t)
	ctx := WithProvider(context.Background(), Provider{Client: &httpclient.BaseConfig{BaseURL: provided.URL}})

	withExplicit := New[any](ctx, WithBaseConfig(httpclient.BaseConfig{BaseURL: explicit.URL}))
	defer withExplicit.Close()
	withExplicit.FetchData("/x", nil)
	withExplicit.Wait()
	assert.Equal(t, sourceExplicitConfig, withExplicit.source)
	assert.Equal(t, int32(1), explicitHits.Load())
	assert.Equal(t, int32(0), providedHits.Load())

	fromProvider := New[any](ctx)
	defer fromProvider.Close()
	fromProvider.FetchData("/x", nil)
	fromProvider.Wait()
	assert.Equal(t, sourceProvider, fromProvider.source)
	assert.Equal(t, int32(1), providedHits.Load())

	stub := &stubClient{}
	withClient := New[any](ctx, WithClient(stub), WithBaseConfig(httpclient.BaseConfig{BaseURL: explicit.URL}))
	defer withClient.Close()
	withClient.FetchData("/x", nil)
	withClient.Wait()
	assert.Equal(t, sourceExplicitClient, withClient.source)
	assert.Len(t, stub.requests(), 1)

	fallback := New[any](context.Background())
	defer fallback.Close()
	assert.Equal(t, sourceDefault, fallback.source)
	assert.Same(t, httpclient.Default(), fallback.client)
}

func TestProviderEventsFireOnSettle(t *testing.T) {
	var successes, failures atomic.Int32
	ctx := WithProvider(context.Background(), Provider{Events: Events{
		OnSuccess: func() { successes.Add(1) },
		OnError:   func(error) { failures.Add(1) },
	}})

	ok := true
	client := &stubClient{handle: func(context.Context, httpclient.Request) (httpclient.Response, error) {
		if ok {
			return stubResponse{status: http.StatusOK}, nil
		}
		return nil, assert.AnError
	}}
	c := New[any](ctx, WithClient(client))
	defer c.Close()

	c.FetchData("/a", nil)
	c.Wait()
	ok = false
	c.FetchData("/a", nil)
	c.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(1), failures.Load())
}

func TestExplicitEventsOverrideProvider(t *testing.T) {
	var fromProvider, explicit atomic.Int32
	ctx := WithProvider(context.Background(), Provider{Events: Events{OnSuccess: func() { fromProvider.Add(1) }}})

	c := New[any](ctx, WithClient(&stubClient{}), WithEvents(Events{OnSuccess: func() { explicit.Add(1) }}))
	defer c.Close()
	c.FetchData("/a", nil)
	c.Wait()

	assert.Equal(t, int32(0), fromProvider.Load())
	assert.Equal(t, int32(1), explicit.Load())
}

package apihook

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/samvad-hq/apihook/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitFormPostsURLEncoded(t *testing.T) {
	srv := newGatedServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/submit", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "bar", r.PostForm.Get("foo"))
		assert.Equal(t, "pong", r.PostForm.Get("ping"))
		writeJSON(t, w, http.StatusOK, postResponse("User created"))
	})

	f := NewForm[message](context.Background(), WithBaseConfig(httpclient.BaseConfig{BaseURL: srv.URL}))
	defer f.Close()

	f.SubmitForm("/submit", url.Values{"foo": {"bar"}, "ping": {"pong"}}, nil)
	assert.True(t, f.State().Fetching)
	srv.open()
	f.Wait()

	s := f.State()
	require.True(t, s.Success)
	assert.Equal(t, "User created", s.Data.Data.Message)

	f.ClearState()
	assert.False(t, f.State().Success)
	assert.NotNil(t, f.State().Data)
}

func TestSubmitFormKeepsExplicitMethod(t *testing.T) {
	client := &stubClient{}
	f := NewForm[any](context.Background(), WithClient(client))
	defer f.Close()

	var transitions int
	unsubscribe := f.Subscribe(func(State[any]) { transitions++ })
	defer unsubscribe()

	f.SubmitForm("/profile", url.Values{"name": {"abid"}}, &RequestConfig{Method: http.MethodPut})
	f.Wait()

	reqs := client.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, url.Values{"name": {"abid"}}, reqs[0].Data)
	assert.Equal(t, 2, transitions)
}

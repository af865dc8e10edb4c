package apihook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/samvad-hq/apihook/pkg/httpclient"
)

type todo struct {
	UserID    int    `json:"userId"`
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type message struct {
	Data struct {
		Message string `json:"message"`
	} `json:"data"`
}

var fetchResponse = todo{UserID: 1, ID: 1, Title: "delectus aut autem", Completed: false}

func postResponse(msg string) map[string]any {
	return map[string]any{"data": map[string]any{"message": msg}}
}

// gatedServer holds every request until release is closed, so tests can
// observe the Fetching state deterministically.
type gatedServer struct {
	*httptest.Server
	release chan struct{}
	once    sync.Once
}

func newGatedServer(t *testing.T, handler http.HandlerFunc) *gatedServer {
	t.Helper()
	gs := &gatedServer{release: make(chan struct{})}
	gs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-gs.release:
		case <-r.Context().Done():
			return
		}
		handler(w, r)
	}))
	t.Cleanup(func() {
		gs.open()
		gs.Close()
	})
	return gs
}

func (gs *gatedServer) open() { gs.once.Do(func() { close(gs.release) }) }

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func readJSON(t *testing.T, r *http.Request) any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		t.Errorf("read body: %v", err)
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Errorf("decode body %q: %v", raw, err)
	}
	return v
}

type stubResponse struct {
	body   []byte
	status int
}

func (s stubResponse) Body() []byte        { return s.body }
func (s stubResponse) StatusCode() int     { return s.status }
func (s stubResponse) Header() http.Header { return http.Header{} }

// stubClient records requests and delegates the outcome to handle.
type stubClient struct {
	mu     sync.Mutex
	reqs   []httpclient.Request
	handle func(ctx context.Context, req httpclient.Request) (httpclient.Response, error)
}

func (s *stubClient) Do(ctx context.Context, req httpclient.Request) (httpclient.Response, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
	if s.handle == nil {
		return stubResponse{status: http.StatusOK}, nil
	}
	return s.handle(ctx, req)
}

func (s *stubClient) requests() []httpclient.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]httpclient.Request, len(s.reqs))
	copy(out, s.reqs)
	return out
}

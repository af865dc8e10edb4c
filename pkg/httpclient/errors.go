package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrSignalTimeout is the cause attached to requests aborted by a timeout signal.
	ErrSignalTimeout = errors.New("httpclient: signal timed out")

	// ErrAborted is the cause attached to requests whose signal was aborted manually.
	ErrAborted = errors.New("httpclient: request aborted")
)

const maxMessageLen = 512

// ResponseError is returned when the server answered with an error status.
// Data holds the server payload: decoded JSON when possible, the trimmed
// body text otherwise.
type ResponseError struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Data       any
	Message    string
}

func (e *ResponseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message == "" {
		return fmt.Sprintf("http response status %d", e.StatusCode)
	}
	return fmt.Sprintf("http response status %d: %s", e.StatusCode, e.Message)
}

// Is matches any *ResponseError target with the same status code, or any
// status when the target's StatusCode is zero.
func (e *ResponseError) Is(target error) bool {
	t, ok := target.(*ResponseError)
	if !ok || e == nil {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// newResponseError builds the normalized error for an error-status response.
func newResponseError(status int, statusText string, header http.Header, body []byte) *ResponseError {
	rerr := &ResponseError{
		StatusCode: status,
		Status:     statusText,
		Header:     header,
		Body:       body,
	}

	mediaType := ""
	if header != nil {
		mediaType, _, _ = mime.ParseMediaType(header.Get("Content-Type"))
	}

	switch {
	case isJSON(mediaType, body):
		var payload any
		if err := json.Unmarshal(body, &payload); err == nil {
			rerr.Data = payload
			rerr.Message = jsonMessage(payload)
		}
	case mediaType == "text/html":
		rerr.Message = htmlTitle(body)
	}

	if rerr.Data == nil && len(body) > 0 {
		rerr.Data = snippet(body)
	}
	if rerr.Message == "" {
		if len(body) > 0 {
			rerr.Message = snippet(body)
		} else {
			rerr.Message = http.StatusText(status)
		}
	}
	return rerr
}

func isJSON(mediaType string, body []byte) bool {
	if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return mediaType == "" && len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// jsonMessage picks the conventional message field out of an error payload.
func jsonMessage(payload any) string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"message", "error", "detail", "title"} {
		if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if nested, ok := obj["error"].(map[string]any); ok {
		return jsonMessage(nested)
	}
	return ""
}

// htmlTitle extracts the page title of HTML error pages served by proxies.
func htmlTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

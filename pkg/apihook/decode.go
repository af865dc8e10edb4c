package apihook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samvad-hq/apihook/pkg/httpclient"
)

var (
	// ErrDecode wraps failures to decode a response body into the controller's type.
	ErrDecode = errors.New("apihook: decode response body")

	// ErrNoEndpoint is stored when a submission carries no URL.
	ErrNoEndpoint = errors.New("apihook: endpoint is empty")
)

// decodeBody converts the response body into T. An empty body yields nil.
// []byte and string receive the raw body; any receives decoded JSON or the
// body text when it is not JSON.
func decodeBody[T any](resp httpclient.Response) (*T, error) {
	if resp == nil {
		return nil, nil
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, nil
	}

	var out T
	switch p := any(&out).(type) {
	case *[]byte:
		*p = append([]byte(nil), body...)
	case *string:
		*p = string(body)
	case *any:
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			v = string(body)
		}
		*p = v
	default:
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
	}
	return &out, nil
}

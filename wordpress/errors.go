package wordpress

import (
	"errors"
	"fmt"
)

// ErrInvalidBaseURL is returned by New when the API base URL is empty or
// not an absolute http(s) URL.
var ErrInvalidBaseURL = errors.New("wordpress: invalid API base URL")

// UpstreamError reports a failed call to the WordPress API: a transport
// error, a non-2xx status or a response body of the wrong shape.
type UpstreamError struct {
	Op     string // client operation, e.g. "ListPosts"
	Status int    // HTTP status, 0 when no response was received
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("wordpress %s: status=%d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("wordpress %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err is or wraps an *UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

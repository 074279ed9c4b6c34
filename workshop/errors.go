package workshop

import (
	"errors"
	"fmt"
)

var (
	ErrBadStatus           = errors.New("unexpected HTTP status")
	ErrDecode              = errors.New("undecodable response body")
	ErrResultCode          = errors.New("non-success result code")
	ErrResultCountMismatch = errors.New("result count does not match requested ids")
	ErrItemNotFound        = errors.New("workshop item not found")
)

// APIError reports a response Steam delivered but that cannot be trusted:
// a bad HTTP status, an undecodable body, a failing result code or a
// truncated result set. Kind holds one of the sentinel errors above.
type APIError struct {
	Kind       error
	StatusCode int
	Result     uint64
	Requested  int
	Returned   uint64
	Detail     string
}

func (e *APIError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrBadStatus):
		return fmt.Sprintf("steam api: %v %d: %s", e.Kind, e.StatusCode, e.Detail)
	case errors.Is(e.Kind, ErrDecode):
		return fmt.Sprintf("steam api: %v: %s", e.Kind, e.Detail)
	case errors.Is(e.Kind, ErrResultCountMismatch):
		return fmt.Sprintf("steam api: %v: requested %d, got %d", e.Kind, e.Requested, e.Returned)
	default:
		return fmt.Sprintf("steam api: %v %d", e.Kind, e.Result)
	}
}

func (e *APIError) Unwrap() error { return e.Kind }

// NetworkError wraps a transport failure talking to Endpoint.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("steam api request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

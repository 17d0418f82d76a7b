package emby

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a request failure so retry-vs-fatal decisions are plain
// data instead of type assertions on transport errors.
type ErrorKind int

const (
	// KindTransientNetwork is a connection or timeout failure; retried.
	KindTransientNetwork ErrorKind = iota
	// KindTransientServer is HTTP 502/503/504; retried.
	KindTransientServer
	// KindAuthExpired is a 401 outside the login call; re-authenticate and retry.
	KindAuthExpired
	// KindAuthInvalid is a 401 from the login call itself; fatal.
	KindAuthInvalid
	// KindDecode means the body was not valid JSON where JSON was required; fatal.
	KindDecode
	// KindConnectionFailed means all attempts were exhausted; fatal.
	KindConnectionFailed
	// KindCacheIO is a credential cache load/save failure; never fatal, logged only.
	KindCacheIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransientNetwork:
		return "transient network error"
	case KindTransientServer:
		return "transient server error"
	case KindAuthExpired:
		return "authentication expired"
	case KindAuthInvalid:
		return "invalid credentials"
	case KindDecode:
		return "decode error"
	case KindConnectionFailed:
		return "connection failed"
	case KindCacheIO:
		return "cache I/O error"
	default:
		return "unknown error"
	}
}

// APIError is the error surfaced to callers. Only KindAuthInvalid, KindDecode
// and KindConnectionFailed ever propagate out of the connector; the transient
// kinds are resolved internally by the request executor.
type APIError struct {
	Kind     ErrorKind
	Path     string
	Status   int
	Attempts int
	Body     string
	Err      error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Path)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Attempts != 0 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAuthInvalid reports whether the backend rejected the configured credentials.
func (e *APIError) IsAuthInvalid() bool { return e.Kind == KindAuthInvalid }

// IsConnectionFailed reports whether the retry budget was exhausted.
func (e *APIError) IsConnectionFailed() bool { return e.Kind == KindConnectionFailed }

// ErrKind extracts the ErrorKind from err, or (0, false) when err is not an
// APIError.
func ErrKind(err error) (ErrorKind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

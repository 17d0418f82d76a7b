package pool

import (
	"net/http"
	"time"
)

// ContextID identifies one concurrent execution unit (a worker, a scheduling
// loop). Identities must be stable for the lifetime of the context; a context
// owns at most one session at a time.
type ContextID string

// DefaultContext is used when a caller supplies no identity of its own.
const DefaultContext ContextID = "default"

// Session is a reusable transport client bound to exactly one context identity.
// The reference count tracks in-flight requests; a session at zero references
// is eligible for reclamation by the watchdog once the idle timeout elapses.
type Session struct {
	ID      ContextID
	Client  *http.Client
	refs    int       // guarded by the owning pool's mutex
	created time.Time
}

// Close releases the session's idle transport connections. http.Client has no
// hard close; dropping the keep-alive pool is what reclamation means here.
func (s *Session) Close() {
	s.Client.CloseIdleConnections()
}

// Factory constructs the transport client for a context's session: headers,
// cookies, proxy and timeout are all baked in here. Called at most once per
// (context, pool) pair until the session is reclaimed.
type Factory func(id ContextID) (*http.Client, error)

package tokens

import "context"

// Entry is a cached authentication credential for one (host, username) pair.
// It is written after every successful live login and adopted verbatim on the
// next process start, so a connector normally authenticates against the
// backend only once.
type Entry struct {
	Token  string `json:"token"`
	UserID string `json:"userid"`
}

// Store defines cache-aside persistence for credential entries.
// A miss is reported as (nil, nil); implementations reserve errors for I/O
// failures, which callers treat as a miss as well. Persistence is best-effort
// and never required for correctness.
type Store interface {
	// Load retrieves the entry for (host, username), or nil when absent.
	Load(ctx context.Context, host, username string) (*Entry, error)
	// Save writes the entry for (host, username), overwriting any previous one.
	Save(ctx context.Context, host, username string, entry *Entry) error
	// Delete removes the entry for (host, username).
	Delete(ctx context.Context, host, username string) error
}

package events

import (
	"context"
	"encoding/json"
	"time"
)

// Kind names a connector lifecycle event.
type Kind string

const (
	KindAuthSuccess      Kind = "auth.success"
	KindAuthFailure      Kind = "auth.failure"
	KindSessionReclaimed Kind = "session.reclaimed"
	KindProbeSuccess     Kind = "probe.success"
	KindProbeFailure     Kind = "probe.failure"
)

// Event is one connector lifecycle notification, published for external
// schedulers that track backend health.
type Event struct {
	Instance string    `json:"instance"`
	Host     string    `json:"host"`
	Kind     Kind      `json:"kind"`
	Detail   string    `json:"detail,omitempty"`
	Time     time.Time `json:"time"`
}

// MarshalBinary implements encoding.BinaryMarshaler for Redis publishing.
func (e Event) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher defines the outbound side of event delivery. The connector only
// emits; consuming is the scheduler's concern.
type Publisher interface {
	// Publish delivers one event, stamping it with the publisher's instance id.
	Publish(ctx context.Context, event Event) error
	// Type identifies the underlying transport ("redis", "kafka").
	Type() string
	// Close releases the publisher's resources.
	Close() error
}

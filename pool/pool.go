package pool

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/stevenalfofficial/emby-keeper/metrics"
)

// Pool hands out exactly one reusable session per context identity, safely
// under concurrent access from many contexts. It never closes sessions on its
// own; closing is the watchdog's (or shutdown's) job.
type Pool struct {
	mu       sync.Mutex // guards sessions, locks and reference counts
	sessions map[ContextID]*Session
	locks    map[ContextID]*sync.Mutex // serializes creation/teardown per context
	factory  Factory
}

// New creates a pool whose sessions are built by factory.
func New(factory Factory) *Pool {
	return &Pool{
		sessions: make(map[ContextID]*Session),
		locks:    make(map[ContextID]*sync.Mutex),
		factory:  factory,
	}
}

// contextLock returns the creation lock for id, allocating it on first use.
func (p *Pool) contextLock(id ContextID) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[id] = lock
	}
	return lock
}

// Acquire returns the session for id, creating it if absent, and increments
// its reference count. Two concurrent callers for the same context never
// construct two sessions: construction happens under the per-context lock.
// If the factory fails, no partial session is left registered.
func (p *Pool) Acquire(id ContextID) (*Session, error) {
	lock := p.contextLock(id)
	lock.Lock()
	defer lock.Unlock()

	p.mu.Lock()
	session := p.sessions[id]
	p.mu.Unlock()

	if session == nil {
		client, err := p.factory(id)
		if err != nil {
			return nil, fmt.Errorf("failed to create session for context %s: %w", id, err)
		}
		session = &Session{
			ID:      id,
			Client:  client,
			refs:    1,
			created: time.Now(),
		}
		p.mu.Lock()
		p.sessions[id] = session
		p.mu.Unlock()
		metrics.SessionsActive.Inc()
		metrics.SessionsCreated.Inc()
		log.Printf("Created new Emby session for context %s", id)
		return session, nil
	}

	p.mu.Lock()
	session.refs++
	p.mu.Unlock()
	return session, nil
}

// Release decrements the session's reference count. It does not close the
// session.
func (p *Pool) Release(id ContextID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if session, ok := p.sessions[id]; ok {
		session.refs--
	}
}

// Refs reports the current reference count for id, or -1 when no session
// exists for that context.
func (p *Pool) Refs(id ContextID) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, ok := p.sessions[id]
	if !ok {
		return -1
	}
	return session.refs
}

// contexts snapshots the identities with a live session.
func (p *Pool) contexts() []ContextID {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]ContextID, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	return ids
}

// reclaimIdle closes and removes the session for id if its reference count is
// still zero, under the same per-context lock acquisition uses. Returns true
// when a session was actually closed; a session that disappeared or became
// busy in the meantime is left alone.
func (p *Pool) reclaimIdle(id ContextID) bool {
	lock := p.contextLock(id)
	lock.Lock()
	defer lock.Unlock()

	p.mu.Lock()
	session, ok := p.sessions[id]
	if !ok || session.refs > 0 {
		p.mu.Unlock()
		return false
	}
	delete(p.sessions, id)
	p.mu.Unlock()

	session.Close()
	metrics.SessionsActive.Dec()
	metrics.SessionsReclaimed.Inc()
	return true
}

// Drain closes every tracked session, bounding each close by closeTimeout so
// shutdown never hangs on a wedged transport. Sessions that miss the bound are
// abandoned.
func (p *Pool) Drain(closeTimeout time.Duration) {
	p.mu.Lock()
	sessions := make([]*Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		sessions = append(sessions, s)
	}
	p.sessions = make(map[ContextID]*Session)
	p.mu.Unlock()

	for _, s := range sessions {
		done := make(chan struct{})
		go func(s *Session) {
			s.Close()
			close(done)
		}(s)
		select {
		case <-done:
		case <-time.After(closeTimeout):
			log.Printf("Session for context %s did not close within %s, abandoning", s.ID, closeTimeout)
		}
		metrics.SessionsActive.Dec()
	}
}

// Len reports how many sessions are currently registered.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

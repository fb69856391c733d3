package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry holds one Machine per browser session, keyed by an opaque ID.
// Sessions idle for longer than the TTL are closed and forgotten.
type Registry struct {
	newMachine func() *Machine
	ttl        time.Duration
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	machine  *Machine
	lastSeen time.Time
}

// NewRegistry returns a Registry that creates machines with newMachine.
func NewRegistry(newMachine func() *Machine, ttl time.Duration) *Registry {
	return &Registry{
		newMachine: newMachine,
		ttl:        ttl,
		now:        time.Now,
		sessions:   make(map[string]*entry),
	}
}

// Get returns the machine for id, creating a new session when id is unknown
// or expired. The returned ID is the one the caller should keep using.
func (r *Registry) Get(id string) (*Machine, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.sessions[id]; ok {
		if now.Sub(e.lastSeen) < r.ttl {
			e.lastSeen = now
			return e.machine, id
		}
		e.machine.Close()
		delete(r.sessions, id)
	}

	id = uuid.NewString()
	e := &entry{machine: r.newMachine(), lastSeen: now}
	r.sessions[id] = e
	return e.machine, id
}

// Lookup returns the machine for id without creating or touching a session.
func (r *Registry) Lookup(id string) (*Machine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok || r.now().Sub(e.lastSeen) >= r.ttl {
		return nil, false
	}
	return e.machine, true
}

// Sweep closes and removes expired sessions and reports how many it removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var removed int
	for id, e := range r.sessions {
		if now.Sub(e.lastSeen) >= r.ttl {
			e.machine.Close()
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run sweeps every interval until ctx is done, then closes all sessions.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.sessions {
		e.machine.Close()
		delete(r.sessions, id)
	}
}

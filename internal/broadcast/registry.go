package broadcast

import (
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Conn is one attached observer as seen by the registry and the broadcaster.
type Conn interface {
	ID() uuid.UUID
	// Send enqueues data without blocking.
	Send(data []byte) error
	// Close shuts the connection down with a close frame carrying reason.
	// Safe to call more than once.
	Close(reason string)
}

// Registry tracks the set of live connections.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]Conn
	size  prometheus.Gauge
}

// NewRegistry creates an empty registry. size, if not nil, tracks Len.
func NewRegistry(size prometheus.Gauge) *Registry {
	return &Registry{
		conns: make(map[uuid.UUID]Conn),
		size:  size,
	}
}

func (r *Registry) Add(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[c.ID()] = c
	r.observe()
}

// Remove deletes c if it is still registered and reports whether it was.
// Removing an absent connection is not an error: close can race with an
// in-flight broadcast evicting the same connection.
func (r *Registry) Remove(c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.conns[c.ID()]
	if !ok || current != c {
		return false
	}
	delete(r.conns, c.ID())
	r.observe()
	return true
}

// Snapshot returns a copy of the current members. The caller may iterate it
// while connections come and go.
func (r *Registry) Snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// must hold r.mu
func (r *Registry) observe() {
	if r.size != nil {
		r.size.Set(float64(len(r.conns)))
	}
}

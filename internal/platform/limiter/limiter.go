// Package limiter caps concurrent dashboard connections, globally and per
// source address.
package limiter

import (
	"sync"
	"sync/atomic"
)

// Global limits total concurrent connections per instance.
type Global struct {
	current atomic.Int64
	max     int64
}

func NewGlobal(max int64) *Global {
	return &Global{max: max}
}

// Acquire takes a slot. It returns false at capacity.
func (l *Global) Acquire() bool {
	for {
		current := l.current.Load()
		if current >= l.max {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (l *Global) Release() {
	l.current.Add(-1)
}

func (l *Global) Current() int64 {
	return l.current.Load()
}

// PerIP limits concurrent connections from one address so a single runaway
// client cannot take every slot.
type PerIP struct {
	mu     sync.Mutex
	ips    map[string]int
	maxPer int
}

func NewPerIP(maxPer int) *PerIP {
	return &PerIP{
		ips:    make(map[string]int),
		maxPer: maxPer,
	}
}

func (l *PerIP) Acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ips[ip] >= l.maxPer {
		return false
	}
	l.ips[ip]++
	return true
}

func (l *PerIP) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if count := l.ips[ip]; count > 1 {
		l.ips[ip] = count - 1
	} else {
		delete(l.ips, ip)
	}
}

// Reason says which cap refused a connection.
type Reason string

const (
	ReasonGlobal Reason = "global_limit"
	ReasonPerIP  Reason = "per_ip_limit"
)

// Connections combines the global and per-IP caps.
type Connections struct {
	global *Global
	perIP  *PerIP
}

func NewConnections(globalMax int64, perIPMax int) *Connections {
	return &Connections{
		global: NewGlobal(globalMax),
		perIP:  NewPerIP(perIPMax),
	}
}

// Acquire takes a global and a per-IP slot, or neither.
func (l *Connections) Acquire(ip string) (Reason, bool) {
	if !l.global.Acquire() {
		return ReasonGlobal, false
	}
	if !l.perIP.Acquire(ip) {
		l.global.Release()
		return ReasonPerIP, false
	}
	return "", true
}

func (l *Connections) Release(ip string) {
	l.perIP.Release(ip)
	l.global.Release()
}

// Current counts held slots, including upgrades not yet registered.
func (l *Connections) Current() int64 {
	return l.global.Current()
}

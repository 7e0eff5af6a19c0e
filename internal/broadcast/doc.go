// Package broadcast fans plant messages out to every attached dashboard.
//
// Registry is the only mutable state shared between connection read loops and
// the ticker; it is guarded by one mutex and iterated through copied
// snapshots, so no lock is held during network I/O. Each connection owns a
// ClientWriter goroutine with a small buffered queue; enqueueing never blocks,
// and a connection whose queue is full is evicted instead of stalling the
// broadcast for everyone else.
package broadcast

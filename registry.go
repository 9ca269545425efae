package stremerd

import (
	"sync"
	"sync/atomic"
	"time"
)

// Registry holds the small in-memory observability state: the live request
// count and the most recent client logins. Everything here is advisory and
// lost on restart.
type Registry struct {
	mu      sync.Mutex
	clients []ClientRecord

	active atomic.Int64
}

func NewRegistry() *Registry {
	return &Registry{}
}

// UpsertClient records a successful login, keyed by remote address or
// display name (either match updates the existing record).
func (r *Registry) UpsertClient(displayName, remoteAddr string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UnixMilli()
	for i := range r.clients {
		if r.clients[i].RemoteAddr == remoteAddr || r.clients[i].DisplayName == displayName {
			r.clients[i] = ClientRecord{DisplayName: displayName, RemoteAddr: remoteAddr, LastSeenMs: now}
			return
		}
	}
	r.clients = append(r.clients, ClientRecord{DisplayName: displayName, RemoteAddr: remoteAddr, LastSeenMs: now})
}

// Clients returns a snapshot of known clients, most recent last.
func (r *Registry) Clients() []ClientRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ClientRecord, len(r.clients))
	copy(out, r.clients)
	return out
}

// RequestStarted increments the live request count.
func (r *Registry) RequestStarted() {
	r.active.Add(1)
}

// RequestFinished decrements the live request count.
func (r *Registry) RequestFinished() {
	r.active.Add(-1)
}

// ActiveRequests reports in-flight requests. Read-only observability.
func (r *Registry) ActiveRequests() int64 {
	return r.active.Load()
}

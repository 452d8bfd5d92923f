package call

import "sync"

// Active pairs a live session with its relay so API handlers can reach
// into an in-progress call.
type Active struct {
	Session *Session
	Relay   *Relay
}

// Registry tracks calls currently on the wire, keyed by call ID.
type Registry struct {
	mu    sync.RWMutex
	calls map[string]*Active
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{calls: make(map[string]*Active)}
}

// Add registers a call. Replaces any stale entry under the same ID.
func (r *Registry) Add(a *Active) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[a.Session.ID] = a
}

// Remove drops a finished call.
func (r *Registry) Remove(callID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calls, callID)
}

// Get returns the active call for an ID, if present.
func (r *Registry) Get(callID string) (*Active, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.calls[callID]
	return a, ok
}

// All returns a snapshot of every active call.
func (r *Registry) All() []*Active {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Active, 0, len(r.calls))
	for _, a := range r.calls {
		out = append(out, a)
	}
	return out
}

// Len reports how many calls are live.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}

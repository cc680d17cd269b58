package adapter

import "sync"

// Registry holds the fleet's adapters keyed by server ID. Adapters are
// created once at boot and looked up by the API layer per request.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Put registers or replaces the adapter for a server.
func (r *Registry) Put(serverID string, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[serverID] = a
}

// Get returns the adapter for a server.
func (r *Registry) Get(serverID string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[serverID]
	return a, ok
}

// Remove drops a server's adapter.
func (r *Registry) Remove(serverID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.adapters, serverID)
}

// All returns a copy of the adapter map.
func (r *Registry) All() map[string]Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Adapter, len(r.adapters))
	for id, a := range r.adapters {
		out[id] = a
	}
	return out
}

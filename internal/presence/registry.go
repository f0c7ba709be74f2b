package presence

import "sync"

// Entry is what the registry knows about one live connection. UserID and
// DisplayName stay empty until the client announces itself.
type Entry struct {
	UserID      string
	DisplayName string
}

// Registry maps live connection IDs to the identity behind them. It is the
// single owner of that mapping; all mutation goes through its mutex so two
// connections closing at the same time cannot corrupt the online-count
// transition the Tracker derives from it.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Entry)}
}

// Register creates an entry for a freshly opened connection.
func (r *Registry) Register(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = Entry{}
}

// Announce attaches an identity and display name to a connection. Repeated
// announces overwrite. Returns false when the connection is already torn
// down; that race is a silent no-op, never an error.
func (r *Registry) Announce(connID, userID, displayName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connID]; !ok {
		return false
	}
	r.conns[connID] = Entry{UserID: userID, DisplayName: displayName}
	return true
}

// Unregister removes a connection. Returns false if it was already removed,
// so a double teardown is a no-op the second time.
func (r *Registry) Unregister(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connID]; !ok {
		return false
	}
	delete(r.conns, connID)
	return true
}

// Snapshot returns a copy of the current connection table for presence
// derivation.
func (r *Registry) Snapshot() map[string]Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[string]Entry, len(r.conns))
	for id, e := range r.conns {
		snap[id] = e
	}
	return snap
}

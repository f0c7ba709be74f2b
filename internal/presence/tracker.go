package presence

import (
	"sync"
	"time"
)

// Change describes what a recompute did to the online set.
type Change struct {
	// Online is the full distinct-identity online set after the recompute,
	// userID -> display name.
	Online map[string]string
	// CameOnline lists identities that went from zero to at least one
	// connection; their last-seen records were cleared.
	CameOnline []string
	// WentOffline maps identities whose last connection dropped to the
	// last-seen timestamp that was recorded for them.
	WentOffline map[string]time.Time
}

// Tracker derives the distinct-identity online set from registry snapshots
// and keeps last-seen records for identities that dropped to zero
// connections. All state is process memory; a restart loses it.
type Tracker struct {
	mu       sync.RWMutex
	online   map[string]string
	lastSeen map[string]time.Time

	now func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		online:   make(map[string]string),
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Recompute rebuilds the online set from a registry snapshot. Two or more
// connections sharing one identity count as a single online identity. An
// identity transitioning to zero connections gets a last-seen record; an
// identity coming back online has its record cleared.
func (t *Tracker) Recompute(snap map[string]Entry) Change {
	next := make(map[string]string)
	for _, e := range snap {
		if e.UserID == "" {
			continue // connected but not yet announced
		}
		next[e.UserID] = e.DisplayName
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	change := Change{
		Online:      make(map[string]string, len(next)),
		WentOffline: make(map[string]time.Time),
	}

	for userID := range next {
		if _, was := t.online[userID]; !was {
			change.CameOnline = append(change.CameOnline, userID)
			delete(t.lastSeen, userID) // online overrides last-seen
		}
	}
	for userID := range t.online {
		if _, still := next[userID]; !still {
			ts := t.now()
			t.lastSeen[userID] = ts
			change.WentOffline[userID] = ts
		}
	}

	t.online = next
	for userID, name := range next {
		change.Online[userID] = name
	}
	return change
}

// IsOnline reports whether the identity has at least one live connection,
// per the last recompute. Pure query, no I/O.
func (t *Tracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[userID]
	return ok
}

// OnlineSet returns a copy of the online set, userID -> display name.
func (t *Tracker) OnlineSet() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := make(map[string]string, len(t.online))
	for id, name := range t.online {
		set[id] = name
	}
	return set
}

// LastSeen returns the recorded disconnect time for an identity, if any.
// Identities that are online or were never seen have no record.
func (t *Tracker) LastSeen(userID string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ts, ok := t.lastSeen[userID]
	return ts, ok
}

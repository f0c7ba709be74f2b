package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAnnounce(t *testing.T) {
	r := NewRegistry()
	r.Register("conn-1")

	require.True(t, r.Announce("conn-1", "user-a", "Alice"))

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, Entry{UserID: "user-a", DisplayName: "Alice"}, snap["conn-1"])
}

func TestRegistryAnnounceOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Register("conn-1")

	require.True(t, r.Announce("conn-1", "user-a", "Alice"))
	require.True(t, r.Announce("conn-1", "user-a", "Alice B"))

	snap := r.Snapshot()
	assert.Equal(t, "Alice B", snap["conn-1"].DisplayName)
}

func TestRegistryAnnounceUnknownConn(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.Announce("gone", "user-a", "Alice"))
	assert.Empty(t, r.Snapshot())
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register("conn-1")

	assert.True(t, r.Unregister("conn-1"))
	assert.False(t, r.Unregister("conn-1"))
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Register("conn-1")

	snap := r.Snapshot()
	snap["conn-2"] = Entry{}

	assert.Len(t, r.Snapshot(), 1)
}

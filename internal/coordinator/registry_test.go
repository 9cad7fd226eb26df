package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAssignsSequentialIDs(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Register("127.0.0.1", 9001))
	assert.Equal(t, 1, r.Register("127.0.0.1", 9002))
	assert.Equal(t, 2, r.Register("127.0.0.1", 9003))
	assert.Equal(t, 3, r.Len())
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Register("127.0.0.1", 9001)

	snap := r.Snapshot()
	snap[0].Port = 9999

	got, ok := r.Get(0)
	require.True(t, ok)
	assert.Equal(t, 9001, got.Port)
}

func TestRegistrySetVersion(t *testing.T) {
	r := NewRegistry()
	id := r.Register("127.0.0.1", 9001)

	r.SetVersion(id, 5)
	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, 5, got.Version)
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get(99)
	assert.False(t, ok)
}

func TestReplicaInfoAddr(t *testing.T) {
	ri := ReplicaInfo{IP: "10.0.0.1", Port: 6000}
	assert.Equal(t, "10.0.0.1:6000", ri.Addr())
}

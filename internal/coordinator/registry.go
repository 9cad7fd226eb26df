package coordinator

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
)

// ReplicaInfo is the primary's registry entry for one replica: its
// coordinator-facing address and the last version the coordinator knows it
// to hold.
type ReplicaInfo struct {
	ID      int
	IP      string
	Port    int
	Version int
}

// Addr formats the replica's coordinator-facing ip:port.
func (r ReplicaInfo) Addr() string {
	return fmt.Sprintf("%s:%d", r.IP, r.Port)
}

// Registry is the primary's replica registry. IDs are assigned sequentially
// starting at 0; capacity is unbounded and entries are never removed.
type Registry struct {
	mu       sync.RWMutex
	replicas []ReplicaInfo
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register assigns the next sequential ID to a newly-connecting replica and
// returns it.
func (r *Registry) Register(ip string, port int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := len(r.replicas)
	r.replicas = append(r.replicas, ReplicaInfo{ID: id, IP: ip, Port: port})
	return id
}

// Snapshot returns a copy of the current registry contents.
func (r *Registry) Snapshot() []ReplicaInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ReplicaInfo, len(r.replicas))
	copy(out, r.replicas)
	return out
}

// Get returns the registry entry for id, if present.
func (r *Registry) Get(id int) (ReplicaInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := slices.IndexFunc(r.replicas, func(ri ReplicaInfo) bool { return ri.ID == id })
	if idx < 0 {
		return ReplicaInfo{}, false
	}
	return r.replicas[idx], true
}

// SetVersion records the highest message id a replica is now known to hold.
func (r *Registry) SetVersion(id, version int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := slices.IndexFunc(r.replicas, func(ri ReplicaInfo) bool { return ri.ID == id })
	if idx >= 0 {
		r.replicas[idx].Version = version
	}
}

// Len returns the number of registered replicas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.replicas)
}

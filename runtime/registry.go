package runtime

import (
	"chat-hub/contract"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type Set map[string]struct{}

// Registry maps live connections to their sinks and delivery groups.
// A delivery group is named after the channel it serves.
type Registry struct {
	mu           sync.RWMutex
	Sessions     map[string]contract.EventSink // map connection -> Sink
	GroupMembers map[string]Set                // map group to connections
	memberships  map[string]Set                // map connection to groups
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions:     make(map[string]contract.EventSink),
		GroupMembers: make(map[string]Set),
		memberships:  make(map[string]Set),
	}
}

// Attach registers a new connection and returns its id.
func (r *Registry) Attach(sink contract.EventSink) string {
	connID := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sessions[connID] = sink
	r.memberships[connID] = make(Set)
	return connID
}

// Detach removes a connection from every group and returns the groups it was in.
// Groups left without connection are removed.
func (r *Registry) Detach(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.Sessions, connID)
	groups := make([]string, 0, len(r.memberships[connID]))
	for group := range r.memberships[connID] {
		groups = append(groups, group)
		r.removeFromGroup(connID, group)
	}
	delete(r.memberships, connID)
	return groups
}

// Join adds a connection to a group, creating the group on the fly.
// Unknown connections are ignored.
func (r *Registry) Join(connID, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.Sessions[connID]; !ok {
		return
	}
	if _, ok := r.GroupMembers[group]; !ok {
		r.GroupMembers[group] = make(Set)
	}
	r.GroupMembers[group][connID] = struct{}{}
	r.memberships[connID][group] = struct{}{}
}

func (r *Registry) Leave(connID, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if groups, ok := r.memberships[connID]; ok {
		delete(groups, group)
	}
	r.removeFromGroup(connID, group)
}

// GetSinksForGroup resolves the connections of a group into their sinks.
// Returns nil if the group doesn't exist.
func (r *Registry) GetSinksForGroup(group string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.GroupMembers[group]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for connID := range members {
		if sink, exists := r.Sessions[connID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Groups lists the groups a connection listens to, sorted.
func (r *Registry) Groups(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	groups := make([]string, 0, len(r.memberships[connID]))
	for group := range r.memberships[connID] {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	return groups
}

func (r *Registry) GetSink(connID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.Sessions[connID]
	return sink, ok
}

func (r *Registry) GetAllSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sinks := make([]contract.EventSink, 0, len(r.Sessions))
	for _, sink := range r.Sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Sessions)
}

// removeFromGroup must be called with the lock held.
// Empty groups are dropped to prevent memory leaks over time.
func (r *Registry) removeFromGroup(connID, group string) {
	if members, ok := r.GroupMembers[group]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.GroupMembers, group)
		}
	}
}

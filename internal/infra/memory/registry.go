package memory

import (
	"context"
	"sort"
	"sync"
)

// Registry records live client instances per participant. It is handed to
// whatever constructs clients; there is no package-level instance.
type Registry struct {
	mu        sync.RWMutex
	instances map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{instances: make(map[string]map[string]struct{})}
}

// Register adds the instance and reports whether it was already present.
func (r *Registry) Register(_ context.Context, participantID, instanceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.instances[participantID]
	if !ok {
		set = make(map[string]struct{})
		r.instances[participantID] = set
	}
	if _, ok := set[instanceID]; ok {
		return true, nil
	}
	set[instanceID] = struct{}{}
	return false, nil
}

func (r *Registry) Unregister(_ context.Context, participantID, instanceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.instances[participantID]
	if !ok {
		return nil
	}
	delete(set, instanceID)
	if len(set) == 0 {
		delete(r.instances, participantID)
	}
	return nil
}

// Instances lists the registered instance ids for a participant, sorted.
func (r *Registry) Instances(_ context.Context, participantID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.instances[participantID]))
	for id := range r.instances[participantID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

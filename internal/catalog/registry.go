package catalog

import (
	"context"
	"sync"

	"github.com/framecut/framecut/internal/timeline"
)

// Registry is the in-memory index of imported clips. It satisfies
// timeline.SourceRegistry and is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]*SourceClip
	order []string
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*SourceClip)}
}

// Load fills the registry from the repository.
func (r *Registry) Load(ctx context.Context, repo Repository) error {
	clips, err := repo.ListClips(ctx)
	if err != nil {
		return err
	}
	for _, c := range clips {
		r.Add(c)
	}
	return nil
}

// Add registers c. Adding an id twice keeps the first record.
func (r *Registry) Add(c *SourceClip) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; ok {
		return false
	}
	cp := *c
	r.byID[c.ID] = &cp
	r.order = append(r.order, c.ID)
	return true
}

func (r *Registry) Lookup(id string) (timeline.SourceClip, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return timeline.SourceClip{}, false
	}
	return c.Timeline(), true
}

func (r *Registry) Get(id string) (SourceClip, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return SourceClip{}, false
	}
	return *c, true
}

// List returns clips in the order they were added.
func (r *Registry) List() []SourceClip {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SourceClip, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

package collector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/riskon/internal/core"
)

// Registry manages price sources by name
type Registry struct {
	mu      sync.RWMutex
	sources map[string]PriceSource
}

// NewRegistry creates a new source registry
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]PriceSource),
	}
}

// Register adds a source to the registry
func (r *Registry) Register(s PriceSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Name()] = s
}

// Get retrieves a source by name
func (r *Registry) Get(name string) (PriceSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[name]
	return s, ok
}

// MustGet retrieves a source or returns a config error naming the known ones
func (r *Registry) MustGet(name string) (PriceSource, error) {
	if s, ok := r.Get(name); ok {
		return s, nil
	}
	return nil, core.WrapError(core.ErrConfigInvalid,
		fmt.Errorf("unknown price source %q (available: %v)", name, r.Names()))
}

// Names returns the registered source names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.sources))
	for name := range r.sources {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

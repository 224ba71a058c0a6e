package sourcing

import (
	"context"
	"slices"
	"sync"
)

// SearchRequest is what an adapter receives for one search
type SearchRequest struct {
	Criteria    SearchCriteria
	Limit       int
	Credentials Credentials // Decrypted
}

// Adapter performs searches against one external platform. Implementations
// absorb remote failures and degrade to fallback data; the only error that may
// leave Search is one the caller must see (for example a cancelled context).
type Adapter interface {
	Platform() Platform
	Search(ctx context.Context, req SearchRequest) ([]NormalizedCandidate, error)
}

// AdapterRegistry maps a platform to its adapter
type AdapterRegistry struct {
	mutex    sync.RWMutex
	adapters map[Platform]Adapter
}

// NewAdapterRegistry creates a registry holding the given adapters
func NewAdapterRegistry(adapters ...Adapter) *AdapterRegistry {
	r := &AdapterRegistry{adapters: make(map[Platform]Adapter)}
	for _, adapter := range adapters {
		r.Register(adapter)
	}
	return r
}

// Register adds or replaces the adapter for its platform
func (r *AdapterRegistry) Register(adapter Adapter) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.adapters[adapter.Platform()] = adapter
}

// Lookup returns the adapter for a platform or an UnsupportedPlatform error
func (r *AdapterRegistry) Lookup(platform Platform) (Adapter, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, NewUnsupportedPlatformError(platform)
	}
	return adapter, nil
}

// Supports reports whether an adapter is registered for a platform
func (r *AdapterRegistry) Supports(platform Platform) bool {
	_, err := r.Lookup(platform)
	return err == nil
}

// Platforms returns the registered platforms in sorted order
func (r *AdapterRegistry) Platforms() []Platform {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]Platform, 0, len(r.adapters))
	for platform := range r.adapters {
		out = append(out, platform)
	}
	slices.Sort(out)
	return out
}

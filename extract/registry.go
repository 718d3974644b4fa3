package extract

import (
	"sort"
	"sync"

	"github.com/propix/propix"
)

// Ensure Registry implements propix.ExtractorRegistry at compile time.
var _ propix.ExtractorRegistry = (*Registry)(nil)

// Registry holds source extractors with their configured priorities.
// Sources are selected strictly by priority order, never by runtime type
// inspection. Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]propix.RegisteredSource
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]propix.RegisteredSource)}
}

// Register adds an extractor under the given priority.
// Re-registering a name replaces the previous entry.
func (r *Registry) Register(name string, priority int, ex propix.SourceExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = propix.RegisteredSource{Name: name, Priority: priority, Extractor: ex}
}

// Get returns the extractor for a source name.
func (r *Registry) Get(name string) (propix.SourceExtractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.Extractor, true
}

// ByPriority returns all sources ordered highest priority first, ties
// broken by name for determinism.
func (r *Registry) ByPriority() []propix.RegisteredSource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]propix.RegisteredSource, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

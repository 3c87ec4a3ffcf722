package marketplace

import (
	"fmt"
	"sync"
)

// ClientConfig is the per-connection configuration handed to a factory.
type ClientConfig struct {
	ConnectionRef string
	Endpoint      string
	Credentials   map[string]string
}

// Factory builds a client for one connection.
type Factory func(cfg ClientConfig) (Client, error)

// Registry maps marketplace kinds to client factories. Business logic never
// constructs clients ad hoc; it asks the registry by kind.
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]Factory
}

// DefaultRegistry is the process-wide registry instance.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

// Register registers a factory for a kind. Re-registering replaces the
// previous factory, which keeps tests free to install fakes.
func (r *Registry) Register(kind Kind, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// New builds a client for the given kind and connection config.
func (r *Registry) New(kind Kind, cfg ClientConfig) (Client, error) {
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no marketplace client registered for kind %q", kind)
	}
	return f(cfg)
}

// Kinds returns the registered kinds.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	return kinds
}

// Register registers a factory on the default registry.
func Register(kind Kind, f Factory) {
	DefaultRegistry.Register(kind, f)
}

// New builds a client from the default registry.
func New(kind Kind, cfg ClientConfig) (Client, error) {
	return DefaultRegistry.New(kind, cfg)
}

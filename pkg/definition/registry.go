package definition

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-jsonform/pkg/form"
)

// ErrNotFound is returned by Get for unknown definition names.
var ErrNotFound = errors.New("definition: not found")

// Registry stores definitions by name and rejects duplicates.
type Registry struct {
	mu    sync.RWMutex
	forms map[string]*form.Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]*form.Definition)}
}

// Register adds def under its Name().
func (r *Registry) Register(def *form.Definition) error {
	if def == nil {
		return errors.New("definition: definition is required")
	}
	name := def.Name()
	if name == "" {
		return errors.New("definition: definition name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.forms[name]; exists {
		return fmt.Errorf("definition: %q already registered", name)
	}
	r.forms[name] = def
	return nil
}

// RegisterAll registers every definition, stopping at the first failure.
func (r *Registry) RegisterAll(defs ...*form.Definition) error {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(def *form.Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get retrieves a definition by name.
func (r *Registry) Get(name string) (*form.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.forms[name]
	if !ok {
		return nil, fmt.Errorf("definition %q: %w", name, ErrNotFound)
	}
	return def, nil
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.forms))
	for name := range r.forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.forms[name]
	return ok
}

// Package registry resolves toolset names to implementations. Toolsets
// are registered explicitly at startup; there is no filesystem scanning or
// dynamic loading.
package registry

import (
	"fmt"
	"strings"

	"github.com/vk/metabake/internal/diag"
	"github.com/vk/metabake/internal/toolset"
)

// Registry holds the known toolsets. The zero value is not usable; create
// one with New or Builtin.
type Registry struct {
	byName map[string]toolset.Toolset
	order  []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: map[string]toolset.Toolset{}}
}

// Builtin creates a registry with the built-in toolsets registered.
func Builtin() *Registry {
	r := New()
	r.Register(toolset.Gnu{})
	r.Register(toolset.Vsproj{})
	return r
}

// Register adds a toolset. Registering the same name twice is a
// programming error.
func (r *Registry) Register(ts toolset.Toolset) {
	name := ts.Name()
	if _, ok := r.byName[name]; ok {
		panic(fmt.Sprintf("registry: toolset %q registered twice", name))
	}
	r.byName[name] = ts
	r.order = append(r.order, name)
}

// Get returns the named toolset. Unknown names are fatal errors listing
// what is available.
func (r *Registry) Get(name string) (toolset.Toolset, error) {
	ts, ok := r.byName[name]
	if !ok {
		return nil, diag.Errorf(nil, "unknown toolset %q (supported: %s)", name, strings.Join(r.order, ", "))
	}
	return ts, nil
}

// Names returns the registered toolset names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

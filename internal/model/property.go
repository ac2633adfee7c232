package model

import "github.com/vk/metabake/internal/expr"

// Property describes a known setting with a computed default, used when a
// scope resolves a name that was never explicitly assigned.
type Property struct {
	Name string

	// Kind is the scope level the property is defined at.
	Kind ScopeKind

	// Inheritable properties are also visible from scopes nested below
	// their Kind.
	Inheritable bool

	// Readonly properties reject explicit assignment in input files.
	Readonly bool

	// Default computes the value when the property was not set. The part
	// passed in is the scope the lookup happened at. A nil Default means
	// the property defaults to null.
	Default func(p *Part) expr.Expr
}

// PropertyRegistry holds the property definitions of one project. The
// registry itself is immutable after setup, so clones share it.
type PropertyRegistry struct {
	props map[string]*Property
	order []string
}

// NewPropertyRegistry creates an empty registry.
func NewPropertyRegistry() *PropertyRegistry {
	return &PropertyRegistry{props: map[string]*Property{}}
}

// Register adds a property definition. Registering the same name twice
// replaces the earlier definition.
func (r *PropertyRegistry) Register(p *Property) {
	if _, ok := r.props[p.Name]; !ok {
		r.order = append(r.order, p.Name)
	}
	r.props[p.Name] = p
}

// Lookup returns the property definition for name, or nil.
func (r *PropertyRegistry) Lookup(name string) *Property { return r.props[name] }

// All returns the registered properties in registration order.
func (r *PropertyRegistry) All() []*Property {
	out := make([]*Property, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.props[name])
	}
	return out
}

// DefaultFor returns the default value of name as seen from part, or nil
// when no applicable property exists.
func (r *PropertyRegistry) DefaultFor(part *Part, name string) expr.Expr {
	p := r.props[name]
	if p == nil {
		return nil
	}
	if p.Kind != part.kind && !(p.Inheritable && p.Kind < part.kind) {
		return nil
	}
	if p.Default == nil {
		return expr.NewNull(nil)
	}
	return p.Default(part)
}

package model

import (
	"github.com/vk/metabake/internal/diag"
	"github.com/vk/metabake/internal/expr"
)

// ScopeKind identifies the level of a model part. Deeper scopes have
// larger values, which is what property inheritance checks rely on.
type ScopeKind int

const (
	KindProject ScopeKind = iota
	KindModule
	KindTarget
	KindFile
)

func (k ScopeKind) String() string {
	switch k {
	case KindProject:
		return "project"
	case KindModule:
		return "module"
	case KindTarget:
		return "target"
	case KindFile:
		return "file"
	}
	return "unknown"
}

// Part is the common scope behavior embedded by Project, Module, Target and
// SourceFile: an insertion-ordered variable map with lexical lookup walking
// outward, plus the conditional variables attached at this level.
//
// References must be created with the concrete embedding struct as their
// scope, not with the embedded Part, so that clone remapping can match them.
type Part struct {
	vars     map[string]*Variable
	order    []string
	condVars []*CondVar

	kind    ScopeKind
	parent  *Part
	project *Project
}

func newPart(kind ScopeKind, parent *Part, project *Project) Part {
	return Part{
		vars:    map[string]*Variable{},
		kind:    kind,
		parent:  parent,
		project: project,
	}
}

// Kind returns the scope level of this part.
func (p *Part) Kind() ScopeKind { return p.kind }

// AddVariable adds v to this scope. Assigning a name that already exists
// replaces the previous variable while keeping its original position in the
// insertion order.
func (p *Part) AddVariable(v *Variable) {
	if _, ok := p.vars[v.Name]; !ok {
		p.order = append(p.order, v.Name)
	}
	p.vars[v.Name] = v
}

// Var returns the variable defined directly in this scope, or nil. It does
// not consult enclosing scopes; use ResolveVar for lexical lookup.
func (p *Part) Var(name string) *Variable { return p.vars[name] }

// Vars returns this scope's own variables in insertion order.
func (p *Part) Vars() []*Variable {
	out := make([]*Variable, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.vars[name])
	}
	return out
}

// AddCondVar attaches a conditional variable record to this scope.
func (p *Part) AddCondVar(cv *CondVar) { p.condVars = append(p.condVars, cv) }

// CondVars returns the conditional variables attached to this scope.
func (p *Part) CondVars() []*CondVar { return p.condVars }

// lookup walks from this scope outward. Property variables defined in an
// enclosing scope are only visible here when marked inheritable; plain user
// variables always are.
func (p *Part) lookup(name string) *Variable {
	for s := p; s != nil; s = s.parent {
		v, ok := s.vars[name]
		if !ok {
			continue
		}
		if s != p && v.Property && !v.Inheritable {
			continue
		}
		return v
	}
	return nil
}

// ValueOf resolves name lexically and returns its value, falling back to a
// registered property default when the name was never explicitly set.
// Implements expr.Scope.
func (p *Part) ValueOf(name string) (expr.Expr, error) {
	if v := p.lookup(name); v != nil {
		return v.Value(), nil
	}
	if p.project != nil {
		if e := p.project.Props.DefaultFor(p, name); e != nil {
			return e, nil
		}
	}
	return nil, diag.NewUnresolvedReferenceError(name, nil)
}

// ResolveVar returns the variable name resolves to, or nil when it only
// maps to a property default or does not exist. Implements expr.Scope.
func (p *Part) ResolveVar(name string) expr.Var {
	if v := p.lookup(name); v != nil {
		return v
	}
	return nil
}

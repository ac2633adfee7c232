package model

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabake/internal/expr"
)

// Project is the root of the model and the outermost scope. It owns its
// modules; the first module added is the top module.
type Project struct {
	Part

	// Props holds the property definitions shared by all scopes of this
	// project. Clones share the registry, it is immutable after setup.
	Props *PropertyRegistry

	// Configs is the full configuration matrix, populated by the
	// flattener on toolsets that need it, in cartesian product order.
	Configs []*Configuration

	modules []*Module
}

// NewProject creates an empty project with an empty property registry.
func NewProject() *Project {
	p := &Project{Props: NewPropertyRegistry()}
	p.Part = newPart(KindProject, nil, nil)
	p.project = p
	return p
}

// AddModule creates a module inside the project. A nil parent makes the
// project the enclosing scope; otherwise the module is a submodule of
// parent. Modules are kept in inclusion order, the top module first.
func (p *Project) AddModule(name, file string, parent *Module) *Module {
	parentPart := &p.Part
	if parent != nil {
		parentPart = &parent.Part
	}
	m := &Module{Name: name, File: file, Project: p, Parent: parent}
	m.Part = newPart(KindModule, parentPart, p)
	if parent != nil {
		parent.Submodules = append(parent.Submodules, m)
	}
	p.modules = append(p.modules, m)
	return m
}

// Modules returns all modules in inclusion order.
func (p *Project) Modules() []*Module { return p.modules }

// TopModule returns the first module added, or nil for an empty project.
func (p *Project) TopModule() *Module {
	if len(p.modules) == 0 {
		return nil
	}
	return p.modules[0]
}

// Targets returns every target of every module, in model order.
func (p *Project) Targets() []*Target {
	var out []*Target
	for _, m := range p.modules {
		out = append(out, m.targets...)
	}
	return out
}

// Options returns every option in declaration order across all modules.
func (p *Project) Options() []*Option {
	var out []*Option
	for _, m := range p.modules {
		out = append(out, m.options...)
	}
	return out
}

// Option returns the named option, or nil.
func (p *Project) Option(name string) *Option {
	for _, m := range p.modules {
		for _, o := range m.options {
			if o.Name == name {
				return o
			}
		}
	}
	return nil
}

// RewriteExprs applies fn through expr.Rewrite to every expression held in
// the model: variable values, conditional variable alternatives, target
// conditions and source file names. Values are replaced atomically; nodes
// fn leaves untouched keep their identity.
func (p *Project) RewriteExprs(fn expr.RewriteFunc) error {
	if err := rewritePart(&p.Part, fn); err != nil {
		return err
	}
	for _, m := range p.modules {
		if err := rewritePart(&m.Part, fn); err != nil {
			return err
		}
		for _, t := range m.targets {
			if err := rewritePart(&t.Part, fn); err != nil {
				return err
			}
			if t.Condition != nil {
				cond, err := expr.Rewrite(t.Condition, fn)
				if err != nil {
					return err
				}
				t.Condition = cond
			}
			for _, sf := range t.sources {
				name, err := expr.Rewrite(sf.Name, fn)
				if err != nil {
					return err
				}
				sf.Name = name
				if err := rewritePart(&sf.Part, fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func rewritePart(p *Part, fn expr.RewriteFunc) error {
	for _, name := range p.order {
		v := p.vars[name]
		out, err := expr.Rewrite(v.Value(), fn)
		if err != nil {
			return err
		}
		v.setValueForced(out)
	}
	for _, cv := range p.condVars {
		for i := range cv.Cases {
			out, err := expr.Rewrite(cv.Cases[i].Value, fn)
			if err != nil {
				return err
			}
			cv.Cases[i].Value = out
		}
	}
	return nil
}

// Module is one input file's worth of model, the middle scope level.
// Submodules nest lexically below their including module.
type Module struct {
	Part

	Name string
	// File is the path of the input file the module came from.
	File string

	Project    *Project
	Parent     *Module
	Submodules []*Module

	targets []*Target
	options []*Option
}

// AddTarget creates a target in this module.
func (m *Module) AddTarget(typ, name string, pos *hcl.Range) *Target {
	t := &Target{Type: typ, Name: name, Module: m, Pos: pos}
	t.Part = newPart(KindTarget, &m.Part, m.Project)
	m.targets = append(m.targets, t)
	return t
}

// Target returns the named target defined in this module, or nil.
func (m *Module) Target(name string) *Target {
	for _, t := range m.targets {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Targets returns the module's targets in declaration order.
func (m *Module) Targets() []*Target { return m.targets }

// AddOption records an option declaration.
func (m *Module) AddOption(o *Option) { m.options = append(m.options, o) }

// Options returns the module's options in declaration order.
func (m *Module) Options() []*Option { return m.options }

// Target is a buildable artifact: an executable, a library, and so on.
type Target struct {
	Part

	Type string
	Name string

	Module *Module

	// Condition decides whether the target exists at all. Nil means
	// unconditional; a target is only dropped when the condition
	// evaluates to the false constant.
	Condition expr.Expr

	// Configs holds the per-configuration resolved variable snapshots,
	// populated by the flattener, in project configuration order.
	Configs []*TargetConfig

	// DistinctConfigs maps each full configuration name to the reduced
	// display name with no-effect options removed.
	DistinctConfigs map[string]string

	Pos *hcl.Range

	sources []*SourceFile
}

// AddSource appends a source file with the given name expression.
func (t *Target) AddSource(name expr.Expr, pos *hcl.Range) *SourceFile {
	sf := &SourceFile{Name: name, Target: t, Pos: pos}
	sf.Part = newPart(KindFile, &t.Part, t.Module.Project)
	t.sources = append(t.sources, sf)
	return sf
}

// Sources returns the target's source files in declaration order.
func (t *Target) Sources() []*SourceFile { return t.sources }

// SourceFile is one source file of a target. It is a scope of its own so
// per-file variables (compile flags and the like) have somewhere to live.
type SourceFile struct {
	Part

	// Name is the file name expression, typically a path.
	Name expr.Expr

	Target *Target
	Pos    *hcl.Range
}

// Configuration is a concrete assignment of every enumerable option to one
// of its values, produced by the flattener.
type Configuration struct {
	// Name joins the value labels of every option in declaration order,
	// or "Default" when there are no options.
	Name string

	// Values maps option name to the chosen value.
	Values map[string]string
}

// TargetConfig is one target's resolved state under one configuration.
type TargetConfig struct {
	Name   string
	Values map[string]string
	Vars   map[string]string
}

package model

import "github.com/vk/metabake/internal/expr"

// Clone returns an independent deep copy of the project. Per-toolset
// specialization works on clones so that passes can mutate freely without
// affecting other toolsets. References inside the copied expressions are
// remapped to point at the cloned scopes; the expressions themselves are
// immutable and shared until a pass replaces them.
func (p *Project) Clone() *Project {
	c := &cloner{scopes: map[expr.Scope]expr.Scope{}}
	np := c.cloneProject(p)
	// remapRef cannot fail, the error is structurally nil.
	_ = np.RewriteExprs(c.remapRef)
	return np
}

type cloner struct {
	scopes map[expr.Scope]expr.Scope
}

func (c *cloner) cloneProject(p *Project) *Project {
	np := &Project{Props: p.Props}
	np.Part = newPart(KindProject, nil, nil)
	np.project = np
	c.copyPart(&np.Part, &p.Part)
	c.scopes[p] = np

	// Modules are stored in inclusion order, so a parent always precedes
	// its submodules and is already in the scope map when they are cloned.
	for _, m := range p.modules {
		var parent *Module
		if m.Parent != nil {
			parent = c.scopes[m.Parent].(*Module)
		}
		nm := np.AddModule(m.Name, m.File, parent)
		c.copyPart(&nm.Part, &m.Part)
		c.scopes[m] = nm

		// Option declarations are immutable, clones share them.
		nm.options = append(nm.options, m.options...)

		for _, t := range m.targets {
			nt := nm.AddTarget(t.Type, t.Name, t.Pos)
			nt.Condition = t.Condition
			c.copyPart(&nt.Part, &t.Part)
			c.scopes[t] = nt
			for _, sf := range t.sources {
				nsf := nt.AddSource(sf.Name, sf.Pos)
				c.copyPart(&nsf.Part, &sf.Part)
				c.scopes[sf] = nsf
			}
		}
	}
	return np
}

func (c *cloner) copyPart(dst, src *Part) {
	for _, name := range src.order {
		v := src.vars[name]
		dst.AddVariable(&Variable{
			Name:        v.Name,
			Readonly:    v.Readonly,
			Inheritable: v.Inheritable,
			Property:    v.Property,
			value:       v.value,
			pos:         v.pos,
		})
	}
	for _, cv := range src.condVars {
		dst.AddCondVar(&CondVar{
			Name:  cv.Name,
			Cases: append([]CondVarCase(nil), cv.Cases...),
			Pos:   cv.Pos,
		})
	}
}

func (c *cloner) remapRef(e expr.Expr) (expr.Expr, error) {
	r, ok := e.(*expr.Reference)
	if !ok {
		return e, nil
	}
	ns, ok := c.scopes[r.Scope]
	if !ok {
		return e, nil
	}
	return expr.NewReference(r.Var, ns, r.Pos()), nil
}

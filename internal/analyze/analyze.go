// Package analyze validates the variable graph before finalization: it
// detects definition cycles and references to variables that do not exist,
// and warns about variables nothing refers to.
package analyze

import (
	"context"
	"regexp"

	"github.com/vk/metabake/internal/diag"
	"github.com/vk/metabake/internal/expr"
	"github.com/vk/metabake/internal/model"
)

// SelfReferences walks every expression in the model and fails on the
// first variable whose definition cycles back to itself, or on the first
// reference that cannot be resolved. Fully checked variables are memoized
// so the traversal is linear in the number of reference edges.
func SelfReferences(p *model.Project) error {
	c := &refChecker{
		checked: map[*model.Variable]bool{},
		onStack: map[*model.Variable]bool{},
	}
	return eachScope(p, func(s scopeRef) error {
		for _, v := range s.part.Vars() {
			if err := c.check(v); err != nil {
				return err
			}
		}
		for _, cv := range s.part.CondVars() {
			for _, cs := range cv.Cases {
				if err := expr.Walk(cs.Value, c); err != nil {
					return err
				}
			}
		}
		if s.target != nil && s.target.Condition != nil {
			if err := expr.Walk(s.target.Condition, c); err != nil {
				return err
			}
		}
		if s.source != nil {
			if err := expr.Walk(s.source.Name, c); err != nil {
				return err
			}
		}
		return nil
	})
}

type refChecker struct {
	checked map[*model.Variable]bool
	onStack map[*model.Variable]bool
}

func (c *refChecker) check(v *model.Variable) error {
	if c.checked[v] {
		return nil
	}
	if c.onStack[v] {
		return diag.NewSelfReferenceError(v.Name, v.Pos())
	}
	c.onStack[v] = true
	err := expr.Walk(v.Value(), c)
	delete(c.onStack, v)
	if err != nil {
		return err
	}
	c.checked[v] = true
	return nil
}

func (c *refChecker) VisitReference(e *expr.Reference) error {
	if v, ok := e.Variable().(*model.Variable); ok && v != nil {
		return c.check(v)
	}
	// The name may still resolve through a property default; walking the
	// default catches references inside it and surfaces unresolved names.
	val, err := e.Value()
	if err != nil {
		return diag.WithPos(err, e.Pos())
	}
	return expr.Walk(val, c)
}

func (c *refChecker) VisitNull(*expr.Null) error             { return nil }
func (c *refChecker) VisitLiteral(*expr.Literal) error       { return nil }
func (c *refChecker) VisitBoolValue(*expr.BoolValue) error   { return nil }
func (c *refChecker) VisitPlaceholder(*expr.Placeholder) error { return nil }
func (c *refChecker) VisitList(e *expr.List) error           { return expr.WalkChildren(e, c) }
func (c *refChecker) VisitConcat(e *expr.Concat) error       { return expr.WalkChildren(e, c) }
func (c *refChecker) VisitPath(e *expr.Path) error           { return expr.WalkChildren(e, c) }
func (c *refChecker) VisitBool(e *expr.Bool) error           { return expr.WalkChildren(e, c) }
func (c *refChecker) VisitIf(e *expr.If) error               { return expr.WalkChildren(e, c) }

// Variable names that are read by toolsets or the pipeline itself rather
// than by other variables, so the unused check must not flag them.
var usedByToolsets = []*regexp.Regexp{
	regexp.MustCompile(`^toolsets$`),
	regexp.MustCompile(`^configurations$`),
	regexp.MustCompile(`^vs[0-9]+\.option\.`),
}

// UnusedVariables warns about top-level variables nothing references.
// Property variables, option and conditional-variable markers and names on
// the toolset allow-list are exempt. Warnings never abort the run.
func UnusedVariables(ctx context.Context, p *model.Project, warns *diag.Warnings) {
	used := map[expr.Var]struct{}{}
	collector := &usageCollector{used: used}
	// Collection errors are impossible, the visitor only records.
	_ = eachScope(p, func(s scopeRef) error {
		for _, v := range s.part.Vars() {
			_ = expr.Walk(v.Value(), collector)
		}
		for _, cv := range s.part.CondVars() {
			for _, cs := range cv.Cases {
				_ = expr.Walk(cs.Value, collector)
			}
		}
		if s.target != nil && s.target.Condition != nil {
			_ = expr.Walk(s.target.Condition, collector)
		}
		if s.source != nil {
			_ = expr.Walk(s.source.Name, collector)
		}
		return nil
	})

	check := func(part *model.Part) {
		for _, v := range part.Vars() {
			if v.Property || isMarker(v) {
				continue
			}
			if _, ok := used[expr.Var(v)]; ok {
				continue
			}
			if allowListed(v.Name) {
				continue
			}
			warns.Add(ctx, diag.WarnUnusedVariable, v.Pos(), "variable %q is defined but never used", v.Name)
		}
	}
	check(&p.Part)
	for _, m := range p.Modules() {
		check(&m.Part)
	}
}

func allowListed(name string) bool {
	for _, re := range usedByToolsets {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// isMarker reports whether the variable is the placeholder marker of an
// option or conditional variable; those are consumed by the flattener, not
// by references.
func isMarker(v *model.Variable) bool {
	ph, ok := v.Value().(*expr.Placeholder)
	return ok && ph.Var == v.Name
}

type usageCollector struct {
	used map[expr.Var]struct{}
}

func (u *usageCollector) VisitReference(e *expr.Reference) error {
	if v := e.Variable(); v != nil {
		u.used[v] = struct{}{}
	}
	return nil
}

func (u *usageCollector) VisitNull(*expr.Null) error             { return nil }
func (u *usageCollector) VisitLiteral(*expr.Literal) error       { return nil }
func (u *usageCollector) VisitBoolValue(*expr.BoolValue) error   { return nil }
func (u *usageCollector) VisitPlaceholder(*expr.Placeholder) error { return nil }
func (u *usageCollector) VisitList(e *expr.List) error           { return expr.WalkChildren(e, u) }
func (u *usageCollector) VisitConcat(e *expr.Concat) error       { return expr.WalkChildren(e, u) }
func (u *usageCollector) VisitPath(e *expr.Path) error           { return expr.WalkChildren(e, u) }
func (u *usageCollector) VisitBool(e *expr.Bool) error           { return expr.WalkChildren(e, u) }
func (u *usageCollector) VisitIf(e *expr.If) error               { return expr.WalkChildren(e, u) }

// scopeRef is one scope with enough context to reach its extra
// expressions (target conditions, source names).
type scopeRef struct {
	part   *model.Part
	target *model.Target
	source *model.SourceFile
}

func eachScope(p *model.Project, fn func(scopeRef) error) error {
	if err := fn(scopeRef{part: &p.Part}); err != nil {
		return err
	}
	for _, m := range p.Modules() {
		if err := fn(scopeRef{part: &m.Part}); err != nil {
			return err
		}
		for _, t := range m.Targets() {
			if err := fn(scopeRef{part: &t.Part, target: t}); err != nil {
				return err
			}
			for _, sf := range t.Sources() {
				if err := fn(scopeRef{part: &sf.Part, source: sf}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

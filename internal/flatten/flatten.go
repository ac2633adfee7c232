// Package flatten expands the conditional model into an explicit matrix of
// named configurations, for output formats that have no conditional syntax
// of their own. Each configuration is a concrete assignment of every
// enumerable option; per configuration, every conditional variable is
// resolved and every target variable evaluated to a plain string.
package flatten

import (
	"context"
	"maps"
	"strings"

	"github.com/vk/metabake/internal/ctxlog"
	"github.com/vk/metabake/internal/diag"
	"github.com/vk/metabake/internal/expr"
	"github.com/vk/metabake/internal/model"
)

// Flatten computes the configuration matrix of p and attaches it to the
// project and its targets. The project is expected to be specialized for a
// toolset already; p itself is not otherwise modified, each candidate
// configuration is evaluated on a transient clone.
func Flatten(ctx context.Context, p *model.Project) error {
	enumerable, fixed, err := splitOptions(p)
	if err != nil {
		return err
	}
	candidates := enumerate(enumerable, fixed)
	ctxlog.FromContext(ctx).Debug("flattening",
		"options", len(enumerable), "configurations", len(candidates))

	origTargets := p.Targets()
	for _, values := range candidates {
		name := configName(enumerable, values)
		p.Configs = append(p.Configs, &model.Configuration{Name: name, Values: values})

		c := p.Clone()
		if err := bind(c, values); err != nil {
			return err
		}
		if err := Resimplify(c); err != nil {
			return err
		}

		for i, ct := range c.Targets() {
			keep, err := targetIncluded(ct)
			if err != nil {
				return err
			}
			if !keep {
				continue
			}
			vars, err := snapshotVars(ct)
			if err != nil {
				return err
			}
			origTargets[i].Configs = append(origTargets[i].Configs, &model.TargetConfig{
				Name:   name,
				Values: values,
				Vars:   vars,
			})
		}
	}

	for _, t := range origTargets {
		reduceDistinct(t, enumerable)
	}
	return nil
}

// splitOptions separates enumerable options from fixed ones. A fixed
// option with no default cannot be flattened, which is fatal.
func splitOptions(p *model.Project) (enumerable []*model.Option, fixed map[string]string, err error) {
	fixed = map[string]string{}
	for _, o := range p.Options() {
		if len(o.Values) > 0 {
			enumerable = append(enumerable, o)
			continue
		}
		if !o.HasDefault {
			return nil, nil, diag.NewFlattenError(o.Pos,
				"cannot flatten: option %q has no default value and no finite set of values", o.Name)
		}
		fixed[o.Name] = o.Default
	}
	return enumerable, fixed, nil
}

// enumerate computes the cartesian product of the enumerable options'
// values, in option declaration order. With no enumerable options there is
// exactly one candidate holding just the fixed values.
func enumerate(enumerable []*model.Option, fixed map[string]string) []map[string]string {
	candidates := []map[string]string{maps.Clone(fixed)}
	for _, o := range enumerable {
		next := make([]map[string]string, 0, len(candidates)*len(o.Values))
		for _, base := range candidates {
			for _, v := range o.Values {
				m := maps.Clone(base)
				m[o.Name] = v
				next = append(next, m)
			}
		}
		candidates = next
	}
	return candidates
}

// configName joins the labels of the chosen values in option declaration
// order. Empty labels are skipped; no labels at all means "Default".
func configName(opts []*model.Option, values map[string]string) string {
	var parts []string
	for _, o := range opts {
		if label := o.Label(values[o.Name]); label != "" {
			parts = append(parts, label)
		}
	}
	if len(parts) == 0 {
		return "Default"
	}
	return strings.Join(parts, " ")
}

// bind fixes the option values and resolves conditional variables on a
// transient clone. Only placeholder markers are overwritten, so explicit
// reassignments of an option name stay intact.
func bind(c *model.Project, values map[string]string) error {
	for _, m := range c.Modules() {
		for name, value := range values {
			if v := m.Var(name); v != nil && isMarker(v, name) {
				if err := v.SetValue(expr.NewLiteral(value, v.Pos())); err != nil {
					return err
				}
			}
		}
	}
	return eachPart(c, func(part *model.Part) error {
		for _, cv := range part.CondVars() {
			if v := part.Var(cv.Name); v != nil && isMarker(v, cv.Name) {
				if err := v.SetValue(cv.Resolve(values)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func isMarker(v *model.Variable, name string) bool {
	ph, ok := v.Value().(*expr.Placeholder)
	return ok && ph.Var == name
}

// Resimplify runs the simplifier over the whole model until it reaches a
// fixed point. Folding one conditional can unlock further inlining, so a
// single bottom-up pass is not always enough.
func Resimplify(c *model.Project) error {
	for {
		changed := false
		err := c.RewriteExprs(func(e expr.Expr) (expr.Expr, error) {
			out, err := expr.SimplifyRule(e)
			if err != nil {
				return nil, err
			}
			if out != e {
				changed = true
			}
			return out, nil
		})
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
	}
}

// targetIncluded evaluates the target's condition under the bound clone. A
// target is only excluded when its condition is constant false; anything
// still undecidable keeps the target.
func targetIncluded(t *model.Target) (bool, error) {
	if t.Condition == nil {
		return true, nil
	}
	v, err := expr.Truthy(t.Condition)
	if err != nil {
		if expr.IsNonConst(err) {
			return true, nil
		}
		return false, err
	}
	return v, nil
}

// snapshotVars evaluates the target's own variables to plain strings.
// Anything still non-constant is kept in symbolic form.
func snapshotVars(t *model.Target) (map[string]string, error) {
	out := map[string]string{}
	for _, v := range t.Vars() {
		cv, err := expr.AsConst(v.Value())
		if err != nil {
			if expr.IsNonConst(err) {
				out[v.Name] = v.Value().String()
				continue
			}
			return nil, err
		}
		out[v.Name] = expr.FormatConst(cv)
	}
	return out, nil
}

// reduceDistinct computes the target's distinct-configuration names:
// options with no observable effect on this target's resolved variables
// are dropped from its display names, except options the target's own
// condition depends on. The project-level matrix is unaffected.
func reduceDistinct(t *model.Target, enumerable []*model.Option) {
	if len(t.Configs) == 0 {
		return
	}
	protected := conditionOptions(t, enumerable)

	kept := make([]*model.Option, 0, len(enumerable))
	kept = append(kept, enumerable...)
	for _, o := range enumerable {
		if protected[o.Name] {
			continue
		}
		trial := without(kept, o)
		if collapses(t.Configs, trial) {
			kept = trial
		}
	}

	t.DistinctConfigs = map[string]string{}
	for _, c := range t.Configs {
		t.DistinctConfigs[c.Name] = configName(kept, c.Values)
	}
}

// collapses reports whether keying the target's configurations by only the
// kept options never makes two different variable snapshots collide.
func collapses(configs []*model.TargetConfig, kept []*model.Option) bool {
	groups := map[string]*model.TargetConfig{}
	for _, c := range configs {
		var key strings.Builder
		for _, o := range kept {
			key.WriteString(c.Values[o.Name])
			key.WriteByte(0)
		}
		if prev, ok := groups[key.String()]; ok {
			if !maps.Equal(prev.Vars, c.Vars) {
				return false
			}
			continue
		}
		groups[key.String()] = c
	}
	return true
}

func without(opts []*model.Option, drop *model.Option) []*model.Option {
	out := make([]*model.Option, 0, len(opts))
	for _, o := range opts {
		if o != drop {
			out = append(out, o)
		}
	}
	return out
}

// conditionOptions collects the options the target's condition refers to.
// They always stay visible in the target's configuration names, since they
// decided its inclusion.
func conditionOptions(t *model.Target, enumerable []*model.Option) map[string]bool {
	out := map[string]bool{}
	if t.Condition == nil {
		return out
	}
	byName := map[string]bool{}
	for _, o := range enumerable {
		byName[o.Name] = true
	}
	names := &nameCollector{names: map[string]bool{}}
	_ = expr.Walk(t.Condition, names)
	for name := range names.names {
		if byName[name] {
			out[name] = true
		}
	}
	return out
}

type nameCollector struct {
	names map[string]bool
}

func (c *nameCollector) VisitReference(e *expr.Reference) error {
	c.names[e.Var] = true
	return nil
}

func (c *nameCollector) VisitPlaceholder(e *expr.Placeholder) error {
	c.names[e.Var] = true
	return nil
}

func (c *nameCollector) VisitNull(*expr.Null) error           { return nil }
func (c *nameCollector) VisitLiteral(*expr.Literal) error     { return nil }
func (c *nameCollector) VisitBoolValue(*expr.BoolValue) error { return nil }
func (c *nameCollector) VisitList(e *expr.List) error         { return expr.WalkChildren(e, c) }
func (c *nameCollector) VisitConcat(e *expr.Concat) error     { return expr.WalkChildren(e, c) }
func (c *nameCollector) VisitPath(e *expr.Path) error         { return expr.WalkChildren(e, c) }
func (c *nameCollector) VisitBool(e *expr.Bool) error         { return expr.WalkChildren(e, c) }
func (c *nameCollector) VisitIf(e *expr.If) error             { return expr.WalkChildren(e, c) }

func eachPart(p *model.Project, fn func(*model.Part) error) error {
	if err := fn(&p.Part); err != nil {
		return err
	}
	for _, m := range p.Modules() {
		if err := fn(&m.Part); err != nil {
			return err
		}
		for _, t := range m.Targets() {
			if err := fn(&t.Part); err != nil {
				return err
			}
			for _, sf := range t.Sources() {
				if err := fn(&sf.Part); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Package paths normalizes anchored path expressions. Source-relative
// anchors are rewritten in terms of the top source directory; build
// directory anchors are resolved per toolset, because where a target
// builds depends on the output format.
package paths

import (
	"path/filepath"
	"strings"

	"github.com/vk/metabake/internal/diag"
	"github.com/vk/metabake/internal/expr"
	"github.com/vk/metabake/internal/model"
)

// BuilddirResolver supplies the toolset-specific build directory of a
// target. The returned path's anchor must already be normalized, i.e. not
// @srcdir or @builddir.
type BuilddirResolver interface {
	BuilddirFor(t *model.Target) *expr.Path
}

// Normalizer rewrites path anchors across one project. A nil resolver
// means generic pre-toolset normalization: @srcdir is resolved, @builddir
// is left for the toolset-aware run. Normalizing an already normalized
// model is a no-op, so the toolset-aware run can safely repeat the pass.
type Normalizer struct {
	project  *model.Project
	resolver BuilddirResolver

	topdir     string
	prefixMemo map[string][]string
}

// NewNormalizer creates a normalizer for the project. The top module's
// directory is the root all source paths become relative to.
func NewNormalizer(p *model.Project, r BuilddirResolver) *Normalizer {
	topdir := ""
	if top := p.TopModule(); top != nil {
		topdir = filepath.Dir(top.File)
	}
	return &Normalizer{
		project:    p,
		resolver:   r,
		topdir:     topdir,
		prefixMemo: map[string][]string{},
	}
}

// Normalize rewrites every path expression in the model.
func (n *Normalizer) Normalize() error {
	p := n.project
	if err := n.applyPart(&p.Part, nil); err != nil {
		return err
	}
	for _, m := range p.Modules() {
		if err := n.applyPart(&m.Part, nil); err != nil {
			return err
		}
		for _, t := range m.Targets() {
			if err := n.applyPart(&t.Part, t); err != nil {
				return err
			}
			if t.Condition != nil {
				cond, err := expr.Rewrite(t.Condition, n.ruleFor(t))
				if err != nil {
					return err
				}
				t.Condition = cond
			}
			for _, sf := range t.Sources() {
				name, err := expr.Rewrite(sf.Name, n.ruleFor(t))
				if err != nil {
					return err
				}
				sf.Name = name
				if err := n.applyPart(&sf.Part, t); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (n *Normalizer) applyPart(part *model.Part, tgt *model.Target) error {
	fn := n.ruleFor(tgt)
	for _, v := range part.Vars() {
		out, err := expr.Rewrite(v.Value(), fn)
		if err != nil {
			return err
		}
		if out != v.Value() {
			if err := v.SetValue(out); err != nil {
				return diag.Errorf(v.Pos(), "cannot normalize %q: %v", v.Name, err)
			}
		}
	}
	for _, cv := range part.CondVars() {
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

func (n *Normalizer) ruleFor(tgt *model.Target) expr.RewriteFunc {
	return func(e expr.Expr) (expr.Expr, error) {
		p, ok := e.(*expr.Path)
		if !ok {
			return e, nil
		}
		return n.rewritePath(p, tgt)
	}
}

func (n *Normalizer) rewritePath(p *expr.Path, tgt *model.Target) (expr.Expr, error) {
	switch p.Anchor {
	case expr.AnchorSrcdir:
		prefix, err := n.srcPrefix(p.AnchorFile, p)
		if err != nil {
			return nil, err
		}
		comps := make([]expr.Expr, 0, len(prefix)+len(p.Components))
		for _, c := range prefix {
			comps = append(comps, expr.NewLiteral(c, p.Pos()))
		}
		comps = append(comps, p.Components...)
		return expr.NewPath(comps, expr.AnchorTopSrcdir, p.AnchorFile, p.Pos()), nil

	case expr.AnchorBuilddir:
		if n.resolver == nil {
			// Resolvable only once a toolset is bound.
			return p, nil
		}
		if tgt == nil {
			return nil, diag.Errorf(p.Pos(), "@builddir can only be used inside a target")
		}
		base := n.resolver.BuilddirFor(tgt)
		comps := make([]expr.Expr, 0, len(base.Components)+len(p.Components))
		comps = append(comps, base.Components...)
		comps = append(comps, p.Components...)
		return expr.NewPath(comps, base.Anchor, base.AnchorFile, p.Pos()), nil

	default:
		return p, nil
	}
}

// srcPrefix computes the path of the anchor file's directory relative to
// the top source directory, memoized per anchor file.
func (n *Normalizer) srcPrefix(anchorFile string, p *expr.Path) ([]string, error) {
	if anchorFile == "" {
		return nil, nil
	}
	if memo, ok := n.prefixMemo[anchorFile]; ok {
		return memo, nil
	}
	rel, err := filepath.Rel(n.topdir, filepath.Dir(anchorFile))
	if err != nil {
		return nil, diag.Errorf(p.Pos(), "cannot resolve @srcdir relative to %s: %v", n.topdir, err)
	}
	var prefix []string
	if rel != "." {
		prefix = strings.Split(filepath.ToSlash(rel), "/")
	}
	n.prefixMemo[anchorFile] = prefix
	return prefix, nil
}

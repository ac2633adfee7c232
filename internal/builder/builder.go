// Package builder merges parsed input files into the project model: it
// binds scope-free ast values to concrete scopes, tracks active if-block
// conditions and decides how conditional assignments are represented.
package builder

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabake/internal/ast"
	"github.com/vk/metabake/internal/ctxlog"
	"github.com/vk/metabake/internal/diag"
	"github.com/vk/metabake/internal/expr"
	"github.com/vk/metabake/internal/model"
)

// Builder builds one project from a sequence of parsed files.
type Builder struct {
	project *model.Project
}

// New creates a builder for the given project.
func New(p *model.Project) *Builder {
	return &Builder{project: p}
}

// BuildModule merges one parsed file into the project as a module under
// parent, or as the top module when parent is nil. It returns the new
// module and the submodule includes found in the file; the caller is
// responsible for parsing and building those in turn.
func (b *Builder) BuildModule(ctx context.Context, f *ast.File, parent *model.Module) (*model.Module, []*ast.SubmoduleInclude, error) {
	m := b.project.AddModule(moduleName(f.Name), f.Name, parent)
	ctxlog.FromContext(ctx).Debug("building module", "file", f.Name, "name", m.Name)

	bc := buildCtx{module: m}
	var includes []*ast.SubmoduleInclude
	if err := b.stmts(bc, f.Stmts, &includes); err != nil {
		return nil, nil, err
	}
	return m, includes, nil
}

func moduleName(file string) string {
	name := file
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' || name[i] == '\\' {
			name = name[i+1:]
			break
		}
	}
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}

// buildCtx is the lexical position of a statement: its module, the target
// it is inside of (if any) and the if-block conditions active around it.
type buildCtx struct {
	module *model.Module
	target *model.Target
	conds  []ast.Value
}

func (bc buildCtx) scope() expr.Scope {
	if bc.target != nil {
		return bc.target
	}
	return bc.module
}

func (bc buildCtx) part() *model.Part {
	if bc.target != nil {
		return &bc.target.Part
	}
	return &bc.module.Part
}

func (b *Builder) stmts(bc buildCtx, stmts []ast.Stmt, includes *[]*ast.SubmoduleInclude) error {
	for _, stmt := range stmts {
		var err error
		switch s := stmt.(type) {
		case *ast.Assignment:
			err = b.assignment(bc, s)
		case *ast.OptionDecl:
			err = b.optionDecl(bc, s)
		case *ast.TargetDecl:
			err = b.targetDecl(bc, s, includes)
		case *ast.IfBlock:
			inner := bc
			if s.Cond != nil {
				inner.conds = append(append([]ast.Value(nil), bc.conds...), s.Cond)
			}
			err = b.stmts(inner, s.Body, includes)
		case *ast.SubmoduleInclude:
			err = b.submodule(bc, s, includes)
		case *ast.PropertyDefault:
			err = b.propertyDefault(bc, s)
		default:
			err = diag.Errorf(stmt.Pos(), "unsupported statement %T", stmt)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) assignment(bc buildCtx, s *ast.Assignment) error {
	if bc.target != nil && s.Name == "sources" {
		return b.sources(bc, s)
	}
	if p := b.project.Props.Lookup(s.Name); p != nil && p.Readonly {
		return diag.Errorf(s.Pos(), "property %q is read-only and cannot be set", s.Name)
	}

	value := b.valueToExpr(s.Value, bc.scope())
	part := bc.part()

	if len(bc.conds) == 0 {
		part.AddVariable(model.NewVariable(s.Name, value, s.Pos()))
		return nil
	}

	// A condition that is purely a conjunction of option==value tests can
	// be kept structured as a conditional variable, which is what the
	// flattener resolves per configuration. Anything else, and anything
	// layered over an unconditional assignment, is folded into the value
	// itself as an if-expression.
	if cond, ok := b.asOptionCondition(bc.conds); ok {
		existing := part.Var(s.Name)
		if existing == nil || isCondVarMarker(existing) {
			cv := findCondVar(part, s.Name)
			if cv == nil {
				cv = &model.CondVar{Name: s.Name, Pos: s.Pos()}
				part.AddCondVar(cv)
			}
			cv.AddCase(cond, value)
			if existing == nil {
				part.AddVariable(model.NewVariable(s.Name, expr.NewPlaceholder(s.Name, s.Pos()), s.Pos()))
			}
			return nil
		}
	}

	prev := expr.Expr(expr.NewNull(s.Pos()))
	if existing := part.Var(s.Name); existing != nil {
		prev = existing.Value()
	}
	value = expr.NewIf(b.condExpr(bc), value, prev, s.Pos())
	part.AddVariable(model.NewVariable(s.Name, value, s.Pos()))
	return nil
}

func (b *Builder) sources(bc buildCtx, s *ast.Assignment) error {
	if len(bc.conds) != 0 {
		return diag.Errorf(s.Pos(), "sources cannot be conditional")
	}
	items := []ast.Value{s.Value}
	if list, ok := s.Value.(*ast.List); ok {
		items = list.Items
	}
	for _, item := range items {
		bc.target.AddSource(b.valueToExpr(item, bc.target), item.Pos())
	}
	return nil
}

func (b *Builder) optionDecl(bc buildCtx, s *ast.OptionDecl) error {
	if bc.target != nil {
		return diag.Errorf(s.Pos(), "options can only be declared at file level")
	}
	if len(bc.conds) != 0 {
		return diag.Errorf(s.Pos(), "option %q cannot be declared conditionally", s.Name)
	}
	if b.project.Option(s.Name) != nil {
		return diag.Errorf(s.Pos(), "option %q is already declared", s.Name)
	}
	bc.module.AddOption(&model.Option{
		Name:       s.Name,
		Default:    s.Default,
		HasDefault: s.HasDefault,
		Values:     s.Values,
		Labels:     s.Labels,
		Pos:        s.Pos(),
	})
	// The option's value is undetermined until flattening binds it.
	bc.module.AddVariable(model.NewVariable(s.Name, expr.NewPlaceholder(s.Name, s.Pos()), s.Pos()))
	return nil
}

func (b *Builder) targetDecl(bc buildCtx, s *ast.TargetDecl, includes *[]*ast.SubmoduleInclude) error {
	if bc.target != nil {
		return diag.Errorf(s.Pos(), "targets cannot be nested")
	}
	for _, t := range b.project.Targets() {
		if t.Name == s.Name {
			return diag.Errorf(s.Pos(), "target %q is already defined at %s", s.Name, t.Pos)
		}
	}
	t := bc.module.AddTarget(s.Type, s.Name, s.Pos())
	if len(bc.conds) != 0 {
		t.Condition = b.condExpr(bc)
	}

	id := model.NewVariable("id", expr.NewLiteral(s.Name, s.Pos()), s.Pos())
	id.Readonly = true
	id.Property = true
	t.AddVariable(id)

	inner := buildCtx{module: bc.module, target: t}
	return b.stmts(inner, s.Body, includes)
}

func (b *Builder) submodule(bc buildCtx, s *ast.SubmoduleInclude, includes *[]*ast.SubmoduleInclude) error {
	if bc.target != nil {
		return diag.Errorf(s.Pos(), "submodules can only be included at file level")
	}
	if len(bc.conds) != 0 {
		return diag.Errorf(s.Pos(), "submodules cannot be included conditionally")
	}
	*includes = append(*includes, s)
	return nil
}

func (b *Builder) propertyDefault(bc buildCtx, s *ast.PropertyDefault) error {
	part := bc.part()
	if part.Var(s.Name) != nil {
		return nil
	}
	v := model.NewVariable(s.Name, b.valueToExpr(s.Value, bc.scope()), s.Pos())
	v.Property = true
	v.Inheritable = true
	part.AddVariable(v)
	return nil
}

// condExpr combines the active if-block conditions into one bound
// expression, innermost last.
func (b *Builder) condExpr(bc buildCtx) expr.Expr {
	var out expr.Expr
	for _, c := range bc.conds {
		e := b.valueToExpr(c, bc.scope())
		if out == nil {
			out = e
			continue
		}
		out = expr.NewBool(expr.OpAnd, out, e, c.Pos())
	}
	return out
}

// asOptionCondition reports whether the active conditions form a pure
// conjunction of option==value tests, and returns it in structured form.
func (b *Builder) asOptionCondition(conds []ast.Value) (*model.Condition, bool) {
	cond := &model.Condition{}
	for _, c := range conds {
		if !b.collectMatches(c, cond) {
			return nil, false
		}
	}
	if cond.Pos == nil && len(conds) > 0 {
		cond.Pos = conds[0].Pos()
	}
	return cond, true
}

func (b *Builder) collectMatches(v ast.Value, cond *model.Condition) bool {
	bl, ok := v.(*ast.Bool)
	if !ok {
		return false
	}
	switch bl.Op {
	case expr.OpAnd:
		return b.collectMatches(bl.Left, cond) && b.collectMatches(bl.Right, cond)
	case expr.OpEqual:
		ref, ok := bl.Left.(*ast.Ref)
		if !ok {
			return false
		}
		text, ok := bl.Right.(*ast.Text)
		if !ok {
			return false
		}
		if b.project.Option(ref.Name) == nil {
			return false
		}
		cond.Matches = append(cond.Matches, model.OptionMatch{Option: ref.Name, Value: text.Text})
		return true
	default:
		return false
	}
}

func isCondVarMarker(v *model.Variable) bool {
	_, ok := v.Value().(*expr.Placeholder)
	return ok
}

func findCondVar(part *model.Part, name string) *model.CondVar {
	for _, cv := range part.CondVars() {
		if cv.Name == name {
			return cv
		}
	}
	return nil
}

// valueToExpr binds a scope-free ast value to a scope, producing the
// expression tree the model stores.
func (b *Builder) valueToExpr(v ast.Value, scope expr.Scope) expr.Expr {
	switch n := v.(type) {
	case *ast.Text:
		return expr.NewLiteral(n.Text, n.Pos())
	case *ast.Ref:
		return expr.NewReference(n.Name, scope, n.Pos())
	case *ast.Concat:
		parts := make([]expr.Expr, len(n.Parts))
		for i, p := range n.Parts {
			parts[i] = b.valueToExpr(p, scope)
		}
		return expr.NewConcat(parts, n.Pos())
	case *ast.Path:
		comps := make([]expr.Expr, len(n.Components))
		for i, c := range n.Components {
			comps[i] = b.valueToExpr(c, scope)
		}
		return expr.NewPath(comps, n.Anchor, anchorFileOf(n.Pos()), n.Pos())
	case *ast.List:
		items := make([]expr.Expr, len(n.Items))
		for i, it := range n.Items {
			items[i] = b.valueToExpr(it, scope)
		}
		return expr.NewList(items, n.Pos())
	case *ast.Bool:
		left := b.valueToExpr(n.Left, scope)
		var right expr.Expr
		if n.Right != nil {
			right = b.valueToExpr(n.Right, scope)
		}
		return expr.NewBool(n.Op, left, right, n.Pos())
	default:
		panic(fmt.Sprintf("builder: unknown value kind %T", v))
	}
}

func anchorFileOf(pos *hcl.Range) string {
	if pos == nil {
		return ""
	}
	return pos.Filename
}

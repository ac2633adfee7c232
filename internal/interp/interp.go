// Package interp orchestrates the compilation pipeline: building the model
// from input files, validating it, normalizing it and specializing it per
// toolset. States advance strictly forward and every error is fail-fast,
// so no toolset ever gets partial output.
package interp

import (
	"context"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabake/internal/analyze"
	"github.com/vk/metabake/internal/builder"
	"github.com/vk/metabake/internal/ctxlog"
	"github.com/vk/metabake/internal/diag"
	"github.com/vk/metabake/internal/expr"
	"github.com/vk/metabake/internal/flatten"
	"github.com/vk/metabake/internal/model"
	"github.com/vk/metabake/internal/parser"
	"github.com/vk/metabake/internal/paths"
	"github.com/vk/metabake/internal/props"
	"github.com/vk/metabake/internal/registry"
	"github.com/vk/metabake/internal/toolset"
)

// State is the pipeline stage a project is in.
type State int

const (
	StateEmpty State = iota
	StateBuilt
	StateFinalized
)

// Interpreter compiles one project. It is single-use: create a new one per
// compilation so memoization and warning state never leak between runs.
type Interpreter struct {
	project *model.Project
	builder *builder.Builder
	warns   *diag.Warnings
	state   State
}

// New creates an interpreter with an empty project and the standard
// properties registered.
func New() *Interpreter {
	p := model.NewProject()
	props.Register(p)
	return &Interpreter{
		project: p,
		builder: builder.New(p),
		warns:   &diag.Warnings{},
	}
}

// Project returns the model under compilation.
func (i *Interpreter) Project() *model.Project { return i.project }

// Warnings returns the warnings collected so far.
func (i *Interpreter) Warnings() *diag.Warnings { return i.warns }

// State returns the pipeline stage.
func (i *Interpreter) State() State { return i.state }

// AddModule parses the input file and merges it into the project, then
// does the same recursively for every submodule it includes. A submodule
// that cannot be read is fatal, with the include's position attached.
func (i *Interpreter) AddModule(ctx context.Context, path string) error {
	if i.state > StateBuilt {
		return diag.Errorf(nil, "cannot add modules to a finalized project")
	}
	if err := i.addModule(ctx, path, nil, nil); err != nil {
		return err
	}
	i.state = StateBuilt
	return nil
}

func (i *Interpreter) addModule(ctx context.Context, path string, parent *model.Module, incPos *hcl.Range) error {
	f, err := parser.ParseFile(path)
	if err != nil {
		return diag.WithPos(err, incPos)
	}
	m, includes, err := i.builder.BuildModule(ctx, f, parent)
	if err != nil {
		return err
	}
	for _, inc := range includes {
		sub := filepath.Join(filepath.Dir(path), filepath.FromSlash(inc.Path))
		if err := i.addModule(ctx, sub, m, inc.Pos()); err != nil {
			return err
		}
	}
	return nil
}

// Finalize validates the built model and runs the generic, pre-toolset
// normalization. After this the model is ready for specialization.
func (i *Interpreter) Finalize(ctx context.Context) error {
	if i.state != StateBuilt {
		return diag.Errorf(nil, "nothing to finalize, no modules were added")
	}
	log := ctxlog.FromContext(ctx)

	log.Debug("checking variable references")
	if err := analyze.SelfReferences(i.project); err != nil {
		return err
	}
	analyze.UnusedVariables(ctx, i.project, i.warns)

	log.Debug("normalizing paths")
	if err := paths.NewNormalizer(i.project, nil).Normalize(); err != nil {
		return err
	}
	if err := i.project.RewriteExprs(expr.SimplifyBasicRule); err != nil {
		return err
	}

	i.state = StateFinalized
	return nil
}

// Toolsets returns the toolset names the project requests through its
// toolsets variable.
func (i *Interpreter) Toolsets() ([]string, error) {
	top := i.project.TopModule()
	if top == nil {
		return nil, diag.Errorf(nil, "project is empty")
	}
	v, err := top.ValueOf("toolsets")
	if err != nil {
		return nil, err
	}
	cv, err := expr.AsConst(v)
	if err != nil {
		return nil, diag.Errorf(nil, "cannot determine toolsets: %v", err)
	}
	switch {
	case cv.IsNull():
		return nil, diag.Errorf(nil, "the project does not set the toolsets list")
	case cv.Type().IsTupleType():
		if cv.LengthInt() == 0 {
			return nil, diag.Errorf(nil, "the project does not set the toolsets list")
		}
		var names []string
		for it := cv.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			names = append(names, expr.FormatConst(ev))
		}
		return names, nil
	default:
		return []string{expr.FormatConst(cv)}, nil
	}
}

// SpecializeForToolset deep-copies the finalized model, binds the toolset
// setting and re-runs normalization and conditional elimination on the
// copy. Each toolset gets an independent clone, so calls never interfere.
func (i *Interpreter) SpecializeForToolset(ctx context.Context, ts toolset.Toolset) (*model.Project, error) {
	if i.state != StateFinalized {
		return nil, diag.Errorf(nil, "project must be finalized before toolset specialization")
	}
	ctxlog.FromContext(ctx).Debug("specializing model", "toolset", ts.Name())

	c := i.project.Clone()

	bound := model.NewVariable("toolset", expr.NewLiteral(ts.Name(), nil), nil)
	bound.Readonly = true
	bound.Property = true
	bound.Inheritable = true
	c.AddVariable(bound)

	// Any toolset placeholder already baked into a tree is bound too.
	err := c.RewriteExprs(func(e expr.Expr) (expr.Expr, error) {
		if ph, ok := e.(*expr.Placeholder); ok && ph.Var == "toolset" {
			return expr.NewLiteral(ts.Name(), ph.Pos()), nil
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}

	// Normalization is idempotent; this run resolves what only the
	// toolset could decide, @builddir above all.
	if err := paths.NewNormalizer(c, ts).Normalize(); err != nil {
		return nil, err
	}
	if err := flatten.Resimplify(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Generate runs specialization, optional flattening and output generation
// for each named toolset, sequentially and fail-fast.
func (i *Interpreter) Generate(ctx context.Context, reg *registry.Registry, names []string, outDir string) error {
	for _, name := range names {
		ts, err := reg.Get(name)
		if err != nil {
			return err
		}
		c, err := i.SpecializeForToolset(ctx, ts)
		if err != nil {
			return err
		}
		if ts.RequiresFlatten() {
			if err := flatten.Flatten(ctx, c); err != nil {
				return err
			}
		}
		if err := ts.Generate(ctx, c, filepath.Join(outDir, name)); err != nil {
			return err
		}
	}
	return nil
}

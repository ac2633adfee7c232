package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/metabake/internal/diag"
	"github.com/vk/metabake/internal/expr"
)

func lit(s string) *expr.Literal { return expr.NewLiteral(s, nil) }

func newTestProject(t *testing.T) (*Project, *Module, *Target) {
	t.Helper()
	p := NewProject()
	m := p.AddModule("main", "main.mbk", nil)
	tg := m.AddTarget("exe", "hello", nil)
	return p, m, tg
}

func TestScopedLookup(t *testing.T) {
	_, m, tg := newTestProject(t)
	m.AddVariable(NewVariable("flags", lit("-O2"), nil))

	t.Run("inner scope sees enclosing variables", func(t *testing.T) {
		v, err := tg.ValueOf("flags")
		require.NoError(t, err)
		assert.Equal(t, "-O2", v.String())
	})

	t.Run("inner definition shadows", func(t *testing.T) {
		tg.AddVariable(NewVariable("flags", lit("-O0"), nil))
		v, err := tg.ValueOf("flags")
		require.NoError(t, err)
		assert.Equal(t, "-O0", v.String())
	})

	t.Run("unknown name fails with a typed error", func(t *testing.T) {
		_, err := tg.ValueOf("nope")
		require.Error(t, err)
		var unres *diag.UnresolvedReferenceError
		require.ErrorAs(t, err, &unres)
		assert.Equal(t, "nope", unres.VarName)
	})
}

func TestPropertyDefaults(t *testing.T) {
	p, m, tg := newTestProject(t)
	p.Props.Register(&Property{
		Name:        "toolset",
		Kind:        KindProject,
		Inheritable: true,
		Default: func(*Part) expr.Expr {
			return expr.NewPlaceholder("toolset", nil)
		},
	})
	p.Props.Register(&Property{
		Name: "version",
		Kind: KindProject,
		Default: func(*Part) expr.Expr {
			return lit("0.1")
		},
	})

	t.Run("default used when never set", func(t *testing.T) {
		v, err := p.ValueOf("toolset")
		require.NoError(t, err)
		assert.Equal(t, "${toolset}", v.String())
	})

	t.Run("inheritable default visible from nested scopes", func(t *testing.T) {
		v, err := tg.ValueOf("toolset")
		require.NoError(t, err)
		assert.Equal(t, "${toolset}", v.String())
	})

	t.Run("non-inheritable default is not", func(t *testing.T) {
		_, err := m.ValueOf("version")
		require.Error(t, err)
	})

	t.Run("explicit assignment wins over the default", func(t *testing.T) {
		p.AddVariable(NewVariable("toolset", lit("gnu"), nil))
		v, err := tg.ValueOf("toolset")
		require.NoError(t, err)
		assert.Equal(t, "gnu", v.String())
	})

	t.Run("defaults resolve no variable object", func(t *testing.T) {
		assert.Nil(t, p.ResolveVar("version"))
	})
}

func TestNonInheritablePropertyVariableGating(t *testing.T) {
	_, m, tg := newTestProject(t)
	v := NewVariable("outputdir", lit("obj"), nil)
	v.Property = true
	m.AddVariable(v)

	_, err := tg.ValueOf("outputdir")
	assert.Error(t, err)

	v.Inheritable = true
	got, err := tg.ValueOf("outputdir")
	require.NoError(t, err)
	assert.Equal(t, "obj", got.String())
}

func TestVariableReadonly(t *testing.T) {
	v := NewVariable("toolset", lit("gnu"), nil)
	v.Readonly = true
	err := v.SetValue(lit("vsproj"))
	require.Error(t, err)
	assert.Equal(t, "gnu", v.Value().String())
}

func TestVarsInsertionOrder(t *testing.T) {
	p := NewProject()
	p.AddVariable(NewVariable("b", lit("1"), nil))
	p.AddVariable(NewVariable("a", lit("2"), nil))
	p.AddVariable(NewVariable("b", lit("3"), nil))

	vars := p.Vars()
	require.Len(t, vars, 2)
	assert.Equal(t, "b", vars[0].Name)
	assert.Equal(t, "3", vars[0].Value().String())
	assert.Equal(t, "a", vars[1].Name)
}

func TestConditionEval(t *testing.T) {
	c := &Condition{Matches: []OptionMatch{
		{Option: "DEBUG", Value: "1"},
		{Option: "UNICODE", Value: "0"},
	}}
	assert.True(t, c.Eval(map[string]string{"DEBUG": "1", "UNICODE": "0"}))
	assert.False(t, c.Eval(map[string]string{"DEBUG": "1", "UNICODE": "1"}))
	assert.Equal(t, "DEBUG==1 and UNICODE==0", c.String())
}

func TestCondVarResolve(t *testing.T) {
	cv := &CondVar{Name: "BUILDFLAGS"}
	cv.AddCase(&Condition{Matches: []OptionMatch{{Option: "DEBUG", Value: "1"}}}, lit("-g"))
	cv.AddCase(&Condition{Matches: []OptionMatch{{Option: "DEBUG", Value: "0"}}}, lit("-O2"))

	assert.Equal(t, "-g", cv.Resolve(map[string]string{"DEBUG": "1"}).String())
	assert.Equal(t, "-O2", cv.Resolve(map[string]string{"DEBUG": "0"}).String())

	// No match falls back to the empty string.
	got := cv.Resolve(map[string]string{"DEBUG": "2"})
	l, ok := got.(*expr.Literal)
	require.True(t, ok)
	assert.Equal(t, "", l.Value)
}

func TestOptionLabel(t *testing.T) {
	o := &Option{Name: "DEBUG", Values: []string{"0", "1"}, Labels: map[string]string{"0": "Release", "1": "Debug"}}
	assert.Equal(t, "Debug", o.Label("1"))
	assert.Equal(t, "2", o.Label("2"))
}

func TestClone(t *testing.T) {
	p, m, tg := newTestProject(t)
	m.AddVariable(NewVariable("prefix", lit("lib"), nil))
	tg.AddVariable(NewVariable("name", expr.NewConcat([]expr.Expr{
		expr.NewReference("prefix", tg, nil),
		lit("hello"),
	}, nil), nil))
	tg.AddSource(expr.NewPath([]expr.Expr{lit("main.cpp")}, expr.AnchorSrcdir, "main.mbk", nil), nil)

	cp := p.Clone()
	cm := cp.TopModule()
	ct := cm.Target("hello")
	require.NotNil(t, ct)

	t.Run("structure is copied", func(t *testing.T) {
		require.Len(t, cp.Modules(), 1)
		require.Len(t, ct.Sources(), 1)
		assert.Equal(t, "exe", ct.Type)
	})

	t.Run("mutating the clone leaves the original alone", func(t *testing.T) {
		require.NoError(t, cm.Var("prefix").SetValue(lit("so")))
		orig, err := m.ValueOf("prefix")
		require.NoError(t, err)
		assert.Equal(t, "lib", orig.String())
	})

	t.Run("references resolve through the cloned scopes", func(t *testing.T) {
		v, err := expr.AsConst(ct.Var("name").Value())
		require.NoError(t, err)
		assert.Equal(t, "sohello", v.AsString())

		v, err = expr.AsConst(tg.Var("name").Value())
		require.NoError(t, err)
		assert.Equal(t, "libhello", v.AsString())
	})
}

func TestRewriteExprs(t *testing.T) {
	p, m, tg := newTestProject(t)
	m.AddVariable(NewVariable("a", expr.NewConcat([]expr.Expr{lit("x"), lit("y")}, nil), nil))
	tg.Condition = expr.NewBool(expr.OpEqual, lit("a"), lit("a"), nil)

	err := p.RewriteExprs(func(e expr.Expr) (expr.Expr, error) {
		return e, nil
	})
	require.NoError(t, err)

	count := 0
	err = p.RewriteExprs(func(e expr.Expr) (expr.Expr, error) {
		if _, ok := e.(*expr.Literal); ok {
			count++
		}
		return e, nil
	})
	require.NoError(t, err)
	// Two literals in the concat, two in the condition.
	assert.Equal(t, 4, count)
}

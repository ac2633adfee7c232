package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/metabake/internal/ast"
	"github.com/vk/metabake/internal/diag"
	"github.com/vk/metabake/internal/expr"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, err := Parse([]byte(src), "test.mbk")
	require.NoError(t, err)
	return f
}

func TestParseAssignments(t *testing.T) {
	f := parse(t, `
toolsets = ["gnu", "vsproj"]
name = "hello"
`)
	require.Len(t, f.Stmts, 2)

	a, ok := f.Stmts[0].(*ast.Assignment)
	require.True(t, ok)
	assert.Equal(t, "toolsets", a.Name)
	list, ok := a.Value.(*ast.List)
	require.True(t, ok)
	require.Len(t, list.Items, 2)

	b := f.Stmts[1].(*ast.Assignment)
	assert.Equal(t, "name", b.Name)
	text, ok := b.Value.(*ast.Text)
	require.True(t, ok)
	assert.Equal(t, "hello", text.Text)
	require.NotNil(t, b.Pos())
	assert.Equal(t, "test.mbk", b.Pos().Filename)
	assert.Equal(t, 3, b.Pos().Start.Line)
}

func TestScanValues(t *testing.T) {
	t.Run("reference inside text", func(t *testing.T) {
		v, err := scanValue("$(name).cpp", nil)
		require.NoError(t, err)
		c, ok := v.(*ast.Concat)
		require.True(t, ok)
		require.Len(t, c.Parts, 2)
		assert.Equal(t, "name", c.Parts[0].(*ast.Ref).Name)
		assert.Equal(t, ".cpp", c.Parts[1].(*ast.Text).Text)
	})

	t.Run("bare reference", func(t *testing.T) {
		v, err := scanValue("$(flags)", nil)
		require.NoError(t, err)
		assert.Equal(t, "flags", v.(*ast.Ref).Name)
	})

	t.Run("anchored path", func(t *testing.T) {
		v, err := scanValue("@srcdir/src/$(name).cpp", nil)
		require.NoError(t, err)
		p, ok := v.(*ast.Path)
		require.True(t, ok)
		assert.Equal(t, expr.AnchorSrcdir, p.Anchor)
		require.Len(t, p.Components, 2)
		assert.Equal(t, "src", p.Components[0].(*ast.Text).Text)
	})

	t.Run("bare anchor", func(t *testing.T) {
		v, err := scanValue("@builddir", nil)
		require.NoError(t, err)
		p := v.(*ast.Path)
		assert.Equal(t, expr.AnchorBuilddir, p.Anchor)
		assert.Empty(t, p.Components)
	})

	t.Run("unknown anchor", func(t *testing.T) {
		_, err := scanValue("@objdir/x", nil)
		require.Error(t, err)
	})

	t.Run("unterminated reference", func(t *testing.T) {
		_, err := scanValue("$(oops", nil)
		require.Error(t, err)
		var perr *diag.ParseError
		assert.ErrorAs(t, err, &perr)
	})
}

func TestParseOption(t *testing.T) {
	f := parse(t, `
option "DEBUG" {
  default = "0"
  values  = ["0", "1"]
  labels = {
    "0" = "Release"
    "1" = "Debug"
  }
}
`)
	require.Len(t, f.Stmts, 1)
	o, ok := f.Stmts[0].(*ast.OptionDecl)
	require.True(t, ok)
	assert.Equal(t, "DEBUG", o.Name)
	assert.True(t, o.HasDefault)
	assert.Equal(t, "0", o.Default)
	assert.Equal(t, []string{"0", "1"}, o.Values)
	assert.Equal(t, "Debug", o.Labels["1"])
}

func TestParseTargetWithIf(t *testing.T) {
	f := parse(t, `
target "exe" "hello" {
  sources = ["hello.cpp"]

  if "DEBUG=='1'" {
    defines = "DEBUG"
  }
}
`)
	require.Len(t, f.Stmts, 1)
	tgt, ok := f.Stmts[0].(*ast.TargetDecl)
	require.True(t, ok)
	assert.Equal(t, "exe", tgt.Type)
	assert.Equal(t, "hello", tgt.Name)
	require.Len(t, tgt.Body, 2)

	_, ok = tgt.Body[0].(*ast.Assignment)
	assert.True(t, ok)

	ib, ok := tgt.Body[1].(*ast.IfBlock)
	require.True(t, ok)
	require.NotNil(t, ib.Cond)
	require.Len(t, ib.Body, 1)
}

func TestParseSubmodule(t *testing.T) {
	f := parse(t, `submodule "lib/lib.mbk" {}`)
	require.Len(t, f.Stmts, 1)
	s, ok := f.Stmts[0].(*ast.SubmoduleInclude)
	require.True(t, ok)
	assert.Equal(t, "lib/lib.mbk", s.Path)
}

func TestParseDefaults(t *testing.T) {
	f := parse(t, `
defaults {
  warnings = "max"
}
`)
	require.Len(t, f.Stmts, 1)
	group, ok := f.Stmts[0].(*ast.IfBlock)
	require.True(t, ok)
	assert.Nil(t, group.Cond)
	require.Len(t, group.Body, 1)
	d, ok := group.Body[0].(*ast.PropertyDefault)
	require.True(t, ok)
	assert.Equal(t, "warnings", d.Name)
}

func TestParseErrors(t *testing.T) {
	for name, src := range map[string]string{
		"unknown block":       `mystery "x" {}`,
		"option labels":       `option {}`,
		"target labels":       `target "exe" {}`,
		"submodule body":      `submodule "x.mbk" { a = "1" }`,
		"bad hcl":             `a = `,
		"bad condition":       `if "DEBUG ==" {}`,
		"unterminated ref":    `a = "$(x"`,
		"nested option block": "option \"A\" {\n  inner {}\n}",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), "test.mbk")
			require.Error(t, err)
		})
	}
}

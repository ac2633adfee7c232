package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyBasic(t *testing.T) {
	t.Run("merges adjacent literals", func(t *testing.T) {
		e := NewConcat([]Expr{lit("a"), lit("b")}, nil)
		out, err := SimplifyBasic(e)
		require.NoError(t, err)
		l, ok := out.(*Literal)
		require.True(t, ok)
		assert.Equal(t, "ab", l.Value)
	})

	t.Run("drops nulls from concat", func(t *testing.T) {
		e := NewConcat([]Expr{lit("lib"), NewNull(nil), lit(".a")}, nil)
		out, err := SimplifyBasic(e)
		require.NoError(t, err)
		assert.Equal(t, "lib.a", out.String())
	})

	t.Run("all-null concat becomes null", func(t *testing.T) {
		e := NewConcat([]Expr{NewNull(nil), NewNull(nil)}, nil)
		out, err := SimplifyBasic(e)
		require.NoError(t, err)
		assert.IsType(t, &Null{}, out)
	})

	t.Run("drops nulls from lists", func(t *testing.T) {
		e := NewList([]Expr{lit("a.cpp"), NewNull(nil), lit("b.cpp")}, nil)
		out, err := SimplifyBasic(e)
		require.NoError(t, err)
		l, ok := out.(*List)
		require.True(t, ok)
		assert.Len(t, l.Items, 2)
	})

	t.Run("all-null list becomes null", func(t *testing.T) {
		e := NewList([]Expr{NewNull(nil)}, nil)
		out, err := SimplifyBasic(e)
		require.NoError(t, err)
		assert.IsType(t, &Null{}, out)
	})

	t.Run("preserves nulls inside paths", func(t *testing.T) {
		e := NewPath([]Expr{lit("src"), NewNull(nil)}, AnchorSrcdir, "m.mbk", nil)
		out, err := SimplifyBasic(e)
		require.NoError(t, err)
		p, ok := out.(*Path)
		require.True(t, ok)
		assert.Len(t, p.Components, 2)
	})

	t.Run("inlines scalar references", func(t *testing.T) {
		scope := &mapScope{vars: map[string]Expr{
			"inner": lit("x"),
		}}
		scope.vars["outer"] = NewReference("inner", scope, nil)
		out, err := SimplifyBasic(NewReference("outer", scope, nil))
		require.NoError(t, err)
		l, ok := out.(*Literal)
		require.True(t, ok)
		assert.Equal(t, "x", l.Value)
	})

	t.Run("keeps references to lists", func(t *testing.T) {
		scope := &mapScope{vars: map[string]Expr{
			"sources": NewList([]Expr{lit("a.cpp")}, nil),
		}}
		e := NewReference("sources", scope, nil)
		out, err := SimplifyBasic(e)
		require.NoError(t, err)
		assert.Same(t, Expr(e), out)
	})

	t.Run("does not fold conditionals", func(t *testing.T) {
		e := NewBool(OpEqual, lit("a"), lit("a"), nil)
		out, err := SimplifyBasic(e)
		require.NoError(t, err)
		assert.Same(t, Expr(e), out)
	})
}

func TestSimplifyConditionals(t *testing.T) {
	nonconst := func() Expr {
		return NewBool(OpEqual, NewPlaceholder("toolset", nil), lit("gnu"), nil)
	}

	t.Run("not", func(t *testing.T) {
		out, err := Simplify(NewBool(OpNot, NewBoolValue(false, nil), nil, nil))
		require.NoError(t, err)
		assert.Equal(t, "true", out.String())
	})

	t.Run("and with both constant", func(t *testing.T) {
		out, err := Simplify(NewBool(OpAnd, NewBoolValue(true, nil), NewBoolValue(false, nil), nil))
		require.NoError(t, err)
		assert.Equal(t, "false", out.String())
	})

	t.Run("and drops constant-true side", func(t *testing.T) {
		nc := nonconst()
		out, err := Simplify(NewBool(OpAnd, NewBoolValue(true, nil), nc, nil))
		require.NoError(t, err)
		assert.Equal(t, nc.String(), out.String())
	})

	t.Run("and with constant-false side stays", func(t *testing.T) {
		e := NewBool(OpAnd, NewBoolValue(false, nil), nonconst(), nil)
		out, err := Simplify(e)
		require.NoError(t, err)
		assert.Same(t, Expr(e), out)
	})

	t.Run("or short-circuits on constant true", func(t *testing.T) {
		for _, e := range []Expr{
			NewBool(OpOr, NewBoolValue(true, nil), nonconst(), nil),
			NewBool(OpOr, nonconst(), NewBoolValue(true, nil), nil),
		} {
			out, err := Simplify(e)
			require.NoError(t, err)
			assert.Equal(t, "true", out.String())
		}
	})

	t.Run("or needs both sides to conclude false", func(t *testing.T) {
		out, err := Simplify(NewBool(OpOr, NewBoolValue(false, nil), NewBoolValue(false, nil), nil))
		require.NoError(t, err)
		assert.Equal(t, "false", out.String())

		e := NewBool(OpOr, NewBoolValue(false, nil), nonconst(), nil)
		out, err = Simplify(e)
		require.NoError(t, err)
		assert.Same(t, Expr(e), out)
	})

	t.Run("equality folds when constant", func(t *testing.T) {
		out, err := Simplify(NewBool(OpEqual, lit("gnu"), lit("gnu"), nil))
		require.NoError(t, err)
		assert.Equal(t, "true", out.String())

		e := NewBool(OpEqual, NewPlaceholder("toolset", nil), lit("gnu"), nil)
		out, err = Simplify(e)
		require.NoError(t, err)
		assert.Same(t, Expr(e), out)
	})

	t.Run("if selects branch on constant condition", func(t *testing.T) {
		e := NewIf(NewBool(OpEqual, lit("a"), lit("a"), nil), lit("yes"), lit("no"), nil)
		out, err := Simplify(e)
		require.NoError(t, err)
		assert.Equal(t, "yes", out.String())
	})

	t.Run("if with two null branches is null", func(t *testing.T) {
		e := NewIf(nonconst(), NewNull(nil), NewNull(nil), nil)
		out, err := Simplify(e)
		require.NoError(t, err)
		assert.IsType(t, &Null{}, out)
	})

	t.Run("non-constant if is kept", func(t *testing.T) {
		e := NewIf(nonconst(), lit("yes"), lit("no"), nil)
		out, err := Simplify(e)
		require.NoError(t, err)
		assert.Same(t, Expr(e), out)
	})
}

func TestSimplifyIdempotent(t *testing.T) {
	scope := &mapScope{vars: map[string]Expr{"v": lit("x")}}
	exprs := []Expr{
		NewConcat([]Expr{lit("a"), NewNull(nil), lit("b"), NewPlaceholder("p", nil)}, nil),
		NewList([]Expr{NewNull(nil), NewReference("v", scope, nil)}, nil),
		NewBool(OpOr, NewBool(OpEqual, NewPlaceholder("t", nil), lit("gnu"), nil), NewBoolValue(false, nil), nil),
		NewIf(NewBool(OpEqual, NewPlaceholder("t", nil), lit("gnu"), nil), lit("y"), NewNull(nil), nil),
	}
	for _, e := range exprs {
		once, err := Simplify(e)
		require.NoError(t, err)
		twice, err := Simplify(once)
		require.NoError(t, err)
		assert.Same(t, once, twice, "Simplify(%s) is not idempotent", e)
	}
}

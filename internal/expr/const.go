package expr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// NonConstError signals that an expression cannot be evaluated at
// bake-time because it depends on an undetermined setting. It is an
// expected control-flow result for the simplifier and flattener; callers
// check for it with IsNonConst and must never let it escape as a fatal
// error.
type NonConstError struct {
	Expr Expr
}

func (e *NonConstError) Error() string {
	return fmt.Sprintf("expression %q must evaluate to a constant", e.Expr)
}

// IsNonConst reports whether err is (or wraps) a NonConstError.
func IsNonConst(err error) bool {
	var nc *NonConstError
	return errors.As(err, &nc)
}

// AsConst evaluates e to a concrete value. Strings become cty string
// values, booleans cty bools, lists tuples and null a typed null. If the
// expression depends on an undetermined setting, a *NonConstError is
// returned; resolution failures (unknown variables) propagate unchanged.
func AsConst(e Expr) (cty.Value, error) {
	switch n := e.(type) {
	case *Null:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case *Literal:
		return cty.StringVal(n.Value), nil
	case *BoolValue:
		return cty.BoolVal(n.Value), nil
	case *List:
		items := make([]cty.Value, 0, len(n.Items))
		for _, it := range n.Items {
			v, err := AsConst(it)
			if err != nil {
				return cty.NilVal, err
			}
			items = append(items, v)
		}
		if len(items) == 0 {
			return cty.EmptyTupleVal, nil
		}
		return cty.TupleVal(items), nil
	case *Concat:
		var sb strings.Builder
		for _, it := range n.Items {
			v, err := AsConst(it)
			if err != nil {
				return cty.NilVal, err
			}
			if v.IsNull() {
				continue
			}
			s, err := constString(v, it)
			if err != nil {
				return cty.NilVal, err
			}
			sb.WriteString(s)
		}
		return cty.StringVal(sb.String()), nil
	case *Reference:
		v, err := n.Value()
		if err != nil {
			return cty.NilVal, err
		}
		return AsConst(v)
	case *Placeholder:
		return cty.NilVal, &NonConstError{Expr: e}
	case *Path:
		// A path has no natively useful constant form; represent it in
		// the source language with an explicit anchor.
		parts := make([]string, 0, len(n.Components)+1)
		parts = append(parts, string(n.Anchor))
		for _, c := range n.Components {
			v, err := AsConst(c)
			if err != nil {
				return cty.NilVal, err
			}
			s, err := constString(v, c)
			if err != nil {
				return cty.NilVal, err
			}
			parts = append(parts, s)
		}
		return cty.StringVal(strings.Join(parts, "/")), nil
	case *Bool:
		return evalBool(n)
	case *If:
		cond, err := Truthy(n.Cond)
		if err != nil {
			return cty.NilVal, err
		}
		if cond {
			return AsConst(n.Yes)
		}
		return AsConst(n.No)
	default:
		panic(fmt.Sprintf("expr: unknown expression kind %T", e))
	}
}

// IsConst reports whether e can be evaluated at bake-time.
func IsConst(e Expr) bool {
	_, err := AsConst(e)
	return err == nil
}

// IsNullValue reports whether e evaluates to the empty value. Non-constant
// expressions are not null.
func IsNullValue(e Expr) bool {
	v, err := AsConst(e)
	if err != nil {
		return false
	}
	if v.IsNull() {
		return true
	}
	if v.Type().IsTupleType() {
		return v.LengthInt() == 0
	}
	return false
}

// Truthy evaluates e and reduces the result to a boolean: null is false,
// booleans are themselves, strings are true unless empty or "0", lists are
// true when non-empty.
func Truthy(e Expr) (bool, error) {
	v, err := AsConst(e)
	if err != nil {
		return false, err
	}
	return truthyValue(v), nil
}

func truthyValue(v cty.Value) bool {
	if v.IsNull() {
		return false
	}
	switch {
	case v.Type() == cty.Bool:
		return v.True()
	case v.Type() == cty.String:
		s := v.AsString()
		return s != "" && s != "0"
	case v.Type().IsTupleType():
		return v.LengthInt() > 0
	default:
		return true
	}
}

func constString(v cty.Value, origin Expr) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	switch {
	case v.Type() == cty.String:
		return v.AsString(), nil
	case v.Type() == cty.Bool:
		if v.True() {
			return "true", nil
		}
		return "false", nil
	case v.Type().IsTupleType():
		parts := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			s, err := constString(ev, origin)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), nil
	default:
		return "", fmt.Errorf("expression %q has no string form", origin)
	}
}

// FormatConst renders a constant value as the string the emitters write
// out. List elements are separated by single spaces.
func FormatConst(v cty.Value) string {
	s, err := constString(v, nil)
	if err != nil {
		return ""
	}
	return s
}

func evalBool(e *Bool) (cty.Value, error) {
	switch e.Op {
	case OpNot:
		b, err := Truthy(e.Left)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(!b), nil
	case OpAnd:
		l, err := Truthy(e.Left)
		if err != nil {
			return cty.NilVal, err
		}
		if !l {
			return cty.BoolVal(false), nil
		}
		r, err := Truthy(e.Right)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(r), nil
	case OpOr:
		l, err := Truthy(e.Left)
		if err != nil {
			return cty.NilVal, err
		}
		if l {
			return cty.BoolVal(true), nil
		}
		r, err := Truthy(e.Right)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(r), nil
	case OpEqual, OpNotEqual:
		eq, err := constEqual(e.Left, e.Right)
		if err != nil {
			return cty.NilVal, err
		}
		if e.Op == OpNotEqual {
			eq = !eq
		}
		return cty.BoolVal(eq), nil
	default:
		panic("expr: invalid Bool operator " + string(e.Op))
	}
}

// constEqual compares two expressions by constant value. Primitive values
// of different types compare through their string forms, so "true" equals
// the boolean true the way the source language expects.
func constEqual(a, b Expr) (bool, error) {
	av, err := AsConst(a)
	if err != nil {
		return false, err
	}
	bv, err := AsConst(b)
	if err != nil {
		return false, err
	}
	return valueEqual(av, bv)
}

func valueEqual(av, bv cty.Value) (bool, error) {
	if av.IsNull() || bv.IsNull() {
		return av.IsNull() == bv.IsNull(), nil
	}
	if av.Type().IsTupleType() && bv.Type().IsTupleType() {
		if av.LengthInt() != bv.LengthInt() {
			return false, nil
		}
		ai, bi := av.ElementIterator(), bv.ElementIterator()
		for ai.Next() && bi.Next() {
			_, ae := ai.Element()
			_, be := bi.Element()
			eq, err := valueEqual(ae, be)
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	}
	as, err := constString(av, nil)
	if err != nil {
		return false, err
	}
	bs, err := constString(bv, nil)
	if err != nil {
		return false, err
	}
	return as == bs, nil
}

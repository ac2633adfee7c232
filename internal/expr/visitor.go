package expr

import "fmt"

// Visitor has one method per expression kind, so a pass that implements it
// gets exhaustive, compiler-checked handling of every node type. Dispatch
// happens through Walk; methods that need to descend call WalkChildren.
type Visitor interface {
	VisitNull(e *Null) error
	VisitLiteral(e *Literal) error
	VisitBoolValue(e *BoolValue) error
	VisitList(e *List) error
	VisitConcat(e *Concat) error
	VisitReference(e *Reference) error
	VisitPlaceholder(e *Placeholder) error
	VisitPath(e *Path) error
	VisitBool(e *Bool) error
	VisitIf(e *If) error
}

// Walk dispatches e to the visitor method matching its kind. It does not
// recurse by itself; visitor methods opt into recursion with WalkChildren.
func Walk(e Expr, v Visitor) error {
	switch n := e.(type) {
	case *Null:
		return v.VisitNull(n)
	case *Literal:
		return v.VisitLiteral(n)
	case *BoolValue:
		return v.VisitBoolValue(n)
	case *List:
		return v.VisitList(n)
	case *Concat:
		return v.VisitConcat(n)
	case *Reference:
		return v.VisitReference(n)
	case *Placeholder:
		return v.VisitPlaceholder(n)
	case *Path:
		return v.VisitPath(n)
	case *Bool:
		return v.VisitBool(n)
	case *If:
		return v.VisitIf(n)
	default:
		panic(fmt.Sprintf("expr: unknown expression kind %T", e))
	}
}

// WalkChildren walks every direct child of e with the visitor. Leaf nodes
// have no children and are a no-op.
func WalkChildren(e Expr, v Visitor) error {
	switch n := e.(type) {
	case *List:
		for _, it := range n.Items {
			if err := Walk(it, v); err != nil {
				return err
			}
		}
	case *Concat:
		for _, it := range n.Items {
			if err := Walk(it, v); err != nil {
				return err
			}
		}
	case *Path:
		for _, c := range n.Components {
			if err := Walk(c, v); err != nil {
				return err
			}
		}
	case *Bool:
		if err := Walk(n.Left, v); err != nil {
			return err
		}
		if n.Right != nil {
			return Walk(n.Right, v)
		}
	case *If:
		if err := Walk(n.Cond, v); err != nil {
			return err
		}
		if err := Walk(n.Yes, v); err != nil {
			return err
		}
		return Walk(n.No, v)
	}
	return nil
}

// RewriteFunc transforms one node whose children have already been
// rewritten. Returning the node unchanged means "no rewrite".
type RewriteFunc func(Expr) (Expr, error)

// Rewrite applies fn bottom-up over the whole tree. It is smart about
// identity: when neither fn nor any child rewrite changed anything, the
// original node is returned rather than an identical copy, so passes can
// cheaply detect "no change" by pointer comparison.
func Rewrite(e Expr, fn RewriteFunc) (Expr, error) {
	out, err := rewriteChildren(e, fn)
	if err != nil {
		return nil, err
	}
	return fn(out)
}

func rewriteChildren(e Expr, fn RewriteFunc) (Expr, error) {
	switch n := e.(type) {
	case *List:
		items, changed, err := rewriteAll(n.Items, fn)
		if err != nil {
			return nil, err
		}
		if !changed {
			return e, nil
		}
		return NewList(items, n.pos), nil
	case *Concat:
		items, changed, err := rewriteAll(n.Items, fn)
		if err != nil {
			return nil, err
		}
		if !changed {
			return e, nil
		}
		return NewConcat(items, n.pos), nil
	case *Path:
		comps, changed, err := rewriteAll(n.Components, fn)
		if err != nil {
			return nil, err
		}
		if !changed {
			return e, nil
		}
		return NewPath(comps, n.Anchor, n.AnchorFile, n.pos), nil
	case *Bool:
		left, err := Rewrite(n.Left, fn)
		if err != nil {
			return nil, err
		}
		var right Expr
		if n.Right != nil {
			right, err = Rewrite(n.Right, fn)
			if err != nil {
				return nil, err
			}
		}
		if left == n.Left && right == n.Right {
			return e, nil
		}
		return NewBool(n.Op, left, right, n.pos), nil
	case *If:
		cond, err := Rewrite(n.Cond, fn)
		if err != nil {
			return nil, err
		}
		yes, err := Rewrite(n.Yes, fn)
		if err != nil {
			return nil, err
		}
		no, err := Rewrite(n.No, fn)
		if err != nil {
			return nil, err
		}
		if cond == n.Cond && yes == n.Yes && no == n.No {
			return e, nil
		}
		return NewIf(cond, yes, no, n.pos), nil
	default:
		return e, nil
	}
}

func rewriteAll(items []Expr, fn RewriteFunc) ([]Expr, bool, error) {
	out := make([]Expr, len(items))
	changed := false
	for i, it := range items {
		j, err := Rewrite(it, fn)
		if err != nil {
			return nil, false, err
		}
		out[i] = j
		if j != it {
			changed = true
		}
	}
	if !changed {
		return items, false, nil
	}
	return out, true, nil
}

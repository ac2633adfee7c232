package expr

// SimplifyBasic does the cheap rewrites: merging concatenated literals,
// collapsing single-item concatenations, dropping null list items and
// inlining references to scalar values (turning foo=$(x); bar=$(foo) into
// bar=$(x)). It is pure and idempotent.
func SimplifyBasic(e Expr) (Expr, error) {
	return Rewrite(e, basicRule)
}

// Simplify applies all tricks in the book: everything SimplifyBasic does,
// plus folding of constant boolean and conditional expressions. Equally
// pure, deterministic and idempotent; non-constant subexpressions are left
// in place, never reported as errors.
func Simplify(e Expr) (Expr, error) {
	return Rewrite(e, condRule)
}

// SimplifyRule is the rule set behind Simplify in RewriteFunc form, for
// callers that drive the simplifier through a shared rewrite loop such as
// model.Project.RewriteExprs. SimplifyBasicRule is the same for
// SimplifyBasic.
func SimplifyRule(e Expr) (Expr, error) {
	return condRule(e)
}

func SimplifyBasicRule(e Expr) (Expr, error) {
	return basicRule(e)
}

func basicRule(e Expr) (Expr, error) {
	return simplifyNode(e, basicRule)
}

func condRule(e Expr) (Expr, error) {
	out, err := simplifyNode(e, condRule)
	if err != nil {
		return nil, err
	}
	return foldNode(out)
}

// simplifyNode applies the structural rules to one node whose children are
// already simplified. self is the full rule set, used when inlining a
// referenced value so that the inlined tree gets the same treatment.
func simplifyNode(e Expr, self RewriteFunc) (Expr, error) {
	switch n := e.(type) {
	case *List:
		// List order encodes multiple values; removed (null) entries can
		// simply be dropped.
		items := make([]Expr, 0, len(n.Items))
		changed := false
		for _, it := range n.Items {
			if _, isNull := it.(*Null); isNull {
				changed = true
				continue
			}
			items = append(items, it)
		}
		if !changed {
			return e, nil
		}
		if len(items) == 0 {
			return NewNull(n.Pos()), nil
		}
		return NewList(items, n.Pos()), nil

	case *Concat:
		items := make([]Expr, 0, len(n.Items))
		for _, it := range n.Items {
			if _, isNull := it.(*Null); isNull {
				continue
			}
			if lit, ok := it.(*Literal); ok && len(items) > 0 {
				if prev, ok := items[len(items)-1].(*Literal); ok {
					items[len(items)-1] = NewLiteral(prev.Value+lit.Value, prev.Pos())
					continue
				}
			}
			items = append(items, it)
		}
		switch len(items) {
		case 0:
			return NewNull(n.Pos()), nil
		case 1:
			return items[0], nil
		}
		if len(items) == len(n.Items) {
			same := true
			for i := range items {
				if items[i] != n.Items[i] {
					same = false
					break
				}
			}
			if same {
				return e, nil
			}
		}
		return NewConcat(items, n.Pos()), nil

	case *Reference:
		// A simple reference can be replaced with the referenced value,
		// but only for scalars and other references. Structured values
		// such as lists stay behind the variable to avoid duplicating
		// them, and paths must stay symbolic until toolset-specific
		// normalization has resolved their anchors.
		val, err := n.Value()
		if err != nil {
			return nil, err
		}
		switch val.(type) {
		case *Literal, *Reference, *BoolValue:
			return Rewrite(val, self)
		}
		return e, nil

	case *Bool:
		if _, ok := n.Left.(*Null); ok {
			if n.Right == nil {
				return NewNull(n.Pos()), nil
			}
			if _, ok := n.Right.(*Null); ok {
				return NewNull(n.Pos()), nil
			}
		}
		return e, nil

	case *If:
		_, yesNull := n.Yes.(*Null)
		_, noNull := n.No.(*Null)
		if yesNull && noNull {
			return NewNull(n.Pos()), nil
		}
		return e, nil

	default:
		return e, nil
	}
}

// foldNode eliminates constant boolean and conditional expressions. A
// *NonConstError from any operand just means the node cannot be folded
// yet; any other error is a real failure and propagates.
func foldNode(e Expr) (Expr, error) {
	switch n := e.(type) {
	case *Bool:
		return foldBool(n)
	case *If:
		cond, err := Truthy(n.Cond)
		if err != nil {
			if IsNonConst(err) {
				return e, nil
			}
			return nil, err
		}
		if cond {
			return n.Yes, nil
		}
		return n.No, nil
	default:
		return e, nil
	}
}

func foldBool(e *Bool) (Expr, error) {
	truthyOperand := func(op Expr) (val, known bool, err error) {
		v, err := Truthy(op)
		if err != nil {
			if IsNonConst(err) {
				return false, false, nil
			}
			return false, false, err
		}
		return v, true, nil
	}

	switch e.Op {
	case OpNot:
		l, known, err := truthyOperand(e.Left)
		if err != nil {
			return nil, err
		}
		if known {
			return NewBoolValue(!l, e.Pos()), nil
		}

	case OpAnd:
		l, lknown, err := truthyOperand(e.Left)
		if err != nil {
			return nil, err
		}
		r, rknown, err := truthyOperand(e.Right)
		if err != nil {
			return nil, err
		}
		switch {
		case lknown && rknown:
			return NewBoolValue(l && r, e.Pos()), nil
		case lknown && l:
			return e.Right, nil
		case rknown && r:
			return e.Left, nil
		}

	case OpOr:
		// Deliberately asymmetric: one constant-true side decides the
		// whole expression even when the other side cannot be evaluated
		// yet. This prunes toolset-irrelevant conditionals early and must
		// not be "fixed" into a symmetric three-valued logic.
		l, lknown, err := truthyOperand(e.Left)
		if err != nil {
			return nil, err
		}
		if lknown && l {
			return NewBoolValue(true, e.Pos()), nil
		}
		r, rknown, err := truthyOperand(e.Right)
		if err != nil {
			return nil, err
		}
		if rknown && r {
			return NewBoolValue(true, e.Pos()), nil
		}
		if lknown && rknown {
			return NewBoolValue(false, e.Pos()), nil
		}

	case OpEqual, OpNotEqual:
		eq, err := constEqual(e.Left, e.Right)
		if err != nil {
			if IsNonConst(err) {
				return e, nil
			}
			return nil, err
		}
		if e.Op == OpNotEqual {
			eq = !eq
		}
		return NewBoolValue(eq, e.Pos()), nil
	}
	return e, nil
}

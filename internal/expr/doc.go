// Package expr defines the expression tree used to represent variable
// values and conditions throughout the compiler.
//
// Values are kept in tree form until the last possible moment of
// processing and are manipulated in that form. Expression nodes are
// immutable: a transformation always produces a new tree, never edits one
// in place, which is what makes per-toolset model clones safe to process
// independently.
//
// An expression is constant when it can be evaluated right now, at
// bake-time, as opposed to depending on a setting that is only known at
// make-time (an option, or the toolset before specialization). AsConst
// returns the concrete cty.Value of a constant expression; for
// non-constant ones it returns a *NonConstError, which is a normal,
// expected control-flow signal for the simplifier and flattener, not a
// failure.
package expr

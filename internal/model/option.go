package model

import (
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabake/internal/expr"
)

// Option is a named build-time choice, e.g. a debug/release switch. Options
// with a finite Values list drive configuration expansion when a toolset
// requires flattening; options without one are fixed to their default.
type Option struct {
	Name string

	// Default is the value used when the option is not enumerable, or as
	// make-time default otherwise. HasDefault distinguishes an explicit
	// empty default from no default at all.
	Default    string
	HasDefault bool

	// Values enumerates the allowed values, nil when the option is not
	// enumerable.
	Values []string

	// Labels maps values to human-readable names used in configuration
	// display names. Missing entries fall back to the value itself.
	Labels map[string]string

	Pos *hcl.Range
}

// Label returns the display label for one of the option's values.
func (o *Option) Label(value string) string {
	if l, ok := o.Labels[value]; ok {
		return l
	}
	return value
}

// OptionMatch is one option==value test.
type OptionMatch struct {
	Option string
	Value  string
}

// Condition is a conjunction of option tests, used to tag conditional
// variable alternatives.
type Condition struct {
	Matches []OptionMatch
	Pos     *hcl.Range
}

// Eval reports whether the condition holds under a concrete assignment of
// option values.
func (c *Condition) Eval(values map[string]string) bool {
	for _, m := range c.Matches {
		if values[m.Option] != m.Value {
			return false
		}
	}
	return true
}

func (c *Condition) String() string {
	parts := make([]string, len(c.Matches))
	for i, m := range c.Matches {
		parts[i] = m.Option + "==" + m.Value
	}
	return strings.Join(parts, " and ")
}

// CondVarCase is one (condition, value) alternative of a conditional
// variable.
type CondVarCase struct {
	Cond  *Condition
	Value expr.Expr
}

// CondVar is a variable whose value differs by condition. The scope also
// holds an ordinary Variable of the same name with a placeholder value; the
// flattener resolves it to the first matching case, or to the empty string
// when no case matches.
type CondVar struct {
	Name  string
	Cases []CondVarCase
	Pos   *hcl.Range
}

// AddCase appends an alternative. Case order is evaluation order.
func (cv *CondVar) AddCase(cond *Condition, value expr.Expr) {
	cv.Cases = append(cv.Cases, CondVarCase{Cond: cond, Value: value})
}

// Resolve returns the value of the first case whose condition holds under
// the given option assignment, or an empty literal when none does.
func (cv *CondVar) Resolve(values map[string]string) expr.Expr {
	for _, c := range cv.Cases {
		if c.Cond.Eval(values) {
			return c.Value
		}
	}
	return expr.NewLiteral("", cv.Pos)
}

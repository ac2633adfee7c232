package model

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabake/internal/expr"
)

// Variable is a named binding in one scope. Its value is replaced
// atomically by the passes, never edited in place.
type Variable struct {
	Name string

	// Readonly variables reject SetValue. Used for bound settings such as
	// the toolset after specialization.
	Readonly bool

	// Inheritable property variables are visible from enclosed scopes.
	Inheritable bool

	// Property marks variables created through a property definition
	// rather than an explicit user assignment.
	Property bool

	value expr.Expr
	pos   *hcl.Range
}

// NewVariable creates a plain user variable.
func NewVariable(name string, value expr.Expr, pos *hcl.Range) *Variable {
	return &Variable{Name: name, value: value, pos: pos}
}

// Value returns the variable's current value expression.
func (v *Variable) Value() expr.Expr { return v.value }

// SetValue replaces the variable's value. Readonly variables cannot be
// changed once created.
func (v *Variable) SetValue(e expr.Expr) error {
	if v.Readonly {
		return fmt.Errorf("variable %q is read-only", v.Name)
	}
	v.value = e
	return nil
}

// setValueForced replaces the value regardless of the readonly flag. Used
// when binding settings during specialization and flattening.
func (v *Variable) setValueForced(e expr.Expr) { v.value = e }

// Pos returns where the variable was defined, or nil for synthesized ones.
func (v *Variable) Pos() *hcl.Range { return v.pos }

// expr.Var implementation, letting references see variables without the
// expression package depending on the model.

func (v *Variable) VarName() string     { return v.Name }
func (v *Variable) VarValue() expr.Expr { return v.value }
func (v *Variable) IsProperty() bool    { return v.Property }
func (v *Variable) VarPos() *hcl.Range  { return v.pos }

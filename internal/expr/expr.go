package expr

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Expr is a value expression node. All implementations are immutable; to
// change an expression, build a new one.
type Expr interface {
	// Pos returns the location of the expression in the source tree, or
	// nil for synthesized nodes with no attributable location.
	Pos() *hcl.Range

	// String returns an unambiguous symbolic representation. Two
	// expressions with equal strings are structurally equal.
	String() string

	exprNode()
}

// Var is a variable as seen from an expression reference. It is
// implemented by model.Variable; the indirection keeps this package free
// of a dependency on the model.
type Var interface {
	VarName() string
	VarValue() Expr
	IsProperty() bool
	VarPos() *hcl.Range
}

// Scope resolves variable names lexically, walking from the nearest scope
// outward and falling back to registered property defaults. Implemented by
// the model parts (project, module, target, source file).
type Scope interface {
	// ValueOf returns the value the name resolves to in this scope,
	// including property defaults. Returns an error (an
	// UnresolvedReferenceError) when the name cannot be resolved at all.
	ValueOf(name string) (Expr, error)

	// ResolveVar returns the variable object the name resolves to, or nil
	// when the name only maps to a property default or does not exist.
	ResolveVar(name string) Var
}

type base struct {
	pos *hcl.Range
}

func (b base) Pos() *hcl.Range { return b.pos }
func (base) exprNode()         {}

// Null is the empty/unset value.
type Null struct{ base }

// NewNull creates a null expression.
func NewNull(pos *hcl.Range) *Null { return &Null{base{pos}} }

func (*Null) String() string { return "null" }

// Literal holds a constant string.
type Literal struct {
	base
	Value string
}

// NewLiteral creates a literal expression.
func NewLiteral(value string, pos *hcl.Range) *Literal {
	return &Literal{base{pos}, value}
}

func (e *Literal) String() string { return e.Value }

// BoolValue is a constant boolean, true or false.
type BoolValue struct {
	base
	Value bool
}

// NewBoolValue creates a boolean constant.
func NewBoolValue(value bool, pos *hcl.Range) *BoolValue {
	return &BoolValue{base{pos}, value}
}

func (e *BoolValue) String() string {
	if e.Value {
		return "true"
	}
	return "false"
}

// List is a list of several values.
type List struct {
	base
	Items []Expr
}

// NewList creates a list expression.
func NewList(items []Expr, pos *hcl.Range) *List {
	return &List{base{pos}, items}
}

func (e *List) String() string {
	parts := make([]string, len(e.Items))
	for i, it := range e.Items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Concat is a concatenation of several expressions, typically literals and
// references expressing values such as "$(foo).cpp".
type Concat struct {
	base
	Items []Expr
}

// NewConcat creates a concatenation; it must have at least one item.
func NewConcat(items []Expr, pos *hcl.Range) *Concat {
	if len(items) == 0 {
		panic("expr: empty Concat")
	}
	return &Concat{base{pos}, items}
}

func (e *Concat) String() string {
	var sb strings.Builder
	for _, it := range e.Items {
		sb.WriteString(it.String())
	}
	return sb.String()
}

// Reference points to a variable by name, resolved lexically through the
// scope it was written in.
type Reference struct {
	base
	Var   string
	Scope Scope
}

// NewReference creates a reference bound to the scope it occurs in.
func NewReference(name string, scope Scope, pos *hcl.Range) *Reference {
	return &Reference{base{pos}, name, scope}
}

func (e *Reference) String() string { return "$(" + e.Var + ")" }

// Value returns the value of the referenced variable.
func (e *Reference) Value() (Expr, error) {
	v, err := e.Scope.ValueOf(e.Var)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Variable returns the variable object this reference points to, or nil if
// the reference is to a property default that was never explicitly set.
func (e *Reference) Variable() Var {
	return e.Scope.ResolveVar(e.Var)
}

// Placeholder stands in for a setting whose value is not yet known, most
// notably "toolset" before the model is split into toolset-specific
// copies, and option names before flattening. It allows partial evaluation
// common to all eventual values.
type Placeholder struct {
	base
	Var string
}

// NewPlaceholder creates an undetermined-value marker for the named setting.
func NewPlaceholder(name string, pos *hcl.Range) *Placeholder {
	return &Placeholder{base{pos}, name}
}

func (e *Placeholder) String() string { return "${" + e.Var + "}" }

// Anchor is the symbolic point a path is relative to.
type Anchor string

// Path anchors. Srcdir-relative paths are rewritten in terms of the top
// source directory during normalization; builddir-relative ones are
// resolved in a toolset-specific way.
const (
	AnchorSrcdir      Anchor = "@srcdir"
	AnchorTopSrcdir   Anchor = "@top_srcdir"
	AnchorBuilddir    Anchor = "@builddir"
	AnchorTopBuilddir Anchor = "@top_builddir"
)

// IsValidAnchor reports whether s names a known path anchor.
func IsValidAnchor(s string) bool {
	switch Anchor(s) {
	case AnchorSrcdir, AnchorTopSrcdir, AnchorBuilddir, AnchorTopBuilddir:
		return true
	}
	return false
}

// Path holds a file or directory name as a list of component expressions
// relative to an anchor. Components keep positional semantics, so null
// placeholders inside a path are preserved rather than dropped.
type Path struct {
	base
	Anchor     Anchor
	Components []Expr
	// AnchorFile is the file the anchor was written in. @srcdir is
	// relative to this location.
	AnchorFile string
}

// NewPath creates a path expression. The anchor file defaults to the
// position's filename when not given explicitly.
func NewPath(components []Expr, anchor Anchor, anchorFile string, pos *hcl.Range) *Path {
	if anchorFile == "" && pos != nil {
		anchorFile = pos.Filename
	}
	return &Path{base{pos}, anchor, components, anchorFile}
}

func (e *Path) String() string {
	parts := make([]string, len(e.Components))
	for i, c := range e.Components {
		parts[i] = c.String()
	}
	return string(e.Anchor) + "/" + strings.Join(parts, "/")
}

// DirPath returns the path without its last component.
func (e *Path) DirPath() *Path {
	if len(e.Components) == 0 {
		return e
	}
	return NewPath(e.Components[:len(e.Components)-1], e.Anchor, e.AnchorFile, e.pos)
}

// BoolOp is a boolean operator.
type BoolOp string

// Boolean operators. Not is unary and has no right operand.
const (
	OpAnd      BoolOp = "&&"
	OpOr       BoolOp = "||"
	OpEqual    BoolOp = "=="
	OpNotEqual BoolOp = "!="
	OpNot      BoolOp = "!"
)

// Bool is a boolean expression over one or two operands.
type Bool struct {
	base
	Op    BoolOp
	Left  Expr
	Right Expr // nil for OpNot
}

// NewBool creates a boolean expression. Right must be nil exactly when the
// operator is OpNot.
func NewBool(op BoolOp, left, right Expr, pos *hcl.Range) *Bool {
	return &Bool{base{pos}, op, left, right}
}

func (e *Bool) String() string {
	if e.Op == OpNot {
		return "!" + e.Left.String()
	}
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

// If is a conditional expression selecting between two values.
type If struct {
	base
	Cond Expr
	Yes  Expr
	No   Expr
}

// NewIf creates a conditional expression.
func NewIf(cond, yes, no Expr, pos *hcl.Range) *If {
	return &If{base{pos}, cond, yes, no}
}

func (e *If) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", e.Cond, e.Yes, e.No)
}

// Equal reports structural equality of two expressions, comparing their
// symbolic representations.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

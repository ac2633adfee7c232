// Package ast defines the nodes the parser produces and the builder
// consumes. Statements mirror the input file structure; value nodes are
// scope-free expression shapes, turned into bound expressions only once the
// builder knows which scope they live in.
package ast

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabake/internal/expr"
)

// File is one parsed input file.
type File struct {
	// Name is the path the file was read from.
	Name  string
	Stmts []Stmt
}

// Stmt is a statement in an input file.
type Stmt interface {
	Pos() *hcl.Range
	stmtNode()
}

type stmtBase struct {
	pos *hcl.Range
}

func (s stmtBase) Pos() *hcl.Range { return s.pos }
func (stmtBase) stmtNode()         {}

// Assignment sets a variable, at file level or inside a target.
type Assignment struct {
	stmtBase
	Name  string
	Value Value
}

// NewAssignment creates an assignment statement.
func NewAssignment(name string, value Value, pos *hcl.Range) *Assignment {
	return &Assignment{stmtBase{pos}, name, value}
}

// OptionDecl declares a build option.
type OptionDecl struct {
	stmtBase
	Name       string
	Default    string
	HasDefault bool
	// Values enumerates allowed values, nil when the option is open.
	Values []string
	// Labels maps values to display names used in configuration names.
	Labels map[string]string
}

// NewOptionDecl creates an option declaration.
func NewOptionDecl(name string, pos *hcl.Range) *OptionDecl {
	return &OptionDecl{stmtBase: stmtBase{pos}, Name: name}
}

// TargetDecl declares a buildable target with its body statements.
type TargetDecl struct {
	stmtBase
	Type string
	Name string
	Body []Stmt
}

// NewTargetDecl creates a target declaration.
func NewTargetDecl(typ, name string, body []Stmt, pos *hcl.Range) *TargetDecl {
	return &TargetDecl{stmtBase{pos}, typ, name, body}
}

// IfBlock guards its body statements with a condition.
type IfBlock struct {
	stmtBase
	Cond Value
	Body []Stmt
}

// NewIfBlock creates a conditional block.
func NewIfBlock(cond Value, body []Stmt, pos *hcl.Range) *IfBlock {
	return &IfBlock{stmtBase{pos}, cond, body}
}

// SubmoduleInclude pulls another input file into the project as a
// submodule of the current one.
type SubmoduleInclude struct {
	stmtBase
	Path string
}

// NewSubmoduleInclude creates a submodule inclusion.
func NewSubmoduleInclude(path string, pos *hcl.Range) *SubmoduleInclude {
	return &SubmoduleInclude{stmtBase{pos}, path}
}

// PropertyDefault sets a variable only when it was not set already.
type PropertyDefault struct {
	stmtBase
	Name  string
	Value Value
}

// NewPropertyDefault creates a non-overwriting default assignment.
func NewPropertyDefault(name string, value Value, pos *hcl.Range) *PropertyDefault {
	return &PropertyDefault{stmtBase{pos}, name, value}
}

// Value is a scope-free expression shape.
type Value interface {
	Pos() *hcl.Range
	valueNode()
}

type valueBase struct {
	pos *hcl.Range
}

func (v valueBase) Pos() *hcl.Range { return v.pos }
func (valueBase) valueNode()        {}

// Text is literal text.
type Text struct {
	valueBase
	Text string
}

// NewText creates a literal text value.
func NewText(text string, pos *hcl.Range) *Text {
	return &Text{valueBase{pos}, text}
}

// Ref is a $(name) variable reference.
type Ref struct {
	valueBase
	Name string
}

// NewRef creates a variable reference value.
func NewRef(name string, pos *hcl.Range) *Ref {
	return &Ref{valueBase{pos}, name}
}

// Concat is adjacent value pieces forming one string, e.g. "$(name).cpp".
type Concat struct {
	valueBase
	Parts []Value
}

// NewConcat creates a concatenation value.
func NewConcat(parts []Value, pos *hcl.Range) *Concat {
	return &Concat{valueBase{pos}, parts}
}

// Path is an anchored path such as @srcdir/foo/bar.
type Path struct {
	valueBase
	Anchor     expr.Anchor
	Components []Value
}

// NewPath creates an anchored path value.
func NewPath(anchor expr.Anchor, components []Value, pos *hcl.Range) *Path {
	return &Path{valueBase{pos}, anchor, components}
}

// List is a list of values.
type List struct {
	valueBase
	Items []Value
}

// NewList creates a list value.
func NewList(items []Value, pos *hcl.Range) *List {
	return &List{valueBase{pos}, items}
}

// Bool is a boolean expression over values, produced by the condition
// grammar. Right is nil for the unary not operator.
type Bool struct {
	valueBase
	Op    expr.BoolOp
	Left  Value
	Right Value
}

// NewBool creates a boolean condition value.
func NewBool(op expr.BoolOp, left, right Value, pos *hcl.Range) *Bool {
	return &Bool{valueBase{pos}, op, left, right}
}

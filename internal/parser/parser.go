// Package parser reads .mbk input files. The files are HCL documents; the
// string values inside them carry the value syntax ($(var) references,
// @srcdir style path anchors) scanned here into ast value nodes.
package parser

import (
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/metabake/internal/ast"
	"github.com/vk/metabake/internal/diag"
)

// ParseFile reads and parses one input file.
func ParseFile(path string) (*ast.File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		// No position here; includers attach the triggering one.
		return nil, diag.Errorf(nil, "cannot read input file: %v", err)
	}
	return Parse(src, path)
}

// Parse parses input file source. The filename is used in positions only.
func Parse(src []byte, filename string) (*ast.File, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fromDiagnostics(diags)
	}
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return nil, diag.Errorf(nil, "unsupported input syntax in %s", filename)
	}
	stmts, err := parseBody(body)
	if err != nil {
		return nil, err
	}
	return &ast.File{Name: filename, Stmts: stmts}, nil
}

func fromDiagnostics(diags hcl.Diagnostics) error {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		msg := d.Summary
		if d.Detail != "" {
			msg = fmt.Sprintf("%s: %s", d.Summary, d.Detail)
		}
		return diag.NewParseError(msg, d.Subject)
	}
	return diag.NewParseError("invalid input file", nil)
}

// parseBody turns attributes and blocks into statements, interleaved in
// source order. HCL keeps attributes in a map, so they are sorted back by
// their source position first.
func parseBody(body *hclsyntax.Body) ([]ast.Stmt, error) {
	type item struct {
		attr  *hclsyntax.Attribute
		block *hclsyntax.Block
		start int
	}
	items := make([]item, 0, len(body.Attributes)+len(body.Blocks))
	for _, attr := range body.Attributes {
		items = append(items, item{attr: attr, start: attr.SrcRange.Start.Byte})
	}
	for _, block := range body.Blocks {
		items = append(items, item{block: block, start: block.TypeRange.Start.Byte})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].start < items[j].start })

	var stmts []ast.Stmt
	for _, it := range items {
		var (
			stmt ast.Stmt
			err  error
		)
		if it.attr != nil {
			stmt, err = parseAttribute(it.attr)
		} else {
			stmt, err = parseBlock(it.block)
		}
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func parseAttribute(attr *hclsyntax.Attribute) (ast.Stmt, error) {
	rng := attr.SrcRange
	val, err := evalValue(attr.Expr)
	if err != nil {
		return nil, err
	}
	v, err := ctyToValue(val, &rng)
	if err != nil {
		return nil, err
	}
	return ast.NewAssignment(attr.Name, v, &rng), nil
}

func parseBlock(block *hclsyntax.Block) (ast.Stmt, error) {
	rng := block.DefRange()
	switch block.Type {
	case "option":
		if len(block.Labels) != 1 {
			return nil, diag.NewParseError(`option block needs one label: option "NAME"`, &rng)
		}
		return parseOption(block.Labels[0], block.Body, &rng)

	case "target":
		if len(block.Labels) != 2 {
			return nil, diag.NewParseError(`target block needs two labels: target "TYPE" "name"`, &rng)
		}
		body, err := parseBody(block.Body)
		if err != nil {
			return nil, err
		}
		return ast.NewTargetDecl(block.Labels[0], block.Labels[1], body, &rng), nil

	case "if":
		if len(block.Labels) != 1 {
			return nil, diag.NewParseError(`if block needs one label: if "CONDITION"`, &rng)
		}
		condRng := block.LabelRanges[0]
		cond, err := ParseCondition(block.Labels[0], &condRng)
		if err != nil {
			return nil, err
		}
		body, err := parseBody(block.Body)
		if err != nil {
			return nil, err
		}
		return ast.NewIfBlock(cond, body, &rng), nil

	case "submodule":
		if len(block.Labels) != 1 {
			return nil, diag.NewParseError(`submodule block needs one label: submodule "path"`, &rng)
		}
		if len(block.Body.Attributes) != 0 || len(block.Body.Blocks) != 0 {
			return nil, diag.NewParseError("submodule block must be empty", &rng)
		}
		return ast.NewSubmoduleInclude(block.Labels[0], &rng), nil

	case "defaults":
		if len(block.Labels) != 0 {
			return nil, diag.NewParseError("defaults block takes no labels", &rng)
		}
		return parseDefaults(block.Body, &rng)

	default:
		return nil, diag.NewParseError(fmt.Sprintf("unknown block type %q", block.Type), &rng)
	}
}

func parseOption(name string, body *hclsyntax.Body, rng *hcl.Range) (ast.Stmt, error) {
	decl := ast.NewOptionDecl(name, rng)
	if len(body.Blocks) != 0 {
		brng := body.Blocks[0].DefRange()
		return nil, diag.NewParseError("option block cannot contain nested blocks", &brng)
	}
	for _, attr := range body.Attributes {
		arng := attr.SrcRange
		val, err := evalValue(attr.Expr)
		if err != nil {
			return nil, err
		}
		switch attr.Name {
		case "default":
			s, err := ctyString(val, &arng)
			if err != nil {
				return nil, err
			}
			decl.Default = s
			decl.HasDefault = true
		case "values":
			list, err := ctyStringList(val, &arng)
			if err != nil {
				return nil, err
			}
			decl.Values = list
		case "labels":
			m, err := ctyStringMap(val, &arng)
			if err != nil {
				return nil, err
			}
			decl.Labels = m
		default:
			return nil, diag.NewParseError(fmt.Sprintf("unknown option attribute %q", attr.Name), &arng)
		}
	}
	return decl, nil
}

// parseDefaults flattens a defaults block into one PropertyDefault per
// attribute. Several attributes mean several statements, so the block
// itself expands into an if-less group.
func parseDefaults(body *hclsyntax.Body, rng *hcl.Range) (ast.Stmt, error) {
	if len(body.Blocks) != 0 {
		brng := body.Blocks[0].DefRange()
		return nil, diag.NewParseError("defaults block cannot contain nested blocks", &brng)
	}
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, attr := range body.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})
	var stmts []ast.Stmt
	for _, attr := range attrs {
		arng := attr.SrcRange
		val, err := evalValue(attr.Expr)
		if err != nil {
			return nil, err
		}
		v, err := ctyToValue(val, &arng)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, ast.NewPropertyDefault(attr.Name, v, &arng))
	}
	// An always-true group keeps the statement shape uniform.
	return ast.NewIfBlock(nil, stmts, rng), nil
}

func evalValue(e hclsyntax.Expression) (cty.Value, error) {
	val, diags := e.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, fromDiagnostics(diags)
	}
	return val, nil
}

func ctyString(v cty.Value, rng *hcl.Range) (string, error) {
	if v.IsNull() || v.Type() != cty.String {
		return "", diag.NewParseError("expected a string value", rng)
	}
	return v.AsString(), nil
}

func ctyStringList(v cty.Value, rng *hcl.Range) ([]string, error) {
	if v.IsNull() || !(v.Type().IsTupleType() || v.Type().IsListType()) {
		return nil, diag.NewParseError("expected a list of strings", rng)
	}
	out := make([]string, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		s, err := ctyString(ev, rng)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func ctyStringMap(v cty.Value, rng *hcl.Range) (map[string]string, error) {
	if v.IsNull() || !(v.Type().IsObjectType() || v.Type().IsMapType()) {
		return nil, diag.NewParseError("expected a map of strings", rng)
	}
	out := map[string]string{}
	for it := v.ElementIterator(); it.Next(); {
		kv, ev := it.Element()
		k, err := ctyString(kv, rng)
		if err != nil {
			return nil, err
		}
		s, err := ctyString(ev, rng)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}

// ctyToValue maps an HCL attribute value to an ast value node. Strings go
// through the value scanner, lists element-wise.
func ctyToValue(v cty.Value, rng *hcl.Range) (ast.Value, error) {
	if v.IsNull() {
		return ast.NewList(nil, rng), nil
	}
	switch {
	case v.Type() == cty.String:
		return scanValue(v.AsString(), rng)
	case v.Type() == cty.Bool:
		if v.True() {
			return ast.NewText("true", rng), nil
		}
		return ast.NewText("false", rng), nil
	case v.Type() == cty.Number:
		return ast.NewText(v.AsBigFloat().Text('f', -1), rng), nil
	case v.Type().IsTupleType() || v.Type().IsListType():
		items := make([]ast.Value, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			item, err := ctyToValue(ev, rng)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return ast.NewList(items, rng), nil
	default:
		return nil, diag.NewParseError(fmt.Sprintf("unsupported value type %s", v.Type().FriendlyName()), rng)
	}
}

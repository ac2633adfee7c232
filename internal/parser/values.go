package parser

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabake/internal/ast"
	"github.com/vk/metabake/internal/diag"
	"github.com/vk/metabake/internal/expr"
)

// scanValue turns one source string into a value node. Strings starting
// with a path anchor become paths with per-component scanning; everything
// else is scanned for $(name) references.
func scanValue(s string, rng *hcl.Range) (ast.Value, error) {
	if strings.HasPrefix(s, "@") {
		anchor, rest, found := strings.Cut(s, "/")
		if !expr.IsValidAnchor(anchor) {
			return nil, diag.NewParseError(fmt.Sprintf("unknown path anchor %q", anchor), rng)
		}
		var components []ast.Value
		if found {
			for _, comp := range strings.Split(rest, "/") {
				c, err := scanText(comp, rng)
				if err != nil {
					return nil, err
				}
				components = append(components, c)
			}
		}
		return ast.NewPath(expr.Anchor(anchor), components, rng), nil
	}
	return scanText(s, rng)
}

// scanText splits a string into literal text and $(name) references.
func scanText(s string, rng *hcl.Range) (ast.Value, error) {
	var parts []ast.Value
	for {
		i := strings.Index(s, "$(")
		if i < 0 {
			break
		}
		if i > 0 {
			parts = append(parts, ast.NewText(s[:i], rng))
		}
		s = s[i+2:]
		j := strings.IndexByte(s, ')')
		if j < 0 {
			return nil, diag.NewParseError("unterminated variable reference, missing \")\"", rng)
		}
		name := s[:j]
		if name == "" {
			return nil, diag.NewParseError("empty variable reference \"$()\"", rng)
		}
		parts = append(parts, ast.NewRef(name, rng))
		s = s[j+1:]
	}
	if s != "" || len(parts) == 0 {
		parts = append(parts, ast.NewText(s, rng))
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return ast.NewConcat(parts, rng), nil
}

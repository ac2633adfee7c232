// Package toolset defines the output-format capability interface and the
// built-in emitters. Emitters are deliberately thin text writers; the
// interesting work has happened in the pipeline by the time they run.
package toolset

import (
	"context"
	"strings"

	"github.com/vk/metabake/internal/expr"
	"github.com/vk/metabake/internal/model"
)

// Toolset is one supported output format.
type Toolset interface {
	// Name is the identifier used in the toolsets list and on the CLI.
	Name() string

	// DirSep is the directory separator of the emitted files.
	DirSep() string

	// RequiresFlatten reports whether the format lacks conditional syntax
	// and needs the model expanded into explicit configurations.
	RequiresFlatten() bool

	// BuilddirFor returns the build directory of a target as an anchored
	// path. The anchor must already be a normalized one.
	BuilddirFor(t *model.Target) *expr.Path

	// Generate writes the toolset's output files for a finalized project.
	Generate(ctx context.Context, p *model.Project, outDir string) error
}

// render evaluates an expression for output. Constants render to their
// string form with the toolset's directory separator; anything still
// symbolic renders symbolically, which only happens for formats that can
// express it.
func render(e expr.Expr, sep string) string {
	v, err := expr.AsConst(e)
	if err != nil {
		return e.String()
	}
	s := expr.FormatConst(v)
	if sep != "/" {
		s = strings.ReplaceAll(s, "/", sep)
	}
	return s
}

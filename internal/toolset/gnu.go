package toolset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/metabake/internal/ctxlog"
	"github.com/vk/metabake/internal/expr"
	"github.com/vk/metabake/internal/model"
)

// Gnu emits a GNU make makefile. Make has variables and conditionals of
// its own, so the model is not flattened and leftover symbolic values are
// acceptable.
type Gnu struct{}

func (Gnu) Name() string          { return "gnu" }
func (Gnu) DirSep() string        { return "/" }
func (Gnu) RequiresFlatten() bool { return false }

func (Gnu) BuilddirFor(t *model.Target) *expr.Path {
	return expr.NewPath(nil, expr.AnchorTopBuilddir, "", nil)
}

func (g Gnu) Generate(ctx context.Context, p *model.Project, outDir string) error {
	var b strings.Builder
	b.WriteString("# generated by metabake, do not edit\n\n")

	for _, m := range p.Modules() {
		for _, v := range m.Vars() {
			if v.Property {
				continue
			}
			fmt.Fprintf(&b, "%s = %s\n", makeVarName(v.Name), render(v.Value(), "/"))
		}
	}
	b.WriteString("\n")

	var names []string
	for _, t := range p.Targets() {
		names = append(names, t.Name)
	}
	fmt.Fprintf(&b, "all: %s\n\n", strings.Join(names, " "))

	for _, t := range p.Targets() {
		var srcs []string
		for _, sf := range t.Sources() {
			srcs = append(srcs, render(sf.Name, "/"))
		}
		fmt.Fprintf(&b, "%s: %s\n", t.Name, strings.Join(srcs, " "))
		for _, v := range t.Vars() {
			if v.Property {
				continue
			}
			fmt.Fprintf(&b, "%s_%s = %s\n", makeVarName(t.Name), makeVarName(v.Name), render(v.Value(), "/"))
		}
		b.WriteString("\n")
	}

	out := filepath.Join(outDir, "Makefile")
	ctxlog.FromContext(ctx).Info("writing makefile", "path", out)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(out, []byte(b.String()), 0o644)
}

func makeVarName(name string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(name))
}

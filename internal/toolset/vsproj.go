package toolset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/metabake/internal/ctxlog"
	"github.com/vk/metabake/internal/expr"
	"github.com/vk/metabake/internal/model"
)

// Vsproj emits Visual Studio style project files. The format is static, so
// it requires the flattened configuration matrix and lists each target's
// distinct configurations.
type Vsproj struct{}

func (Vsproj) Name() string          { return "vsproj" }
func (Vsproj) DirSep() string        { return "\\" }
func (Vsproj) RequiresFlatten() bool { return true }

func (Vsproj) BuilddirFor(t *model.Target) *expr.Path {
	return expr.NewPath([]expr.Expr{expr.NewLiteral("vc_"+t.Name, nil)}, expr.AnchorTopBuilddir, "", nil)
}

func (v Vsproj) Generate(ctx context.Context, p *model.Project, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	log := ctxlog.FromContext(ctx)
	for _, t := range p.Targets() {
		out := filepath.Join(outDir, t.Name+".vcproj")
		log.Info("writing project file", "path", out, "target", t.Name)
		if err := os.WriteFile(out, []byte(v.renderTarget(t)), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (v Vsproj) renderTarget(t *model.Target) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# project %s (%s), generated by metabake\n", t.Name, t.Type)

	b.WriteString("configurations:\n")
	for _, name := range distinctNames(t) {
		fmt.Fprintf(&b, "  - %s\n", name)
	}

	b.WriteString("sources:\n")
	for _, sf := range t.Sources() {
		fmt.Fprintf(&b, "  - %s\n", render(sf.Name, "\\"))
	}

	seen := map[string]bool{}
	for _, c := range t.Configs {
		display := t.DistinctConfigs[c.Name]
		if seen[display] {
			continue
		}
		seen[display] = true
		fmt.Fprintf(&b, "settings %q:\n", display)
		keys := make([]string, 0, len(c.Vars))
		for k := range c.Vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s = %s\n", k, strings.ReplaceAll(c.Vars[k], "/", "\\"))
		}
	}
	return b.String()
}

// distinctNames returns the target's reduced configuration names, in
// configuration order, without duplicates.
func distinctNames(t *model.Target) []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range t.Configs {
		name := t.DistinctConfigs[c.Name]
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

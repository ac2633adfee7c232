package interp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/metabake/internal/flatten"
	"github.com/vk/metabake/internal/registry"
	"github.com/vk/metabake/internal/toolset"
)

// writeProject materializes a set of input files in a temp dir and returns
// the path of the top one.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return filepath.Join(dir, "main.mbk")
}

func TestPipelineWithSubmodule(t *testing.T) {
	top := writeProject(t, map[string]string{
		"main.mbk": `
toolsets = ["gnu", "vsproj"]

submodule "lib/lib.mbk" {}

target "exe" "hello" {
  sources = ["hello.cpp"]
}
`,
		"lib/lib.mbk": `
corelib = "core"

target "library" "core" {
  sources = ["core.cpp"]
}
`,
	})

	ctx := context.Background()
	i := New()
	require.NoError(t, i.AddModule(ctx, top))
	assert.Equal(t, StateBuilt, i.State())

	require.NoError(t, i.Finalize(ctx))
	assert.Equal(t, StateFinalized, i.State())

	names, err := i.Toolsets()
	require.NoError(t, err)
	assert.Equal(t, []string{"gnu", "vsproj"}, names)

	require.Len(t, i.Project().Modules(), 2)
	require.Len(t, i.Project().Targets(), 2)

	// Source paths were anchored at the project root during finalization.
	hello := i.Project().TopModule().Target("hello")
	require.NotNil(t, hello)
	assert.Equal(t, "@top_srcdir/hello.cpp", hello.Sources()[0].Name.String())
	core := i.Project().Modules()[1].Target("core")
	require.NotNil(t, core)
	assert.Equal(t, "@top_srcdir/lib/core.cpp", core.Sources()[0].Name.String())
}

func TestMissingSubmoduleReportsIncludePosition(t *testing.T) {
	top := writeProject(t, map[string]string{
		"main.mbk": "toolsets = [\"gnu\"]\n\nsubmodule \"lib/nope.mbk\" {}\n",
	})

	err := New().AddModule(context.Background(), top)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read input file")
	assert.Contains(t, err.Error(), "main.mbk:3")
}

func TestSpecializationBindsToolset(t *testing.T) {
	top := writeProject(t, map[string]string{
		"main.mbk": `
toolsets = ["gnu"]

libs = "base"

if "toolset=='gnu'" {
  libs = "pthread"
}
`,
	})

	ctx := context.Background()
	i := New()
	require.NoError(t, i.AddModule(ctx, top))
	require.NoError(t, i.Finalize(ctx))

	c, err := i.SpecializeForToolset(ctx, toolset.Gnu{})
	require.NoError(t, err)

	v, err := c.TopModule().ValueOf("libs")
	require.NoError(t, err)
	assert.Equal(t, "pthread", v.String())

	// The original model stays symbolic for the next toolset.
	orig, err := i.Project().TopModule().ValueOf("libs")
	require.NoError(t, err)
	assert.NotEqual(t, "pthread", orig.String())
}

func TestSpecializationResolvesBuilddir(t *testing.T) {
	top := writeProject(t, map[string]string{
		"main.mbk": `
toolsets = ["vsproj"]

target "exe" "hello" {
  outfile = "@builddir/hello.exe"
}
`,
	})

	ctx := context.Background()
	i := New()
	require.NoError(t, i.AddModule(ctx, top))
	require.NoError(t, i.Finalize(ctx))

	c, err := i.SpecializeForToolset(ctx, toolset.Vsproj{})
	require.NoError(t, err)

	v, err := c.TopModule().Target("hello").ValueOf("outfile")
	require.NoError(t, err)
	assert.Equal(t, "@top_builddir/vc_hello/hello.exe", v.String())
}

func TestGenerateWritesOutputs(t *testing.T) {
	top := writeProject(t, map[string]string{
		"main.mbk": `
toolsets = ["gnu", "vsproj"]

option "DEBUG" {
  default = "0"
  values  = ["0", "1"]
}

target "exe" "hello" {
  sources = ["hello.cpp"]
  if "DEBUG=='1'" {
    cflags = "-g"
  }
}
`,
	})

	ctx := context.Background()
	i := New()
	require.NoError(t, i.AddModule(ctx, top))
	require.NoError(t, i.Finalize(ctx))

	names, err := i.Toolsets()
	require.NoError(t, err)

	outDir := t.TempDir()
	require.NoError(t, i.Generate(ctx, registry.Builtin(), names, outDir))

	mk, err := os.ReadFile(filepath.Join(outDir, "gnu", "Makefile"))
	require.NoError(t, err)
	assert.Contains(t, string(mk), "hello:")

	vc, err := os.ReadFile(filepath.Join(outDir, "vsproj", "hello.vcproj"))
	require.NoError(t, err)
	assert.Contains(t, string(vc), "settings \"0\":")
	assert.Contains(t, string(vc), "settings \"1\":")
	assert.Contains(t, string(vc), "cflags = -g")
}

func TestGenerateUnknownToolset(t *testing.T) {
	top := writeProject(t, map[string]string{
		"main.mbk": "toolsets = [\"borland\"]\n",
	})

	ctx := context.Background()
	i := New()
	require.NoError(t, i.AddModule(ctx, top))
	require.NoError(t, i.Finalize(ctx))

	names, err := i.Toolsets()
	require.NoError(t, err)

	err = i.Generate(ctx, registry.Builtin(), names, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown toolset "borland"`)
}

func TestStateGuards(t *testing.T) {
	i := New()
	assert.Equal(t, StateEmpty, i.State())

	err := i.Finalize(context.Background())
	require.Error(t, err)

	_, err = i.SpecializeForToolset(context.Background(), toolset.Gnu{})
	require.Error(t, err)

	top := writeProject(t, map[string]string{"main.mbk": "toolsets = [\"gnu\"]\n"})
	require.NoError(t, i.AddModule(context.Background(), top))
	require.NoError(t, i.Finalize(context.Background()))

	err = i.AddModule(context.Background(), top)
	require.Error(t, err)
}

func TestToolsetsMissing(t *testing.T) {
	top := writeProject(t, map[string]string{"main.mbk": "x = \"1\"\ny = \"$(x)\"\n"})

	i := New()
	require.NoError(t, i.AddModule(context.Background(), top))
	require.NoError(t, i.Finalize(context.Background()))

	_, err := i.Toolsets()
	require.Error(t, err)
}

func TestUnusedVariableWarning(t *testing.T) {
	top := writeProject(t, map[string]string{
		"main.mbk": "toolsets = [\"gnu\"]\n\nforgotten = \"x\"\n",
	})

	i := New()
	require.NoError(t, i.AddModule(context.Background(), top))
	require.NoError(t, i.Finalize(context.Background()))

	ws := i.Warnings().All()
	require.Len(t, ws, 1)
	assert.Contains(t, ws[0].Msg, "forgotten")
}

func TestFlattenedConfigsOnSpecializedClone(t *testing.T) {
	top := writeProject(t, map[string]string{
		"main.mbk": `
toolsets = ["vsproj"]

option "DEBUG" {
  values = ["0", "1"]
  labels = { "0" = "Release", "1" = "Debug" }
}

target "exe" "hello" {}
`,
	})

	ctx := context.Background()
	i := New()
	require.NoError(t, i.AddModule(ctx, top))
	require.NoError(t, i.Finalize(ctx))

	c, err := i.SpecializeForToolset(ctx, toolset.Vsproj{})
	require.NoError(t, err)
	require.NoError(t, flatten.Flatten(ctx, c))

	require.Len(t, c.Configs, 2)
	assert.Equal(t, "Release", c.Configs[0].Name)
	assert.Equal(t, "Debug", c.Configs[1].Name)
}

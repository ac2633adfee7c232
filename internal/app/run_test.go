package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.mbk"), []byte(src), 0o644))
	return dir
}

const helloProject = `
toolsets = ["gnu"]

target "exe" "hello" {
  sources = ["hello.cpp"]
}
`

func TestRunGeneratesOutput(t *testing.T) {
	input := writeInput(t, helloProject)
	outDir := t.TempDir()

	cfg, err := NewConfig(Config{
		InputPath: input,
		OutputDir: outDir,
		LogLevel:  "error",
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, New(&out, cfg).Run(context.Background()))

	mk, err := os.ReadFile(filepath.Join(outDir, "gnu", "Makefile"))
	require.NoError(t, err)
	assert.Contains(t, string(mk), "hello:")

	// Summary table on stdout.
	assert.Contains(t, out.String(), "TOOLSET")
	assert.Contains(t, out.String(), "gnu")
}

func TestRunToolsetOverride(t *testing.T) {
	input := writeInput(t, helloProject)
	outDir := t.TempDir()

	cfg, err := NewConfig(Config{
		InputPath: input,
		OutputDir: outDir,
		Toolsets:  []string{"vsproj"},
		LogLevel:  "error",
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, New(&out, cfg).Run(context.Background()))

	_, err = os.Stat(filepath.Join(outDir, "vsproj", "hello.vcproj"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "gnu"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunDump(t *testing.T) {
	input := writeInput(t, helloProject)

	cfg, err := NewConfig(Config{InputPath: input, Dump: true, LogLevel: "error"})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, New(&out, cfg).Run(context.Background()))

	assert.Contains(t, out.String(), "modules:")
	assert.Contains(t, out.String(), "name: hello")
}

func TestRunBadInput(t *testing.T) {
	input := writeInput(t, `toolsets = ["gnu"]`+"\n"+`x = "$(nope)"`+"\n")

	cfg, err := NewConfig(Config{InputPath: input, OutputDir: t.TempDir(), LogLevel: "error"})
	require.NoError(t, err)

	var out bytes.Buffer
	err = New(&out, cfg).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown variable "nope"`)
}

func TestNewConfigValidation(t *testing.T) {
	_, err := NewConfig(Config{})
	require.Error(t, err)

	cfg, err := NewConfig(Config{InputPath: "a.mbk"})
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.OutputDir)
}

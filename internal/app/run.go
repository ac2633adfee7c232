package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/vk/metabake/internal/ctxlog"
	"github.com/vk/metabake/internal/dumper"
	"github.com/vk/metabake/internal/fsutil"
	"github.com/vk/metabake/internal/interp"
	"github.com/vk/metabake/internal/model"
)

// Run executes the full pipeline: load and finalize the model, then either
// dump it or generate output for every requested toolset.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	input, err := fsutil.ResolveInput(a.config.InputPath)
	if err != nil {
		return err
	}
	a.logger.Info("loading project", "input", input)

	i := interp.New()
	if err := i.AddModule(ctx, input); err != nil {
		return err
	}
	if err := i.Finalize(ctx); err != nil {
		return err
	}

	if a.config.Dump {
		return dumper.Dump(a.outW, i.Project())
	}

	names := a.config.Toolsets
	if len(names) == 0 {
		if names, err = i.Toolsets(); err != nil {
			return err
		}
	}

	if err := i.Generate(ctx, a.registry, names, a.config.OutputDir); err != nil {
		return err
	}

	a.printSummary(names, i.Project())
	a.logger.Info("done", "toolsets", len(names), "warnings", len(i.Warnings().All()))
	return nil
}

// printSummary renders a small per-toolset result table to the output.
func (a *App) printSummary(names []string, p *model.Project) {
	table := tablewriter.NewWriter(a.outW)
	table.SetHeader([]string{"Toolset", "Output", "Targets"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})
	for _, name := range names {
		table.Append([]string{
			name,
			filepath.Join(a.config.OutputDir, name),
			strconv.Itoa(len(p.Targets())),
		})
	}
	table.Render()
	fmt.Fprintln(a.outW)
}

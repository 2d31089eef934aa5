// Package commands implements the erdgen subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/erdgen/compiler/load"
	"github.com/syssam/erdgen/graph"
	"github.com/syssam/erdgen/internal/cli/config"
)

// errNoInput is returned by commands that need a diagram.
var errNoInput = errors.New("no diagram given: pass --input or set input in erdgen.yaml")

// loadGraph parses the configured diagram and builds its dependency graph.
// Warnings are logged at debug level; they are reported in full by doctor.
func loadGraph(ctx context.Context, cfg *config.Config) (*graph.Graph, error) {
	if cfg.Input == "" {
		return nil, errNoInput
	}
	log := config.GetLogger(ctx)
	m, err := load.Load(cfg.Input)
	if err != nil {
		return nil, err
	}
	m.Exclude = cfg.Exclude
	g, err := graph.Build(m, graph.InferForeignKeys(cfg.InferForeignKeys))
	if err != nil {
		return nil, err
	}
	for _, w := range g.Report.Warnings() {
		log.DebugContext(ctx, "diagram warning", "kind", w.Kind, "table", w.Table, "column", w.Column, "message", w.Message)
	}
	log.InfoContext(ctx, "loaded diagram",
		"input", cfg.Input,
		"tables", len(g.Order),
		"warnings", g.Report.Len(),
		"failed", len(g.Failed),
	)
	return g, nil
}

// printf writes to the command output.
func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

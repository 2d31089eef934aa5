package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/syssam/erdgen/compiler/gen"
	"github.com/syssam/erdgen/internal/cli/config"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the dependency order and the files generate would write",
		Long: `Print every table in dependency order with the tables it references and
the files generate would write for it. Nothing is written.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlan(cmd)
		},
	}
	cmd.Flags().StringSlice("artifacts", nil, "Artifact kinds to plan (migration,model,handler,routes,seeder)")
	return cmd
}

func runPlan(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := config.Get(ctx)
	g, err := loadGraph(ctx, cfg)
	if err != nil {
		return err
	}
	artifacts, err := gen.ParseArtifacts(cfg.Artifacts)
	if err != nil {
		return err
	}
	pkg := cfg.Package
	if pkg == "" {
		pkg = "example.com/app"
	}
	generator, err := gen.New(g,
		gen.WithTarget(cfg.Output),
		gen.WithPackage(pkg),
		gen.WithArtifacts(artifacts...),
	)
	if err != nil {
		return err
	}
	files := make(map[string][]string)
	var shared []string
	for _, f := range generator.Plan() {
		if f.Table == "" {
			shared = append(shared, f.Path)
			continue
		}
		files[f.Table] = append(files[f.Table], f.Path)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Table", "References", "Files"})
	for i, tbl := range g.Order {
		refs := strings.Join(tbl.References(), ", ")
		out := strings.Join(files[tbl.Name], "\n")
		switch {
		case g.Failed[tbl.Name] != nil:
			out = "skipped: " + g.Failed[tbl.Name].Error()
		case g.Excluded(tbl.Name):
			out += "\n(not seeded)"
		}
		t.AppendRow(table.Row{i + 1, tbl.Name, refs, out})
		t.AppendSeparator()
	}
	t.AppendRow(table.Row{"", "shared", "", strings.Join(shared, "\n")})
	t.Render()
	return nil
}

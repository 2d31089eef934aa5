package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/syssam/erdgen/compiler/diag"
	"github.com/syssam/erdgen/graph"
	"github.com/syssam/erdgen/internal/cli/config"
	"github.com/syssam/erdgen/schema"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Table string
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report how the diagram was understood",
		Long: `Print every table with its columns, the types they resolved to and the
connectors drawn from it, followed by the warnings found while resolving the
diagram: invalid lengths, unknown types, _id columns without a connector,
foreign keys whose type differs from the referenced key, and declarations
whose inline parameters disagree with their separate fields.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Table, "table", "", "Only report this table")
	return cmd
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	ctx := cmd.Context()
	g, err := loadGraph(ctx, config.Get(ctx))
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	tables := g.Order
	if opts.Table != "" {
		t := g.Table(opts.Table)
		if t == nil {
			return fmt.Errorf("table %q is not in the diagram", opts.Table)
		}
		tables = []*schema.Table{t}
	}
	for _, t := range tables {
		renderTable(w, g, t)
	}
	renderWarnings(w, g, opts.Table)
	return nil
}

// renderTable prints the columns and connectors of t.
func renderTable(w io.Writer, g *graph.Graph, t *schema.Table) {
	title := color.New(color.Bold).Sprint(t.Name)
	if g.Excluded(t.Name) {
		title += color.New(color.FgHiBlack).Sprint(" (excluded from seeding)")
	}
	_, _ = fmt.Fprintf(w, "\n%s\n", title)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Column", "Declared", "Resolved", "Flags", "References"})
	for _, c := range t.Columns {
		var ref string
		if fk := t.ForeignKey(c.Name); fk != nil {
			ref = fk.RefTable + "." + fk.RefColumn
			if fk.Inferred {
				ref += " (inferred)"
			}
		}
		tw.AppendRow(table.Row{c.Name, c.RawType, c.Type.String(), flags(t, c), ref})
	}
	tw.Render()

	for _, conn := range t.Connectors {
		_, _ = fmt.Fprintf(w, "  connector %s: (%s) -> %s (%s) on delete %s, on update %s\n",
			conn.Name,
			strings.Join(conn.Columns, ", "),
			conn.RefTable,
			strings.Join(conn.RefColumns, ", "),
			conn.OnDelete, conn.OnUpdate,
		)
	}
	if err := g.Failed[t.Name]; err != nil {
		_, _ = fmt.Fprintf(w, "  %s %v\n", color.New(color.FgRed).Sprint("FAILED"), err)
	}
}

func flags(t *schema.Table, c *schema.Column) string {
	var fs []string
	if c.Primary {
		fs = append(fs, "PK")
	}
	if c.AutoIncrement {
		fs = append(fs, "AI")
	}
	if c.NotNull {
		fs = append(fs, "NN")
	}
	if c.Unique && !c.Primary {
		fs = append(fs, "UQ")
	}
	if t.Collapsed(c) {
		fs = append(fs, "auto")
	}
	return strings.Join(fs, " ")
}

// renderWarnings prints the warnings of the report, restricted to table
// when not empty.
func renderWarnings(w io.Writer, g *graph.Graph, table string) {
	warnings := g.Report.Warnings()
	if table != "" {
		warnings = g.Report.For(table)
	}
	_, _ = fmt.Fprintln(w)
	if len(warnings) == 0 && len(g.Failed) == 0 {
		_, _ = fmt.Fprintln(w, color.New(color.FgGreen).Sprint("no issues found"))
		return
	}
	for _, warning := range warnings {
		_, _ = fmt.Fprintf(w, "%s %s\n", severity(warning.Kind), warning)
	}
	_, _ = fmt.Fprintf(w, "\n%d warnings, %d failed tables\n", len(warnings), len(g.Failed))
}

// severity labels a warning kind. Kinds that change the generated schema
// are yellow, name hints magenta and other informational kinds cyan.
func severity(k diag.Kind) string {
	label := fmt.Sprintf("[%s]", k)
	switch k {
	case diag.TypeInference, diag.ForeignKeyType, diag.AmbiguousParameter:
		return color.New(color.FgYellow).Sprint(label)
	case diag.NameHint:
		return color.New(color.FgMagenta).Sprint(label)
	default:
		return color.New(color.FgCyan).Sprint(label)
	}
}

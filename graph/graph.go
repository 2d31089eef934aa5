package graph

import (
	"fmt"

	"github.com/syssam/erdgen"
	"github.com/syssam/erdgen/compiler/diag"
	"github.com/syssam/erdgen/schema"
)

type (
	// Graph is an enriched model together with its dependency order.
	Graph struct {
		*schema.Model

		// Order holds every table, referenced tables first.
		Order []*schema.Table
		// Failed maps the tables whose artifacts cannot be produced to
		// the reason. Tables depending on a failed table fail as well.
		Failed map[string]error
		// Report collects the warnings of all passes.
		Report *diag.Report

		dag *DAG
	}

	// Options configures Build.
	Options struct {
		Report           *diag.Report
		InferForeignKeys bool
	}

	// Option configures Build.
	Option func(*Options)
)

// WithReport sets the report warnings are added to.
func WithReport(r *diag.Report) Option {
	return func(o *Options) {
		o.Report = r
	}
}

// InferForeignKeys promotes "_id" columns matching an existing table to
// foreign keys without a drawn connector.
func InferForeignKeys(v bool) Option {
	return func(o *Options) {
		o.InferForeignKeys = v
	}
}

// Build enriches m in place and computes its dependency order. The only
// error returned is a *erdgen.CycleError; table-scoped failures are kept in
// Graph.Failed.
func Build(m *schema.Model, opts ...Option) (*Graph, error) {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.Report == nil {
		o.Report = diag.New()
	}
	g := &Graph{
		Model:  m,
		Failed: make(map[string]error),
		Report: o.Report,
	}
	var (
		types     = NewTypeResolver(o.Report)
		relations = NewRelationshipResolver(m, o.Report, o.InferForeignKeys)
	)
	for _, t := range m.Tables {
		relations.PrimaryKeys(t)
		relations.SpecialColumns(t)
		types.Resolve(t)
	}
	for _, t := range m.Tables {
		if err := relations.ForeignKeys(t); err != nil {
			g.Failed[t.Name] = err
		}
		relations.Candidates(t)
	}
	for _, t := range m.Tables {
		relations.Coerce(t)
	}
	relations.Relations()

	g.dag = NewDAG(m.Names())
	for _, t := range m.Tables {
		for _, ref := range t.References() {
			if err := g.dag.AddEdge(t.Name, ref); err != nil {
				return nil, fmt.Errorf("graph: %w", err)
			}
		}
	}
	names, err := g.dag.Sort()
	if err != nil {
		return nil, err
	}
	g.Order = make([]*schema.Table, len(names))
	for i, name := range names {
		g.Order[i] = m.Table(name)
	}
	g.spreadFailures()
	return g, nil
}

// spreadFailures fails every table that depends on a failed table.
func (g *Graph) spreadFailures() {
	for _, t := range g.Order {
		if _, ok := g.Failed[t.Name]; !ok {
			continue
		}
		for _, dep := range g.dag.Dependents(t.Name) {
			if _, ok := g.Failed[dep]; !ok {
				g.Failed[dep] = erdgen.NewUnresolvedReferenceError(dep, "", t.Name, "depends on a table that failed to resolve")
			}
		}
	}
}

// Valid returns the tables whose artifacts can be produced, in dependency
// order.
func (g *Graph) Valid() []*schema.Table {
	tables := make([]*schema.Table, 0, len(g.Order))
	for _, t := range g.Order {
		if _, ok := g.Failed[t.Name]; !ok {
			tables = append(tables, t)
		}
	}
	return tables
}

// Position returns the 1-based position of the named table in the
// dependency order, or 0.
func (g *Graph) Position(name string) int {
	for i, t := range g.Order {
		if t.Name == name {
			return i + 1
		}
	}
	return 0
}

// Levels groups the tables by dependency depth.
func (g *Graph) Levels() [][]string {
	levels, _ := g.dag.Levels()
	return levels
}

// Dependents returns the tables depending on name, directly or not.
func (g *Graph) Dependents(name string) []string {
	return g.dag.Dependents(name)
}

// Err returns the table-scoped failures as one error, in dependency order,
// or nil.
func (g *Graph) Err() error {
	var errs []error
	for _, t := range g.Order {
		if err, ok := g.Failed[t.Name]; ok {
			errs = append(errs, err)
		}
	}
	return erdgen.NewAggregateError(errs...)
}

package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/syssam/erdgen"
	dsql "github.com/syssam/erdgen/dialect/sql"
	"github.com/syssam/erdgen/graph"
	"github.com/syssam/erdgen/schema"
)

type (
	// Seeder inserts synthesized rows into a live database, one table at a
	// time in dependency order.
	Seeder struct {
		drv   *dsql.Driver
		graph *graph.Graph
		synth *Synthesizer
		rows  int
		log   *slog.Logger
		now   func() time.Time
	}

	// Option configures a Seeder.
	Option func(*Seeder)

	// Result reports a seeding run.
	Result struct {
		// Seeded lists the seeded tables in insertion order.
		Seeded []string
		// Inserted counts the rows inserted per table.
		Inserted map[string]int
		// Failed maps the tables that were not seeded to the reason.
		Failed map[string]error

		errs []error
	}
)

// WithRows sets the number of rows inserted per table.
func WithRows(n int) Option {
	return func(s *Seeder) {
		if n > 0 {
			s.rows = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Seeder) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSeed makes the synthesized values reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Seeder) {
		s.synth = NewSynthesizer(seed)
	}
}

// New returns a seeder for the tables of g.
func New(drv *dsql.Driver, g *graph.Graph, opts ...Option) *Seeder {
	s := &Seeder{
		drv:   drv,
		graph: g,
		synth: NewSynthesizer(0),
		rows:  DefaultRows,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run seeds every non-excluded table. Excluded tables are not written; their
// existing rows are read so dependents can reference them. A table that
// cannot be seeded fails together with the tables depending on it, and the
// failures are returned as one error after the remaining tables are done.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		Inserted: make(map[string]int),
		Failed:   make(map[string]error),
	}
	// pools holds the produced values of every referenced column, by table.
	pools := make(map[string]map[string][]any)
	refs := s.referenced()
	for _, t := range s.graph.Order {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err, ok := s.graph.Failed[t.Name]; ok && res.Failed[t.Name] == nil {
			s.fail(res, t, err)
		}
		if err := res.Failed[t.Name]; err != nil {
			s.log.DebugContext(ctx, "skipping table", "table", t.Name, "error", err)
			continue
		}
		if s.graph.Excluded(t.Name) {
			if len(refs[t.Name]) == 0 {
				continue
			}
			pool, err := s.load(ctx, t, refs[t.Name])
			if err != nil {
				s.fail(res, t, err)
				continue
			}
			pools[t.Name] = pool
			s.log.DebugContext(ctx, "loaded excluded table", "table", t.Name)
			continue
		}
		pool, err := s.seed(ctx, t, pools)
		if err != nil {
			s.fail(res, t, err)
			continue
		}
		pools[t.Name] = pool
		res.Seeded = append(res.Seeded, t.Name)
		res.Inserted[t.Name] = s.rows
		s.log.InfoContext(ctx, "seeded table", "table", t.Name, "rows", s.rows)
	}
	return res, res.Err()
}

// fail records the failure of t and of every table depending on it.
func (s *Seeder) fail(res *Result, t *schema.Table, err error) {
	res.Failed[t.Name] = err
	res.errs = append(res.errs, err)
	for _, dep := range s.graph.Dependents(t.Name) {
		if _, ok := res.Failed[dep]; !ok {
			derr := erdgen.NewUnresolvedReferenceError(dep, "", t.Name, "depends on a table that failed to seed")
			res.Failed[dep] = derr
			res.errs = append(res.errs, derr)
		}
	}
}

// referenced returns the referenced columns of every table.
func (s *Seeder) referenced() map[string][]string {
	refs := make(map[string][]string)
	for _, t := range s.graph.Tables {
		for _, fk := range t.ForeignKeys {
			if !slices.Contains(refs[fk.RefTable], fk.RefColumn) {
				refs[fk.RefTable] = append(refs[fk.RefTable], fk.RefColumn)
			}
		}
	}
	return refs
}

// load reads the referenced columns of an excluded table.
func (s *Seeder) load(ctx context.Context, t *schema.Table, columns []string) (map[string][]any, error) {
	pool := make(map[string][]any, len(columns))
	for _, c := range columns {
		values, err := s.drv.Values(ctx, t.Name, c)
		if err != nil {
			return nil, err
		}
		pool[c] = values
	}
	return pool, nil
}

// seed inserts the rows of t in one transaction and returns the values
// produced for each column.
func (s *Seeder) seed(ctx context.Context, t *schema.Table, pools map[string]map[string][]any) (map[string][]any, error) {
	plan := Plan(t)
	for _, fk := range References(t, plan) {
		if len(pools[fk.RefTable][fk.RefColumn]) == 0 {
			return nil, erdgen.NewUnresolvedReferenceError(t.Name, fk.Column, fk.RefTable, "referenced table has no rows to sample")
		}
	}
	columns := make([]string, 0, len(plan)+2)
	for _, st := range plan {
		columns = append(columns, st.Column.Name)
	}
	if t.HasTimestamps {
		columns = append(columns, schema.ColumnCreatedAt, schema.ColumnUpdatedAt)
	}
	var returning string
	if pk := t.PrimaryKey(); pk != nil && pk.AutoIncrement {
		returning = pk.Name
	}
	tx, err := s.drv.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	produced := make(map[string][]any)
	for range s.rows {
		args := make([]any, 0, len(columns))
		for _, st := range plan {
			var pool []any
			if st.FK != nil {
				pool = pools[st.FK.RefTable][st.FK.RefColumn]
				if st.Self(t) {
					pool = produced[st.FK.RefColumn]
					if len(pool) == 0 && st.Column.Nullable() {
						args = append(args, nil)
						continue
					}
				}
			}
			v, err := s.synth.Value(t, st, pool)
			if err != nil {
				return nil, rollback(tx, err)
			}
			args = append(args, v)
		}
		if t.HasTimestamps {
			now := s.now().UTC().Truncate(time.Second)
			args = append(args, now, now)
		}
		id, err := tx.Insert(ctx, t.Name, columns, args, returning)
		if err != nil {
			return nil, rollback(tx, err)
		}
		if returning != "" {
			produced[returning] = append(produced[returning], id)
		}
		for i, st := range plan {
			produced[st.Column.Name] = append(produced[st.Column.Name], args[i])
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("seed: commit %s: %w", t.Name, err)
	}
	return produced, nil
}

// rollback aborts tx and returns err.
func rollback(tx *dsql.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		err = fmt.Errorf("%w: %v", err, rerr)
	}
	return err
}

// Err returns the failures of the run as one error, or nil.
func (r *Result) Err() error {
	return erdgen.NewAggregateError(r.errs...)
}

package gen

import (
	"context"
	"path"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/erdgen"
	"github.com/syssam/erdgen/compiler/gen/sql"
	"github.com/syssam/erdgen/graph"
)

type (
	// Generator renders the artifacts of an enriched model.
	Generator struct {
		graph  *graph.Graph
		config *Config
	}

	// Result reports a generation run.
	Result struct {
		// RunID identifies the run.
		RunID string
		// Files lists the written files, relative to the target, sorted.
		Files []string
		// Removed lists the files of previous runs that were removed.
		Removed []string
		// Failed maps the tables whose artifacts were not produced to the reason.
		Failed map[string]error
		// Unchanged reports that the snapshot matched and nothing was written.
		Unchanged bool
		// Metrics holds the writer metrics.
		Metrics WriterMetrics
	}

	// PlannedFile is one artifact of a plan.
	PlannedFile struct {
		Table    string
		Artifact Artifact
		Path     string
	}
)

// New returns a generator for g.
func New(g *graph.Graph, opts ...Option) (*Generator, error) {
	c, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Generator{graph: g, config: c}, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() *Config {
	return g.config
}

// Plan returns the files a run would write for the tables that can be
// generated, in dependency order.
func (g *Generator) Plan() []PlannedFile {
	var files []PlannedFile
	valid := g.graph.Valid()
	for _, t := range valid {
		e := NewEntity(g.graph.Model, t)
		for _, p := range g.tableFiles(e) {
			files = append(files, PlannedFile{Table: t.Name, Artifact: p.artifact, Path: p.path})
		}
	}
	for _, p := range g.sharedFiles(nil) {
		files = append(files, PlannedFile{Artifact: p.artifact, Path: p.path})
	}
	return files
}

// tableFiles returns the per-table tasks of e, without content.
func (g *Generator) tableFiles(e *Entity) []*fileTask {
	var tasks []*fileTask
	add := func(a Artifact, p string) {
		if g.config.Enabled(a) {
			tasks = append(tasks, &fileTask{path: p, table: e.Table.Name, artifact: a})
		}
	}
	add(ArtifactMigration, path.Join(sql.Dir, sql.Version(g.graph.Position(e.Table.Name))+"_create_"+e.Table.Name+"_table.sql"))
	add(ArtifactModel, path.Join(ModelsDir, e.Filename()+".go"))
	add(ArtifactHandler, path.Join(HandlersDir, e.Filename()+"_handler.go"))
	if !g.graph.Excluded(e.Table.Name) {
		add(ArtifactSeeder, path.Join(SeedersDir, e.Filename()+"_seeder.go"))
	}
	return tasks
}

// sharedFiles returns the tasks of the files shared by all tables, rendered
// for entities when entities is not nil.
func (g *Generator) sharedFiles(entities []*Entity) []*fileTask {
	var tasks []*fileTask
	add := func(a Artifact, p string, render func() *jen.File) {
		if !g.config.Enabled(a) {
			return
		}
		t := &fileTask{path: p, artifact: a}
		if entities != nil {
			t.file = render()
		}
		tasks = append(tasks, t)
	}
	add(ArtifactHandler, path.Join(HandlersDir, "handlers.go"), g.genHandlers)
	add(ArtifactRoutes, path.Join(RoutesDir, "routes.go"), func() *jen.File { return g.genRoutes(entities) })
	add(ArtifactSeeder, path.Join(SeedersDir, "database_seeder.go"), func() *jen.File { return g.genDatabaseSeeder(entities) })
	return tasks
}

// Generate renders and writes every artifact. Tables that failed to resolve,
// or whose artifacts fail to render, lose all their artifacts together with
// their dependents; the other tables are still generated and the failures
// are returned as one error. Write failures abort the run.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	var (
		c   = g.config
		log = c.Logger.With("run_id", c.RunID)
		res = &Result{RunID: c.RunID, Failed: make(map[string]error)}
	)
	digest, err := Digest(g.graph.Model, c)
	if err != nil {
		return nil, err
	}
	prev, err := ReadSnapshot(c.Target)
	if err != nil {
		return nil, err
	}
	for name, err := range g.graph.Failed {
		res.Failed[name] = err
	}
	if !c.Force && len(res.Failed) == 0 && prev.Current(c.Target, digest) {
		log.InfoContext(ctx, "model unchanged, nothing to generate", "snapshot", SnapshotPath)
		res.Unchanged = true
		res.Files = prev.Files
		return res, nil
	}

	w := NewWriter(c.Target).WithWorkers(c.Workers)
	// Migrations are the only artifacts planned from the model alone;
	// render them first so failed tables drop out of the relations.
	tasks, err := g.render(ctx, w, res, g.entities(res.Failed), true)
	if err != nil {
		return nil, err
	}
	entities := g.entities(res.Failed)
	more, err := g.render(ctx, w, res, entities, false)
	if err != nil {
		return nil, err
	}
	tasks = append(tasks, more...)
	// Drop the files of tables that failed in either pass.
	tasks = slices.DeleteFunc(tasks, func(t *fileTask) bool {
		return res.Failed[t.table] != nil
	})
	entities = slices.DeleteFunc(entities, func(e *Entity) bool {
		return res.Failed[e.Table.Name] != nil
	})
	shared := g.sharedFiles(entities)
	for _, t := range shared {
		if err := w.Format(t); err != nil {
			return nil, err
		}
	}
	tasks = append(tasks, shared...)

	if err := w.WriteAll(ctx, tasks); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		res.Files = append(res.Files, filepath.ToSlash(t.path))
	}
	slices.Sort(res.Files)
	if err := g.cleanup(res, prev); err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Version:   snapshotVersion,
		RunID:     c.RunID,
		Digest:    digest,
		Files:     res.Files,
		CreatedAt: time.Now().UTC(),
	}
	if err := snap.Write(c.Target); err != nil {
		return nil, err
	}
	res.Metrics = *w.Metrics()
	log.InfoContext(ctx, "generated artifacts",
		"files", len(res.Files),
		"removed", len(res.Removed),
		"failed", len(res.Failed),
		"bytes", res.Metrics.TotalBytes,
	)
	return res, res.Err(g.graph)
}

// render renders the per-table artifacts of entities in parallel: migrations
// when migrations is true, the Go artifacts otherwise. Render failures are
// recorded in res and spread to the dependents of the failed table.
func (g *Generator) render(ctx context.Context, w *Writer, res *Result, entities []*Entity, migrations bool) ([]*fileTask, error) {
	var (
		mu    sync.Mutex
		tasks []*fileTask
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.Workers)
	for _, e := range entities {
		for _, t := range g.tableFiles(e) {
			if (t.artifact == ArtifactMigration) != migrations {
				continue
			}
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				err := g.renderTask(ctx, w, e, t)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					g.fail(res, e.Table.Name, err)
					return nil
				}
				tasks = append(tasks, t)
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// renderTask fills the content of t.
func (g *Generator) renderTask(ctx context.Context, w *Writer, e *Entity, t *fileTask) error {
	switch t.artifact {
	case ArtifactMigration:
		m, err := sql.Render(ctx, g.graph.Model, e.Table, g.graph.Position(e.Table.Name))
		if err != nil {
			return NewGenerationError(t.artifact, e.Table.Name, t.path, "plan table", err)
		}
		t.data = m.Data
		return nil
	case ArtifactModel:
		t.file = g.genModel(e)
	case ArtifactHandler:
		t.file = g.genHandler(e)
	case ArtifactSeeder:
		t.file = g.genSeeder(e)
	}
	return w.Format(t)
}

// fail records err for table and its dependents. Callers hold the lock.
func (g *Generator) fail(res *Result, table string, err error) {
	if res.Failed[table] == nil {
		res.Failed[table] = err
	}
	for _, dep := range g.graph.Dependents(table) {
		if res.Failed[dep] == nil {
			res.Failed[dep] = erdgen.NewUnresolvedReferenceError(dep, "", table, "depends on a table that failed to generate")
		}
	}
}

// entities prepares the tables that have not failed. Relations to failed
// tables are dropped.
func (g *Generator) entities(failed map[string]error) []*Entity {
	var entities []*Entity
	for _, t := range g.graph.Order {
		if failed[t.Name] != nil {
			continue
		}
		e := NewEntity(g.graph.Model, t)
		e.Edges = slices.DeleteFunc(e.Edges, func(edge *Edge) bool {
			return failed[edge.Relation.Table] != nil
		})
		entities = append(entities, e)
	}
	return entities
}

// cleanup removes the files of the previous run that this run did not
// write, then whatever generated files remain of disabled artifact kinds.
func (g *Generator) cleanup(res *Result, prev *Snapshot) error {
	for _, f := range prev.Stale(res.Files) {
		full := filepath.Join(g.config.Target, filepath.FromSlash(f))
		ok, err := generated(full)
		if err != nil {
			return erdgen.NewEmissionIOError(f, err)
		}
		if !ok {
			continue
		}
		if err := remove(filepath.Dir(full), filepath.Base(full)); err != nil {
			return erdgen.NewEmissionIOError(f, err)
		}
		res.Removed = append(res.Removed, f)
	}
	for _, k := range AllKinds {
		if g.config.Enabled(k.Artifact) || k.cleanup == nil {
			continue
		}
		if err := k.cleanup(g.config); err != nil {
			return erdgen.NewEmissionIOError(k.Dir, err)
		}
	}
	return nil
}

// Err returns the table failures of the run in dependency order, or nil.
func (r *Result) Err(g *graph.Graph) error {
	var errs []error
	for _, t := range g.Order {
		if err := r.Failed[t.Name]; err != nil {
			errs = append(errs, err)
		}
	}
	return erdgen.NewAggregateError(errs...)
}

// newFile creates a new Jennifer file with the header comment.
func (g *Generator) newFile(pkg string) *jen.File {
	f := jen.NewFile(pkg)
	f.ImportNames(map[string]string{
		pkgGin:      "gin",
		pkgGorm:     "gorm",
		pkgGofakeit: "gofakeit",
	})
	if g.config.Header != "" {
		f.HeaderComment(g.config.Header)
	}
	return f
}

// pkg returns the import path of a package of the destination project.
func (g *Generator) pkg(dir string) string {
	return path.Join(g.config.Package, dir)
}

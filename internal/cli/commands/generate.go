package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/syssam/erdgen"
	"github.com/syssam/erdgen/compiler/gen"
	"github.com/syssam/erdgen/internal/cli/config"
)

// debounce is how long the watcher waits for a burst of writes to settle.
const debounce = 200 * time.Millisecond

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	Watch bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the backend of a diagram",
		Long: `Generate migrations, models, handlers, routes and seeders from an
entity-relationship diagram (.mwb or .yaml).

Tables that cannot be resolved are reported and skipped together with the
tables that depend on them; every other table is still generated. A run whose
diagram and options did not change since the last one writes nothing unless
--force is given.`,
		Example: `  # Generate into ./backend
  erdgen generate -i clinica.mwb -o backend -p github.com/acme/clinica

  # Only migrations and models, regenerating on every save
  erdgen generate --artifacts migration,model --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Regenerate when the diagram changes")
	cmd.Flags().Bool("force", false, "Regenerate even when nothing changed")
	cmd.Flags().StringSlice("artifacts", nil, "Artifact kinds to generate (migration,model,handler,routes,seeder)")
	cmd.Flags().Int("seed-rows", 0, "Rows per table in generated seeders")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions) error {
	ctx := cmd.Context()
	cfg := config.Get(ctx)
	if err := generate(cmd, cfg); err != nil && !opts.Watch {
		return err
	}
	if !opts.Watch {
		return nil
	}
	var mu sync.Mutex
	return watch(ctx, cfg.Input, func() {
		mu.Lock()
		defer mu.Unlock()
		if err := generate(cmd, cfg); err != nil {
			config.GetLogger(ctx).ErrorContext(ctx, "generation failed", "error", err)
		}
	})
}

// generate runs one generation and prints its summary. Table failures are
// printed and returned; the files of the other tables are written.
func generate(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()
	if cfg.Package == "" {
		return fmt.Errorf("no package given: pass --package or set package in erdgen.yaml")
	}
	g, err := loadGraph(ctx, cfg)
	if err != nil {
		return err
	}
	artifacts, err := gen.ParseArtifacts(cfg.Artifacts)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	generator, err := gen.New(g,
		gen.WithTarget(cfg.Output),
		gen.WithPackage(cfg.Package),
		gen.WithWorkers(cfg.Workers),
		gen.WithSeedRows(cfg.SeedRows),
		gen.WithForce(cfg.Force),
		gen.WithArtifacts(artifacts...),
		gen.WithLogger(config.GetLogger(ctx)),
		gen.WithRunID(runID),
	)
	if err != nil {
		return err
	}
	res, err := generator.Generate(ctx)
	if res == nil {
		return err
	}
	switch {
	case res.Unchanged:
		printf(cmd, "%s is up to date (%d files)\n", cfg.Output, len(res.Files))
	default:
		printf(cmd, "generated %d files in %s", len(res.Files), cfg.Output)
		if len(res.Removed) > 0 {
			printf(cmd, ", removed %d", len(res.Removed))
		}
		printf(cmd, "\n")
	}
	for _, t := range g.Order {
		if ferr := res.Failed[t.Name]; ferr != nil {
			printf(cmd, "  skipped %s: %v\n", t.Name, ferr)
		}
	}
	if err != nil && !erdgen.IsFatal(err) {
		return fmt.Errorf("%d tables were not generated", len(res.Failed))
	}
	return err
}

// watch calls fn after every change of path until ctx is done. The parent
// directory is watched so editors that replace the file are seen.
func watch(ctx context.Context, path string, fn func()) error {
	log := config.GetLogger(ctx)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	log.InfoContext(ctx, "watching diagram", "input", path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				log.InfoContext(ctx, "diagram changed", "input", path)
				fn()
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WarnContext(ctx, "watcher error", "error", err)
		}
	}
}

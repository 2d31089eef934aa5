package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/erdgen"
)

// Writer formats and writes artifacts with parallel execution.
type Writer struct {
	target  string
	workers int

	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics holds the counters of one run.
type WriterMetrics struct {
	FilesGenerated int
	TotalBytes     int64
	FormatTime     int64 // nanoseconds
	WriteTime      int64 // nanoseconds
}

// NewWriter creates a writer rooted at target.
func NewWriter(target string) *Writer {
	return &Writer{
		target:  target,
		workers: runtime.GOMAXPROCS(0),
		metrics: &WriterMetrics{},
	}
}

// WithWorkers sets the number of parallel workers.
func (w *Writer) WithWorkers(n int) *Writer {
	if n > 0 {
		w.workers = n
	}
	return w
}

// Metrics returns the generation metrics.
func (w *Writer) Metrics() *WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := *w.metrics
	return &m
}

// fileTask represents a single artifact.
type fileTask struct {
	path     string // output file path (relative to the target)
	table    string // source table, empty for shared files
	artifact Artifact
	file     *jen.File // Go source to render, or nil
	data     []byte    // rendered content
}

// Format renders the Go source of t and runs goimports over it. The
// unformatted source is written next to the target path for debugging when
// formatting fails.
func (w *Writer) Format(t *fileTask) error {
	if t.file == nil {
		return nil
	}
	start := time.Now()
	var buf bytes.Buffer
	if err := t.file.Render(&buf); err != nil {
		return NewGenerationError(t.artifact, t.table, t.path, "render", err)
	}
	fullPath := filepath.Join(w.target, t.path)
	formatted, err := imports.Process(fullPath, buf.Bytes(), nil)
	if err != nil {
		// Best effort: the formatting error is the one reported.
		debugPath := fullPath + ".error"
		_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return NewGenerationError(t.artifact, t.table, t.path, fmt.Sprintf("format (unformatted written to %s)", debugPath), err)
	}
	t.data = formatted
	w.mu.Lock()
	w.metrics.FormatTime += int64(time.Since(start))
	w.mu.Unlock()
	return nil
}

// WriteAll writes every task in parallel. The first failure is returned
// as an *erdgen.EmissionIOError.
func (w *Writer) WriteAll(ctx context.Context, tasks []*fileTask) error {
	if err := os.MkdirAll(w.target, 0o755); err != nil {
		return erdgen.NewEmissionIOError(w.target, err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, t := range tasks {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.write(t)
			}
		})
	}
	return eg.Wait()
}

// write writes a single file.
func (w *Writer) write(t *fileTask) error {
	start := time.Now()
	fullPath := filepath.Join(w.target, t.path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return erdgen.NewEmissionIOError(t.path, err)
	}
	if err := os.WriteFile(fullPath, t.data, 0o644); err != nil {
		return erdgen.NewEmissionIOError(t.path, err)
	}
	// A stale debug file from a previous failed run is obsolete now.
	_ = os.Remove(fullPath + ".error")

	w.mu.Lock()
	w.metrics.FilesGenerated++
	w.metrics.TotalBytes += int64(len(t.data))
	w.metrics.WriteTime += int64(time.Since(start))
	w.mu.Unlock()
	return nil
}

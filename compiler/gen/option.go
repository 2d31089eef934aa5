package gen

import (
	"errors"
	"io"
	"log/slog"
	"runtime"
	"slices"

	"github.com/google/uuid"

	"github.com/syssam/erdgen/seed"
)

// DefaultHeader is the header comment of every generated Go file.
const DefaultHeader = "Code generated by erdgen. DO NOT EDIT."

// Config holds the configuration of a generation run.
type Config struct {
	// Target is the root directory of the destination project.
	Target string
	// Package is the import path of the destination project, e.g.
	// "github.com/acme/clinica". Generated packages are imported relative to it.
	Package string
	// Header is the header comment of generated Go files.
	Header string
	// Workers bounds the number of artifacts rendered and written concurrently.
	Workers int
	// SeedRows is the number of rows each generated seeder inserts.
	SeedRows int
	// Force regenerates even when the snapshot shows no change.
	Force bool
	// Artifacts lists the enabled artifact kinds.
	Artifacts []Artifact
	// Logger receives progress records.
	Logger *slog.Logger
	// RunID identifies the run in logs and in the snapshot.
	RunID string
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated Go file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithPackage sets the import path of the destination project.
// For example: "github.com/acme/clinica".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithSeedRows sets the number of rows per generated seeder.
func WithSeedRows(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("SeedRows", n, "must be positive")
		}
		c.SeedRows = n
		return nil
	}
}

// WithForce disables the unchanged-snapshot shortcut.
func WithForce(force bool) Option {
	return func(c *Config) error {
		c.Force = force
		return nil
	}
}

// WithArtifacts restricts generation to the given artifact kinds.
// Files of disabled kinds left by previous runs are removed.
func WithArtifacts(artifacts ...Artifact) Option {
	return func(c *Config) error {
		if len(artifacts) == 0 {
			return NewConfigError("Artifacts", nil, "at least one artifact is required")
		}
		for _, a := range artifacts {
			if _, ok := KindOf(a); !ok {
				return NewConfigError("Artifacts", a, "unknown artifact")
			}
		}
		c.Artifacts = slices.Clone(artifacts)
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithRunID sets the run identifier.
func WithRunID(id string) Option {
	return func(c *Config) error {
		if id == "" {
			return NewConfigError("RunID", nil, "run id cannot be empty")
		}
		c.RunID = id
		return nil
	}
}

// Enabled reports whether the artifact kind is generated.
func (c *Config) Enabled(a Artifact) bool {
	return slices.Contains(c.Artifacts, a)
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Header:    DefaultHeader,
		Workers:   runtime.GOMAXPROCS(0),
		SeedRows:  seed.DefaultRows,
		Artifacts: Artifacts(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		RunID:     uuid.NewString(),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if c.Target == "" {
		return nil, NewConfigError("Target", nil, "missing target directory")
	}
	if c.Package == "" {
		return nil, NewConfigError("Package", nil, "missing package import path")
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

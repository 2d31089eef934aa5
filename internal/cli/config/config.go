// Package config provides configuration management for the erdgen CLI.
package config

import (
	"runtime"
	"slices"

	"github.com/syssam/erdgen/compiler/gen"
	"github.com/syssam/erdgen/schema"
	"github.com/syssam/erdgen/seed"
)

// Default values.
const (
	DefaultOutput    = "generated"
	DefaultLogFormat = "text"
	DefaultDriver    = "mysql"
)

// Config holds all CLI configuration options.
type Config struct {
	Input            string         `koanf:"input"`
	Output           string         `koanf:"output"`
	Package          string         `koanf:"package"`
	Exclude          []string       `koanf:"exclude"`
	Artifacts        []string       `koanf:"artifacts"`
	SeedRows         int            `koanf:"seed_rows"`
	Workers          int            `koanf:"workers"`
	InferForeignKeys bool           `koanf:"infer_foreign_keys"`
	Force            bool           `koanf:"force"`
	Verbose          bool           `koanf:"verbose"`
	LogFormat        string         `koanf:"log_format"`
	Database         DatabaseConfig `koanf:"database"`
}

// DatabaseConfig configures the live seeder connection.
type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Output:    DefaultOutput,
		Exclude:   slices.Clone(schema.DefaultExclusions),
		Artifacts: artifactNames(),
		SeedRows:  seed.DefaultRows,
		Workers:   runtime.GOMAXPROCS(0),
		LogFormat: DefaultLogFormat,
		Database:  DatabaseConfig{Driver: DefaultDriver},
	}
}

func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"output":             d.Output,
		"exclude":            d.Exclude,
		"artifacts":          d.Artifacts,
		"seed_rows":          d.SeedRows,
		"workers":            d.Workers,
		"infer_foreign_keys": false,
		"force":              false,
		"verbose":            false,
		"log_format":         d.LogFormat,
		"database.driver":    d.Database.Driver,
	}
}

func artifactNames() []string {
	var names []string
	for _, a := range gen.Artifacts() {
		names = append(names, string(a))
	}
	return names
}

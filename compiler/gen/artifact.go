package gen

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/syssam/erdgen/compiler/gen/sql"
)

// Artifact names a kind of generated file.
type Artifact string

// Artifact kinds.
const (
	ArtifactMigration Artifact = "migration"
	ArtifactModel     Artifact = "model"
	ArtifactHandler   Artifact = "handler"
	ArtifactRoutes    Artifact = "routes"
	ArtifactSeeder    Artifact = "seeder"
)

// Output directories of the destination project.
const (
	ModelsDir   = "internal/models"
	HandlersDir = "internal/handlers"
	RoutesDir   = "internal/routes"
	SeedersDir  = "database/seeders"
)

var (
	// KindMigration describes the schema-creation files.
	KindMigration = Kind{
		Artifact:    ArtifactMigration,
		Dir:         sql.Dir,
		PerTable:    true,
		Description: "One goose migration per table, numbered in dependency order",
		cleanup:     removeGenerated(sql.Dir, "*_create_*_table.sql"),
	}

	// KindModel describes the gorm models.
	KindModel = Kind{
		Artifact:    ArtifactModel,
		Dir:         ModelsDir,
		PerTable:    true,
		Description: "One gorm model per table with fillable columns, casts and relations",
		cleanup:     removeGenerated(ModelsDir, "*.go"),
	}

	// KindHandler describes the gin CRUD handlers.
	KindHandler = Kind{
		Artifact:    ArtifactHandler,
		Dir:         HandlersDir,
		PerTable:    true,
		Description: "One gin handler per table with list, create, read, update and delete",
		cleanup:     removeGenerated(HandlersDir, "*.go"),
	}

	// KindRoutes describes the route registration file.
	KindRoutes = Kind{
		Artifact:    ArtifactRoutes,
		Dir:         RoutesDir,
		Description: "One route group per table",
		cleanup:     removeGenerated(RoutesDir, "routes.go"),
	}

	// KindSeeder describes the seeders and their aggregator.
	KindSeeder = Kind{
		Artifact:    ArtifactSeeder,
		Dir:         SeedersDir,
		PerTable:    true,
		Description: "One seeder per non-excluded table and a runner invoking them in dependency order",
		cleanup:     removeGenerated(SeedersDir, "*.go"),
	}

	// AllKinds holds every artifact kind.
	AllKinds = []Kind{
		KindMigration,
		KindModel,
		KindHandler,
		KindRoutes,
		KindSeeder,
	}
)

// A Kind describes one kind of generated artifact.
type Kind struct {
	// Artifact names the kind.
	Artifact Artifact

	// Dir is the output directory, relative to the target.
	Dir string

	// PerTable reports whether the kind has one file per table.
	PerTable bool

	// A Description of this kind.
	Description string

	// cleanup removes the files of this kind left by previous runs when the
	// kind is disabled.
	cleanup func(*Config) error
}

// Artifacts returns the names of every artifact kind.
func Artifacts() []Artifact {
	names := make([]Artifact, len(AllKinds))
	for i, k := range AllKinds {
		names[i] = k.Artifact
	}
	return names
}

// KindOf returns the kind of the named artifact.
func KindOf(a Artifact) (Kind, bool) {
	for _, k := range AllKinds {
		if k.Artifact == a {
			return k, true
		}
	}
	return Kind{}, false
}

// ParseArtifacts converts artifact names, as given on the command line.
func ParseArtifacts(names []string) ([]Artifact, error) {
	artifacts := make([]Artifact, 0, len(names))
	for _, name := range names {
		a := Artifact(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := KindOf(a); !ok {
			return nil, NewConfigError("Artifacts", name, "unknown artifact")
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// removeGenerated removes the files of dir matching pattern that carry the
// generated-code marker, and dir itself when left empty.
func removeGenerated(dir, pattern string) func(*Config) error {
	return func(c *Config) error {
		paths, err := filepath.Glob(filepath.Join(c.Target, dir, pattern))
		if err != nil {
			return err
		}
		for _, path := range paths {
			ok, err := generated(path)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := remove(filepath.Dir(path), filepath.Base(path)); err != nil {
				return err
			}
		}
		return nil
	}
}

// generatedMarker is present in the first line of every generated file.
const generatedMarker = "generated by erdgen"

// generated reports whether the file at path was written by the generator.
func generated(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	if !s.Scan() {
		return false, s.Err()
	}
	return strings.Contains(strings.ToLower(s.Text()), generatedMarker), nil
}

// remove file (if exists) and its dir if it's empty.
func remove(dir, file string) error {
	if err := os.Remove(filepath.Join(dir, file)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	infos, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return os.Remove(dir)
	}
	return nil
}

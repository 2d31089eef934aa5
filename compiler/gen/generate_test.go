package gen

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erdgen"
	"github.com/syssam/erdgen/compiler/load"
	"github.com/syssam/erdgen/graph"
)

const clinica = `
tables:
  - name: users
    columns:
      - {name: id, type: BIGINT UNSIGNED, not_null: true, auto_increment: true}
      - {name: email, type: VARCHAR(150), not_null: true}
  - name: medicos
    columns:
      - {name: id, type: BIGINT UNSIGNED, not_null: true, auto_increment: true}
      - {name: user_id, type: BIGINT UNSIGNED, not_null: true}
      - {name: nombre, type: VARCHAR(100), not_null: true}
      - {name: email, type: VARCHAR(150)}
      - {name: tarifa, type: DECIMAL(8,2)}
      - {name: activo, type: TINYINT(1), not_null: true, default: "1"}
      - {name: created_at, type: TIMESTAMP}
      - {name: updated_at, type: TIMESTAMP}
  - name: pacientes
    columns:
      - {name: id, type: BIGINT UNSIGNED, not_null: true, auto_increment: true}
      - {name: nombre, type: VARCHAR(100), not_null: true}
      - {name: fecha_nacimiento, type: DATE}
      - {name: deleted_at, type: TIMESTAMP}
  - name: citas
    columns:
      - {name: id, type: BIGINT UNSIGNED, not_null: true, auto_increment: true}
      - {name: medico_id, type: BIGINT UNSIGNED, not_null: true}
      - {name: paciente_id, type: BIGINT UNSIGNED}
      - {name: hora_inicio, type: TIME}
      - {name: notas, type: TEXT}
connectors:
  - {from: {table: medicos, columns: [user_id]}, to: {table: users}}
  - {from: {table: citas, columns: [medico_id]}, to: {table: medicos}, on_delete: cascade}
  - {from: {table: citas, columns: [paciente_id]}, to: {table: pacientes}, on_delete: set null}
`

func build(t *testing.T, doc string) *graph.Graph {
	t.Helper()
	m, err := load.Parse(load.FormatYAML, []byte(doc))
	require.NoError(t, err)
	g, err := graph.Build(m)
	require.NoError(t, err)
	return g
}

func generator(t *testing.T, g *graph.Graph, target string, opts ...Option) *Generator {
	t.Helper()
	opts = append([]Option{
		WithTarget(target),
		WithPackage("github.com/acme/clinica"),
		WithRunID("test-run"),
	}, opts...)
	gen, err := New(g, opts...)
	require.NoError(t, err)
	return gen
}

func firstLine(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	s := bufio.NewScanner(f)
	require.True(t, s.Scan())
	return s.Text()
}

func TestNew(t *testing.T) {
	g := build(t, clinica)

	t.Run("requires target", func(t *testing.T) {
		_, err := New(g, WithPackage("github.com/acme/clinica"))
		require.Error(t, err)
		assert.True(t, IsConfigError(err))
	})

	t.Run("applies options", func(t *testing.T) {
		gen := generator(t, g, t.TempDir(), WithSeedRows(3))
		assert.Equal(t, 3, gen.Config().SeedRows)
		assert.Equal(t, "github.com/acme/clinica/internal/models", gen.pkg(ModelsDir))
	})
}

func TestPlan(t *testing.T) {
	g := build(t, clinica)
	gen := generator(t, g, t.TempDir())
	var paths []string
	for _, f := range gen.Plan() {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, "database/migrations/0001_create_users_table.sql")
	assert.Contains(t, paths, "database/migrations/0004_create_citas_table.sql")
	assert.Contains(t, paths, "internal/models/medico.go")
	assert.Contains(t, paths, "internal/handlers/cita_handler.go")
	assert.Contains(t, paths, "internal/handlers/handlers.go")
	assert.Contains(t, paths, "internal/routes/routes.go")
	assert.Contains(t, paths, "database/seeders/paciente_seeder.go")
	assert.Contains(t, paths, "database/seeders/database_seeder.go")
	// Excluded tables get no seeder.
	assert.NotContains(t, paths, "database/seeders/user_seeder.go")
}

func TestGenerate(t *testing.T) {
	g := build(t, clinica)
	target := t.TempDir()
	ctx := context.Background()

	res, err := generator(t, g, target).Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test-run", res.RunID)
	assert.False(t, res.Unchanged)
	assert.Empty(t, res.Failed)
	assert.Equal(t, int64(len(res.Files)), res.Metrics.FilesGenerated)
	for _, f := range res.Files {
		assert.FileExists(t, filepath.Join(target, f))
	}
	assert.FileExists(t, filepath.Join(target, SnapshotPath))

	model := filepath.Join(target, ModelsDir, "cita.go")
	assert.Equal(t, "// "+DefaultHeader, firstLine(t, model))
	b, err := os.ReadFile(model)
	require.NoError(t, err)
	assert.Contains(t, string(b), "package models")
	assert.Contains(t, string(b), "type Cita struct")

	t.Run("unchanged model", func(t *testing.T) {
		res, err := generator(t, g, target).Generate(ctx)
		require.NoError(t, err)
		assert.True(t, res.Unchanged)
		assert.NotEmpty(t, res.Files)
		assert.Zero(t, res.Metrics.FilesGenerated)
	})

	t.Run("force", func(t *testing.T) {
		res, err := generator(t, g, target, WithForce(true)).Generate(ctx)
		require.NoError(t, err)
		assert.False(t, res.Unchanged)
		assert.NotZero(t, res.Metrics.FilesGenerated)
	})

	t.Run("missing file", func(t *testing.T) {
		require.NoError(t, os.Remove(model))
		res, err := generator(t, g, target).Generate(ctx)
		require.NoError(t, err)
		assert.False(t, res.Unchanged)
		assert.FileExists(t, model)
	})
}

func TestGenerateDisabledArtifacts(t *testing.T) {
	g := build(t, clinica)
	target := t.TempDir()
	ctx := context.Background()

	_, err := generator(t, g, target).Generate(ctx)
	require.NoError(t, err)
	custom := filepath.Join(target, HandlersDir, "custom.go")
	require.NoError(t, os.WriteFile(custom, []byte("package handlers\n"), 0o644))

	res, err := generator(t, g, target, WithArtifacts(ArtifactMigration, ArtifactModel)).Generate(ctx)
	require.NoError(t, err)
	for _, f := range res.Files {
		assert.True(t, strings.HasPrefix(f, "database/migrations/") || strings.HasPrefix(f, ModelsDir+"/"), f)
	}
	assert.NoFileExists(t, filepath.Join(target, HandlersDir, "cita_handler.go"))
	assert.NoFileExists(t, filepath.Join(target, RoutesDir, "routes.go"))
	assert.NoFileExists(t, filepath.Join(target, SeedersDir, "database_seeder.go"))
	// Files written by hand are kept.
	assert.FileExists(t, custom)
	assert.Contains(t, res.Removed, "internal/routes/routes.go")
}

func TestGenerateRemovesStaleTables(t *testing.T) {
	target := t.TempDir()
	ctx := context.Background()

	_, err := generator(t, build(t, clinica), target).Generate(ctx)
	require.NoError(t, err)

	doc := `
tables:
  - name: pacientes
    columns:
      - {name: id, type: BIGINT UNSIGNED, not_null: true, auto_increment: true}
      - {name: nombre, type: VARCHAR(100), not_null: true}
`
	res, err := generator(t, build(t, doc), target).Generate(ctx)
	require.NoError(t, err)
	assert.Contains(t, res.Removed, "internal/models/cita.go")
	assert.NoFileExists(t, filepath.Join(target, ModelsDir, "cita.go"))
	assert.FileExists(t, filepath.Join(target, ModelsDir, "paciente.go"))
}

func TestGenerateFailedTable(t *testing.T) {
	doc := clinica + `  - {from: {table: pacientes, columns: [aseguradora_id]}, to: {table: users}}
`
	g := build(t, doc)
	require.Contains(t, g.Failed, "pacientes")
	target := t.TempDir()

	res, err := generator(t, g, target).Generate(context.Background())
	require.Error(t, err)
	assert.True(t, erdgen.IsUnresolvedReference(err))
	assert.Contains(t, res.Failed, "pacientes")
	// citas references pacientes and fails with it.
	assert.Contains(t, res.Failed, "citas")
	assert.NotContains(t, res.Failed, "medicos")

	assert.FileExists(t, filepath.Join(target, ModelsDir, "medico.go"))
	assert.NoFileExists(t, filepath.Join(target, ModelsDir, "paciente.go"))
	assert.NoFileExists(t, filepath.Join(target, ModelsDir, "cita.go"))

	b, err := os.ReadFile(filepath.Join(target, RoutesDir, "routes.go"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"/medicos"`)
	assert.NotContains(t, string(b), `"/citas"`)

	b, err = os.ReadFile(filepath.Join(target, ModelsDir, "medico.go"))
	require.NoError(t, err)
	// The relation to the failed table is dropped.
	assert.NotContains(t, string(b), "[]Cita")
}

func TestGenerateCanceled(t *testing.T) {
	g := build(t, clinica)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := generator(t, g, t.TempDir()).Generate(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

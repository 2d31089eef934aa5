package cli

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/erdgen/compiler/gen"
	"github.com/syssam/erdgen/internal/cli/config"
)

const clinica = `
tables:
  - name: medicos
    columns:
      - {name: id, type: INT, not_null: true, auto_increment: true}
      - {name: nombre, type: VARCHAR(100), not_null: true}
      - {name: email, type: VARCHAR(150)}
  - name: citas
    columns:
      - {name: id, type: INT, not_null: true, auto_increment: true}
      - {name: medico_id, type: INT, not_null: true}
      - {name: fecha, type: DATE}
      - {name: paciente_id, type: INT}
connectors:
  - {from: {table: citas, columns: [medico_id]}, to: {table: medicos}}
`

// setup writes the diagram into a fresh working directory.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("clinica.yaml", []byte(clinica), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	setup(t)
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "erdgen v"+Version)
}

func TestGenerate(t *testing.T) {
	dir := setup(t)

	out, _, err := execute(t, "generate", "-i", "clinica.yaml", "-o", "backend", "-p", "github.com/acme/clinica")
	require.NoError(t, err)
	assert.Contains(t, out, "generated")
	assert.FileExists(t, filepath.Join(dir, "backend", gen.ModelsDir, "cita.go"))
	assert.FileExists(t, filepath.Join(dir, "backend", "database/migrations/0002_create_citas_table.sql"))

	out, _, err = execute(t, "generate", "-i", "clinica.yaml", "-o", "backend", "-p", "github.com/acme/clinica")
	require.NoError(t, err)
	assert.Contains(t, out, "backend is up to date")

	t.Run("config file", func(t *testing.T) {
		require.NoError(t, os.WriteFile("erdgen.yaml", []byte("input: clinica.yaml\noutput: api\npackage: github.com/acme/api\nartifacts: [migration]\n"), 0o644))
		_, _, err := execute(t, "generate")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "api", "database/migrations/0001_create_medicos_table.sql"))
		assert.NoDirExists(t, filepath.Join(dir, "api", gen.ModelsDir))
	})
}

func TestGenerateMissingOptions(t *testing.T) {
	setup(t)

	_, _, err := execute(t, "generate", "-p", "github.com/acme/clinica")
	require.ErrorContains(t, err, "no diagram given")

	_, _, err = execute(t, "generate", "-i", "clinica.yaml")
	require.ErrorContains(t, err, "no package given")

	_, _, err = execute(t, "generate", "-i", "missing.yaml", "-p", "github.com/acme/clinica")
	require.Error(t, err)

	_, _, err = execute(t, "generate", "-i", "clinica.yaml", "-p", "x", "--artifacts", "swagger")
	require.Error(t, err)
}

func TestPlan(t *testing.T) {
	dir := setup(t)
	out, _, err := execute(t, "plan", "-i", "clinica.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "medicos")
	assert.Contains(t, out, "internal/handlers/cita_handler.go")
	assert.Contains(t, out, "internal/routes/routes.go")
	assert.Contains(t, out, "database/seeders/database_seeder.go")
	assert.NotContains(t, out, "INTERNAL/ROUTES")
	assert.NoDirExists(t, filepath.Join(dir, "generated"))
}

func TestDoctor(t *testing.T) {
	setup(t)
	out, _, err := execute(t, "doctor", "-i", "clinica.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "medico_id")
	assert.Contains(t, out, "medicos.id")
	// paciente_id has no connector.
	assert.Contains(t, out, "paciente_id")
	assert.Contains(t, out, "relationship")

	out, _, err = execute(t, "doctor", "-i", "clinica.yaml", "--table", "medicos")
	require.NoError(t, err)
	assert.NotContains(t, out, "medico_id")

	_, _, err = execute(t, "doctor", "-i", "clinica.yaml", "--table", "pacientes")
	require.Error(t, err)
}

func TestSeedSQLite(t *testing.T) {
	dir := setup(t)
	dsn := filepath.Join(dir, "clinica.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range []string{
		`CREATE TABLE medicos (id INTEGER PRIMARY KEY AUTOINCREMENT, nombre TEXT NOT NULL, email TEXT UNIQUE)`,
		`CREATE TABLE citas (id INTEGER PRIMARY KEY AUTOINCREMENT, medico_id INTEGER NOT NULL REFERENCES medicos (id), fecha TEXT, paciente_id INTEGER)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	out, _, err := execute(t, "seed", "-i", "clinica.yaml", "--driver", "sqlite3", "--dsn", dsn, "--rows", "4", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded")

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM citas`).Scan(&n))
	assert.Equal(t, 4, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM citas WHERE medico_id NOT IN (SELECT id FROM medicos)`).Scan(&n))
	assert.Zero(t, n)
}

func TestSeedWithoutDatabase(t *testing.T) {
	setup(t)
	_, _, err := execute(t, "seed", "-i", "clinica.yaml")
	require.ErrorContains(t, err, "no database given")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, &config.Config{Verbose: true, LogFormat: "json"})
	l.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	l = NewLogger(&buf, &config.Config{LogFormat: "text"})
	l.Debug("hidden")
	l.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

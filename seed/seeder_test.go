package seed

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erdgen"
	"github.com/syssam/erdgen/compiler/load"
	"github.com/syssam/erdgen/dialect"
	dsql "github.com/syssam/erdgen/dialect/sql"
	"github.com/syssam/erdgen/graph"
)

const consultorio = `
tables:
  - name: citas
    columns:
      - {name: id, type: BIGINT, not_null: true, auto_increment: true}
      - {name: medico_id, type: BIGINT, not_null: true}
      - {name: motivo, type: VARCHAR(100)}
  - name: medicos
    columns:
      - {name: id, type: BIGINT, not_null: true, auto_increment: true}
      - {name: user_id, type: BIGINT, not_null: true}
      - {name: nombre, type: VARCHAR(100), not_null: true}
      - {name: created_at, type: TIMESTAMP}
      - {name: updated_at, type: TIMESTAMP}
  - name: users
    columns:
      - {name: id, type: BIGINT, not_null: true, auto_increment: true}
      - {name: email, type: VARCHAR}
connectors:
  - {from: {table: citas, columns: [medico_id]}, to: {table: medicos}}
  - {from: {table: medicos, columns: [user_id]}, to: {table: users}}
`

// oneOf matches arguments that belong to a set of identifiers.
type oneOf []int64

func (o oneOf) Match(v driver.Value) bool {
	id, ok := v.(int64)
	if !ok {
		return false
	}
	for _, want := range o {
		if id == want {
			return true
		}
	}
	return false
}

func newGraph(t *testing.T, doc string) *graph.Graph {
	t.Helper()
	m, err := load.Parse(load.FormatYAML, []byte(doc))
	require.NoError(t, err)
	g, err := graph.Build(m)
	require.NoError(t, err)
	return g
}

func TestSeederRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// users is excluded: its identifiers are read, never written.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id` FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)).AddRow(int64(12)))
	mock.ExpectBegin()
	for id := int64(1); id <= 2; id++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `medicos` (`user_id`, `nombre`, `created_at`, `updated_at`) VALUES (?, ?, ?, ?)")).
			WithArgs(oneOf{11, 12}, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(id, 1))
	}
	mock.ExpectCommit()
	mock.ExpectBegin()
	for id := int64(1); id <= 2; id++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `citas` (`medico_id`, `motivo`) VALUES (?, ?)")).
			WithArgs(oneOf{1, 2}, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(id, 1))
	}
	mock.ExpectCommit()

	g := newGraph(t, consultorio)
	res, err := New(dsql.OpenDB(dialect.MySQL, db), g, WithRows(2), WithSeed(1)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"medicos", "citas"}, res.Seeded)
	assert.Equal(t, map[string]int{"medicos": 2, "citas": 2}, res.Inserted)
	assert.Empty(t, res.Failed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeederEmptyExcludedPool(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id` FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	g := newGraph(t, consultorio)
	res, err := New(dsql.OpenDB(dialect.MySQL, db), g, WithRows(2)).Run(context.Background())
	require.Error(t, err)
	assert.True(t, erdgen.IsUnresolvedReference(err))
	assert.Empty(t, res.Seeded)
	require.Contains(t, res.Failed, "medicos")
	require.Contains(t, res.Failed, "citas")
	assert.Contains(t, res.Failed["medicos"].Error(), "users")
	assert.Contains(t, res.Failed["citas"].Error(), "medicos")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeederRollback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `medicos`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `medicos`").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	g := newGraph(t, `
tables:
  - name: medicos
    columns:
      - {name: id, type: INT, not_null: true, auto_increment: true}
      - {name: nombre, type: VARCHAR(80)}
  - name: citas
    columns:
      - {name: id, type: INT, not_null: true, auto_increment: true}
      - {name: medico_id, type: INT}
connectors:
  - {from: {table: citas, columns: [medico_id]}, to: {table: medicos}}
`)
	res, err := New(dsql.OpenDB(dialect.MySQL, db), g, WithRows(3)).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, erdgen.IsUnresolvedReference(res.Failed["citas"]))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeederPostgresReturning(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "medicos" ("nombre") VALUES ($1) RETURNING "id"`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(40)))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "citas" ("medico_id") VALUES ($1) RETURNING "id"`).
		WithArgs(oneOf{40}).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectCommit()

	g := newGraph(t, `
tables:
  - name: medicos
    columns:
      - {name: id, type: INT, not_null: true, auto_increment: true}
      - {name: nombre, type: VARCHAR(80)}
  - name: citas
    columns:
      - {name: id, type: INT, not_null: true, auto_increment: true}
      - {name: medico_id, type: INT}
connectors:
  - {from: {table: citas, columns: [medico_id]}, to: {table: medicos}}
`)
	res, err := New(dsql.OpenDB(dialect.Postgres, db), g, WithRows(1)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"medicos", "citas"}, res.Seeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeederCanceled(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(dsql.OpenDB(dialect.MySQL, db), newGraph(t, consultorio)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

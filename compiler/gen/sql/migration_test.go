package sql

import (
	"context"
	"strings"
	"testing"

	atlas "ariga.io/atlas/sql/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erdgen/compiler/load"
	"github.com/syssam/erdgen/graph"
	"github.com/syssam/erdgen/schema"
)

const clinica = `
tables:
  - name: medicos
    columns:
      - {name: id, type: BIGINT UNSIGNED, not_null: true, auto_increment: true}
      - {name: nombre, type: VARCHAR, not_null: true}
      - {name: email, type: VARCHAR(150)}
      - {name: activo, type: TINYINT(1), not_null: true, default: "1"}
      - {name: created_at, type: TIMESTAMP}
      - {name: updated_at, type: TIMESTAMP}
  - name: clientes
    columns:
      - {name: id, type: BIGINT UNSIGNED, not_null: true, auto_increment: true}
      - {name: nombre, type: VARCHAR(100), comment: nombre completo}
      - {name: saldo, type: DECIMAL}
      - {name: deleted_at, type: TIMESTAMP}
  - name: citas
    columns:
      - {name: id, type: BIGINT UNSIGNED, not_null: true, auto_increment: true}
      - {name: medico_id, type: BIGINT UNSIGNED, not_null: true}
      - {name: cliente_id, type: INT}
      - {name: estado, type: VARCHAR(20), default: "'pendiente'"}
connectors:
  - {from: {table: citas, columns: [medico_id]}, to: {table: medicos}, on_delete: cascade}
  - {from: {table: citas, columns: [cliente_id]}, to: {table: clientes}, on_delete: set null}
`

func build(t *testing.T) *graph.Graph {
	t.Helper()
	m, err := load.Parse(load.FormatYAML, []byte(clinica))
	require.NoError(t, err)
	g, err := graph.Build(m)
	require.NoError(t, err)
	return g
}

func TestRender(t *testing.T) {
	g := build(t)
	ctx := context.Background()

	t.Run("timestamps and unique email", func(t *testing.T) {
		mig, err := Render(ctx, g.Model, g.Table("medicos"), g.Position("medicos"))
		require.NoError(t, err)
		assert.Equal(t, "0001_create_medicos_table.sql", mig.Filename())
		out := string(mig.Data)
		assert.True(t, strings.HasPrefix(out, "-- Code generated by erdgen. DO NOT EDIT.\n"))
		assert.Contains(t, out, "-- +goose Up\n-- create \"medicos\" table\nCREATE TABLE `medicos` (\n")
		assert.Contains(t, out, "  `id` bigint unsigned NOT NULL AUTO_INCREMENT,\n")
		assert.Contains(t, out, "  `nombre` varchar(255) NOT NULL,\n")
		assert.Contains(t, out, "  `email` varchar(150) NULL,\n")
		assert.Contains(t, out, "  `activo` bool NOT NULL DEFAULT 1,\n")
		assert.Contains(t, out, "`created_at` timestamp NULL DEFAULT CURRENT_TIMESTAMP,")
		assert.Contains(t, out, "`updated_at` timestamp NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,")
		assert.Contains(t, out, "PRIMARY KEY (`id`)")
		assert.Contains(t, out, "UNIQUE INDEX `medicos_email_unique` (`email`)")
		assert.Contains(t, out, "-- +goose Down\nDROP TABLE `medicos`;\n")
	})

	t.Run("soft delete", func(t *testing.T) {
		mig, err := Render(ctx, g.Model, g.Table("clientes"), g.Position("clientes"))
		require.NoError(t, err)
		out := string(mig.Data)
		assert.Contains(t, out, "`saldo` decimal(8,2) NULL,")
		assert.Contains(t, out, "`nombre` varchar(100) NULL COMMENT 'nombre completo',")
		assert.NotContains(t, out, `"nombre completo"`)
		assert.Contains(t, out, "`deleted_at` timestamp NULL,")
		assert.Contains(t, out, "INDEX `clientes_deleted_at_index` (`deleted_at`)")
		assert.NotContains(t, out, "created_at")
	})

	t.Run("foreign keys", func(t *testing.T) {
		mig, err := Render(ctx, g.Model, g.Table("citas"), g.Position("citas"))
		require.NoError(t, err)
		assert.Equal(t, "0003", mig.Version)
		out := string(mig.Data)
		// cliente_id was coerced to the referenced key type.
		assert.Contains(t, out, "`cliente_id` bigint unsigned NULL,")
		assert.Contains(t, out, "`estado` varchar(20) NULL DEFAULT 'pendiente',")
		assert.NotContains(t, out, `DEFAULT "pendiente"`)
		assert.Contains(t, out, "CONSTRAINT `fk_citas_medicos` FOREIGN KEY (`medico_id`) REFERENCES `medicos` (`id`) ON UPDATE RESTRICT ON DELETE CASCADE")
		assert.Contains(t, out, "CONSTRAINT `fk_citas_clientes` FOREIGN KEY (`cliente_id`) REFERENCES `clientes` (`id`) ON UPDATE RESTRICT ON DELETE SET NULL")
	})

	t.Run("no position", func(t *testing.T) {
		_, err := Render(ctx, g.Model, g.Table("citas"), 0)
		assert.Error(t, err)
	})
}

func TestRenderAutoIncrementVarcharKey(t *testing.T) {
	m, err := load.Parse(load.FormatYAML, []byte(`
tables:
  - name: especialidades
    columns:
      - {name: codigo, type: VARCHAR, not_null: true, auto_increment: true}
      - {name: nombre, type: VARCHAR(80)}
`))
	require.NoError(t, err)
	g, err := graph.Build(m)
	require.NoError(t, err)
	mig, err := Render(context.Background(), g.Model, g.Table("especialidades"), g.Position("especialidades"))
	require.NoError(t, err)
	out := string(mig.Data)
	assert.Contains(t, out, "`codigo` bigint NOT NULL AUTO_INCREMENT,")
	assert.NotContains(t, out, "varchar(255) NOT NULL AUTO_INCREMENT")
}

func TestRenderSetNullOnRequiredColumn(t *testing.T) {
	g := build(t)
	citas := g.Table("citas")
	citas.ForeignKey("medico_id").OnDelete = schema.SetNull
	at, err := Table(g.Model, citas)
	require.NoError(t, err)
	c, ok := at.Column("medico_id")
	require.True(t, ok)
	assert.True(t, c.Type.Null)
}

func TestTableOrder(t *testing.T) {
	g := build(t)
	at, err := Table(g.Model, g.Table("medicos"))
	require.NoError(t, err)
	var names []string
	for _, c := range at.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "nombre", "email", "activo", "created_at", "updated_at"}, names)
	require.NotNil(t, at.PrimaryKey)
	assert.Equal(t, "id", at.PrimaryKey.Parts[0].C.Name)
}

func TestDefaultExpr(t *testing.T) {
	tests := []struct {
		def  string
		kind schema.Kind
		want string
	}{
		{def: "", want: ""},
		{def: "NULL", want: ""},
		{def: "'activo'", kind: schema.KindString, want: "'activo'"},
		{def: `"activo"`, kind: schema.KindString, want: "'activo'"},
		{def: "pendiente", kind: schema.KindString, want: "'pendiente'"},
		{def: "'O'Higgins'", kind: schema.KindString, want: `'O\'Higgins'`},
		{def: "0", kind: schema.KindInteger, want: "0"},
		{def: "TRUE", kind: schema.KindBoolean, want: "1"},
		{def: "current_timestamp", kind: schema.KindDateTime, want: "CURRENT_TIMESTAMP"},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			x := defaultExpr(&schema.Column{Default: tt.def, Type: schema.ColumnTypeSpec{Kind: tt.kind}})
			if tt.want == "" {
				assert.Nil(t, x)
				return
			}
			switch x := x.(type) {
			case *atlas.Literal:
				assert.Equal(t, tt.want, x.V)
			case *atlas.RawExpr:
				assert.Equal(t, tt.want, x.X)
			default:
				t.Fatalf("unexpected expression %T", x)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "0001", Version(1))
	assert.Equal(t, "0042", Version(42))
	assert.Equal(t, "12345", Version(12345))
}

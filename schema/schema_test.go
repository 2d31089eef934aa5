package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erdgen/schema"
)

func TestColumnTypeSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    schema.ColumnTypeSpec
		wantErr string
	}{
		{name: "string", spec: schema.ColumnTypeSpec{Kind: schema.KindString, Length: 255}},
		{name: "decimal", spec: schema.ColumnTypeSpec{Kind: schema.KindDecimal, Precision: 8, Scale: 2}},
		{name: "integer", spec: schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: "bigint", Unsigned: true}},
		{name: "invalid", spec: schema.ColumnTypeSpec{}, wantErr: "invalid column kind"},
		{name: "string without length", spec: schema.ColumnTypeSpec{Kind: schema.KindString}, wantErr: "positive length"},
		{name: "text with length", spec: schema.ColumnTypeSpec{Kind: schema.KindText, Length: 10}, wantErr: "cannot carry a length"},
		{name: "decimal scale overflow", spec: schema.ColumnTypeSpec{Kind: schema.KindDecimal, Precision: 2, Scale: 4}, wantErr: "scale <= precision"},
		{name: "date with precision", spec: schema.ColumnTypeSpec{Kind: schema.KindDate, Precision: 3}, wantErr: "cannot carry precision"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestColumnTypeSpecMatches(t *testing.T) {
	pk := schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: "bigint", Unsigned: true}
	assert.True(t, pk.Matches(schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: "bigint", Unsigned: true}))
	assert.False(t, pk.Matches(schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: "int"}))
	assert.False(t, pk.Matches(schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: "bigint"}))

	// An empty integer width means "int".
	assert.True(t, schema.ColumnTypeSpec{Kind: schema.KindInteger}.Matches(schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: "int"}))
}

func TestColumnTypeSpecString(t *testing.T) {
	assert.Equal(t, "string(255)", schema.ColumnTypeSpec{Kind: schema.KindString, Length: 255}.String())
	assert.Equal(t, "decimal(8,2)", schema.ColumnTypeSpec{Kind: schema.KindDecimal, Precision: 8, Scale: 2}.String())
	assert.Equal(t, "integer(bigint unsigned)", schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: "bigint", Unsigned: true}.String())
	assert.Equal(t, "date", schema.ColumnTypeSpec{Kind: schema.KindDate}.String())
	assert.Equal(t, "kind(42)", schema.Kind(42).String())
}

func TestModel(t *testing.T) {
	require := require.New(t)
	m := schema.NewModel()
	require.NoError(m.AddTable(&schema.Table{Name: "medicos"}))
	require.NoError(m.AddTable(&schema.Table{Name: "citas"}))
	require.EqualError(m.AddTable(&schema.Table{Name: "medicos"}), `duplicate table "medicos"`)
	require.EqualError(m.AddTable(&schema.Table{}), "table has no name")

	require.Equal([]string{"medicos", "citas"}, m.Names())
	require.Equal(1, m.Table("citas").Position)
	require.Nil(m.Table("pacientes"))

	require.True(m.Excluded("users"))
	require.True(m.Excluded("rol"))
	require.True(m.Excluded("estatus"))
	require.False(m.Excluded("medicos"))

	// Models without an index (e.g. decoded from a snapshot) still resolve tables.
	decoded := &schema.Model{Tables: m.Tables}
	require.Equal("citas", decoded.Table("citas").Name)
}

func TestTableFields(t *testing.T) {
	tbl := &schema.Table{
		Name: "citas",
		Columns: []*schema.Column{
			{Name: "id", Primary: true},
			{Name: "medico_id"},
			{Name: "fecha_cita"},
			{Name: "created_at"},
			{Name: "updated_at"},
			{Name: "deleted_at"},
		},
	}
	names := func(cs []*schema.Column) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Name)
		}
		return out
	}
	// Before enrichment nothing is collapsed.
	assert.Equal(t, []string{"medico_id", "fecha_cita", "created_at", "updated_at", "deleted_at"}, names(tbl.Fields()))

	tbl.HasTimestamps = true
	tbl.HasSoftDelete = true
	assert.Equal(t, []string{"medico_id", "fecha_cita"}, names(tbl.Fields()))
	assert.Equal(t, "id", tbl.PrimaryKey().Name)
}

func TestTableRelations(t *testing.T) {
	tbl := &schema.Table{
		Name: "citas",
		ForeignKeys: []*schema.ForeignKeyRef{
			{Column: "medico_id", RefTable: "medicos"},
			{Column: "cliente_id", RefTable: "clientes"},
			{Column: "medico_suplente_id", RefTable: "medicos"},
		},
		Relations: []*schema.Relation{
			{Kind: schema.BelongsTo, Name: "medico", Table: "medicos"},
			{Kind: schema.HasMany, Name: "pagos", Table: "pagos"},
		},
	}
	assert.Equal(t, []string{"medicos", "clientes"}, tbl.References())
	assert.Equal(t, "clientes", tbl.ForeignKey("cliente_id").RefTable)
	assert.Nil(t, tbl.ForeignKey("nombre"))
	assert.Len(t, tbl.RelationsOf(schema.BelongsTo), 1)
	assert.Equal(t, "has-many", tbl.RelationsOf(schema.HasMany)[0].Kind.String())
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, schema.Cascade, schema.ParseAction("cascade"))
	assert.Equal(t, schema.SetNull, schema.ParseAction("SET  NULL"))
	assert.Equal(t, schema.NoAction, schema.ParseAction("no action"))
	assert.Equal(t, schema.Restrict, schema.ParseAction(""))
	assert.Equal(t, schema.Restrict, schema.ParseAction("bogus"))
}

package gen

import (
	"fmt"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erdgen/schema"
)

func TestNewEntity(t *testing.T) {
	g := build(t, clinica)

	t.Run("belongs to", func(t *testing.T) {
		e := NewEntity(g.Model, g.Table("citas"))
		assert.Equal(t, "Cita", e.Name)
		assert.Equal(t, "cita", e.Filename())
		assert.Equal(t, "c", e.Receiver())
		require.True(t, e.HasKey())
		assert.Equal(t, "ID", e.ID.Name)

		var names []string
		for _, f := range e.Fields {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{"MedicoID", "PacienteID", "HoraInicio", "Notas"}, names)

		f := e.Field("medico_id")
		require.NotNil(t, f)
		require.NotNil(t, f.FK)
		assert.Equal(t, "medicos", f.FK.RefTable)
		assert.Equal(t, "id", e.Ref(f).Name)
		assert.Nil(t, e.Ref(e.Field("notas")))
		assert.Equal(t, e.ID, e.Field("id"))
		assert.Nil(t, e.Field("missing"))

		edges := e.EdgesOf(schema.BelongsTo)
		require.Len(t, edges, 2)
		assert.Equal(t, "Medico", edges[0].Type)
		assert.Equal(t, "MedicoID", edges[0].ForeignKey)
		assert.Equal(t, "ID", edges[0].References)
	})

	t.Run("has many", func(t *testing.T) {
		e := NewEntity(g.Model, g.Table("medicos"))
		edges := e.EdgesOf(schema.HasMany)
		require.Len(t, edges, 1)
		assert.Equal(t, "Cita", edges[0].Type)
		assert.Equal(t, "MedicoID", edges[0].ForeignKey)
		assert.Empty(t, edges[0].References)
		// Timestamps are not individual fields.
		assert.Nil(t, e.Field("created_at"))
	})
}

func TestTypeName(t *testing.T) {
	tests := map[string]string{
		"citas":              "Cita",
		"medicos":            "Medico",
		"especialidades":     "Especialidad",
	}
	for table, want := range tests {
		assert.Equal(t, want, TypeName(table), table)
	}
}

func TestBaseType(t *testing.T) {
	tests := []struct {
		spec schema.ColumnTypeSpec
		want string
	}{
		{schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: "bigint", Unsigned: true}, "uint64"},
		{schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: "int"}, "int32"},
		{schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: "tinyint"}, "int8"},
		{schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: "smallint", Unsigned: true}, "uint16"},
		{schema.ColumnTypeSpec{Kind: schema.KindDecimal, Precision: 8, Scale: 2}, "float64"},
		{schema.ColumnTypeSpec{Kind: schema.KindBoolean}, "bool"},
		{schema.ColumnTypeSpec{Kind: schema.KindString, Length: 255}, "string"},
		{schema.ColumnTypeSpec{Kind: schema.KindTime}, "string"},
		{schema.ColumnTypeSpec{Kind: schema.KindDate}, "time.Time"},
		{schema.ColumnTypeSpec{Kind: schema.KindJSON}, "json.RawMessage"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, fmt.Sprintf("%#v", baseType(tt.spec)))
		})
	}
}

func TestFieldGoType(t *testing.T) {
	f := &Field{Column: &schema.Column{Name: "saldo", Type: schema.ColumnTypeSpec{Kind: schema.KindDecimal}}}
	assert.True(t, f.Nillable())
	assert.Equal(t, "*float64", fmt.Sprintf("%#v", jen.Add(f.GoType())))
	f.NotNull = true
	assert.False(t, f.Nillable())
	assert.Equal(t, "float64", fmt.Sprintf("%#v", jen.Add(f.GoType())))
}

func TestGormTag(t *testing.T) {
	tests := []struct {
		name string
		col  *schema.Column
		want string
	}{
		{
			name: "auto increment key",
			col:  &schema.Column{Name: "id", Primary: true, AutoIncrement: true, NotNull: true, Type: schema.ColumnTypeSpec{Kind: schema.KindInteger}},
			want: "column:id;primaryKey;autoIncrement",
		},
		{
			name: "unique string",
			col:  &schema.Column{Name: "email", Unique: true, Type: schema.ColumnTypeSpec{Kind: schema.KindString, Length: 150}},
			want: "column:email;size:150;uniqueIndex",
		},
		{
			name: "required decimal",
			col:  &schema.Column{Name: "tarifa", NotNull: true, Type: schema.ColumnTypeSpec{Kind: schema.KindDecimal, Precision: 8, Scale: 2}},
			want: "column:tarifa;type:decimal(8,2);not null",
		},
		{
			name: "medium text",
			col:  &schema.Column{Name: "notas", Type: schema.ColumnTypeSpec{Kind: schema.KindText, SQLType: "mediumtext"}},
			want: "column:notas;type:mediumtext",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gormTag(tt.col))
		})
	}
}

func TestBinding(t *testing.T) {
	tests := []struct {
		name string
		col  *schema.Column
		want string
	}{
		{"required email", &schema.Column{Name: "correo", NotNull: true, Type: schema.ColumnTypeSpec{Kind: schema.KindString, Length: 150}}, "required,max=150,email"},
		{"optional date", &schema.Column{Name: "fecha", Type: schema.ColumnTypeSpec{Kind: schema.KindDate}}, "omitempty,datetime=2006-01-02"},
		{"time", &schema.Column{Name: "hora", NotNull: true, Type: schema.ColumnTypeSpec{Kind: schema.KindTime}}, "required,datetime=15:04:05"},
		{"decimal", &schema.Column{Name: "monto", Type: schema.ColumnTypeSpec{Kind: schema.KindDecimal}}, "omitempty,numeric"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, binding(&Field{Column: tt.col}))
		})
	}
}

func TestCast(t *testing.T) {
	assert.Equal(t, "decimal:2", cast(&schema.Column{Type: schema.ColumnTypeSpec{Kind: schema.KindDecimal, Scale: 2}}))
	assert.Equal(t, "boolean", cast(&schema.Column{Type: schema.ColumnTypeSpec{Kind: schema.KindBoolean}}))
	assert.Equal(t, "json", cast(&schema.Column{Type: schema.ColumnTypeSpec{Kind: schema.KindJSON}}))
	assert.Empty(t, cast(&schema.Column{Type: schema.ColumnTypeSpec{Kind: schema.KindString}}))
}

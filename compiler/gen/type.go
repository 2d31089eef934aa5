package gen

import (
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/erdgen/internal/naming"
	"github.com/syssam/erdgen/schema"
)

// Import paths referenced by the generated code.
const (
	pkgGin      = "github.com/gin-gonic/gin"
	pkgGorm     = "gorm.io/gorm"
	pkgGofakeit = "github.com/brianvoe/gofakeit/v7"
)

// The following types wrap the enriched schema model with the
// names and Go types used by the renderers.
type (
	// Entity is a table prepared for rendering.
	Entity struct {
		*schema.Table
		model *schema.Model
		// Name is the Go type name of the table model, e.g. "Cita".
		Name string
		// ID is the primary key field, or nil.
		ID *Field
		// Fields holds the individually emitted columns, in declaration order.
		Fields []*Field
		// Edges holds one relation accessor per resolved relation.
		Edges []*Edge
	}

	// Field is a column with its Go name.
	Field struct {
		*schema.Column
		// Name is the Go field name, e.g. "MedicoID".
		Name string
		// FK is the established foreign key on this column, or nil.
		FK *schema.ForeignKeyRef
	}

	// Edge is a relation accessor of a model.
	Edge struct {
		*schema.Relation
		// Name is the Go field name, e.g. "Medico" or "Citas".
		Name string
		// Type is the Go type name of the related model.
		Type string
		// ForeignKey is the Go name of the foreign-key field.
		ForeignKey string
		// References is the Go name of the referenced key field (belongs-to only).
		References string
	}
)

// TypeName returns the Go type name of a table model.
func TypeName(table string) string {
	return naming.Pascal(naming.Singular(table))
}

// NewEntity prepares t for rendering.
func NewEntity(m *schema.Model, t *schema.Table) *Entity {
	e := &Entity{Table: t, model: m, Name: TypeName(t.Name)}
	if pk := t.PrimaryKey(); pk != nil {
		e.ID = &Field{Column: pk, Name: naming.Pascal(pk.Name)}
	}
	names := make(map[string]bool)
	for _, c := range t.Fields() {
		f := &Field{Column: c, Name: naming.Pascal(c.Name), FK: t.ForeignKey(c.Name)}
		e.Fields = append(e.Fields, f)
		names[f.Name] = true
	}
	for _, r := range t.Relations {
		edge := &Edge{Relation: r, Name: naming.Pascal(r.Name), Type: TypeName(r.Table), ForeignKey: naming.Pascal(r.ForeignKey)}
		if r.Kind == schema.BelongsTo {
			if fk := t.ForeignKey(r.ForeignKey); fk != nil {
				edge.References = naming.Pascal(fk.RefColumn)
			}
		}
		// A column may share the accessor name ("medico" and "medico_id").
		for names[edge.Name] {
			edge.Name += "Ref"
		}
		names[edge.Name] = true
		e.Edges = append(e.Edges, edge)
	}
	return e
}

// Filename returns the base file name of the per-table artifacts, e.g. "cita".
func (e *Entity) Filename() string {
	return naming.Snake(naming.Singular(e.Table.Name))
}

// Receiver returns the receiver name used in generated methods.
func (e *Entity) Receiver() string {
	return strings.ToLower(e.Name[:1])
}

// HasKey reports whether the table has a primary key to address rows by.
func (e *Entity) HasKey() bool {
	return e.ID != nil
}

// Field returns the field of the given column, or nil.
func (e *Entity) Field(column string) *Field {
	if e.ID != nil && e.ID.Column.Name == column {
		return e.ID
	}
	for _, f := range e.Fields {
		if f.Column.Name == column {
			return f
		}
	}
	return nil
}

// EdgesOf returns the edges of the given relation kind.
func (e *Entity) EdgesOf(kind schema.RelationKind) []*Edge {
	var edges []*Edge
	for _, edge := range e.Edges {
		if edge.Kind == kind {
			edges = append(edges, edge)
		}
	}
	return edges
}

// Ref returns the referenced key column of a foreign-key field.
func (e *Entity) Ref(f *Field) *schema.Column {
	if f.FK == nil {
		return nil
	}
	if ref := e.model.Table(f.FK.RefTable); ref != nil {
		return ref.Column(f.FK.RefColumn)
	}
	return nil
}

// Nillable reports whether the field is a pointer in the generated model.
func (f *Field) Nillable() bool {
	return f.Nullable()
}

// Email reports whether the column holds email addresses.
func (f *Field) Email() bool {
	name := strings.ToLower(f.Column.Name)
	return strings.Contains(name, "email") || strings.Contains(name, "correo")
}

// GoType returns the Go type of the field, a pointer when nillable.
func (f *Field) GoType() jen.Code {
	if f.Nillable() {
		return jen.Op("*").Add(baseType(f.Column.Type))
	}
	return baseType(f.Column.Type)
}

// BaseType returns the Go type of the field without the pointer.
func (f *Field) BaseType() *jen.Statement {
	return baseType(f.Column.Type)
}

// baseType maps a resolved column type to its Go type.
func baseType(spec schema.ColumnTypeSpec) *jen.Statement {
	switch spec.Kind {
	case schema.KindInteger:
		return intType(spec)
	case schema.KindDecimal:
		return jen.Float64()
	case schema.KindBoolean:
		return jen.Bool()
	case schema.KindDate, schema.KindDateTime:
		return jen.Qual("time", "Time")
	case schema.KindJSON:
		return jen.Qual("encoding/json", "RawMessage")
	default:
		return jen.String()
	}
}

func intType(spec schema.ColumnTypeSpec) *jen.Statement {
	switch spec.IntType() {
	case "tinyint":
		if spec.Unsigned {
			return jen.Uint8()
		}
		return jen.Int8()
	case "smallint":
		if spec.Unsigned {
			return jen.Uint16()
		}
		return jen.Int16()
	case "bigint":
		if spec.Unsigned {
			return jen.Uint64()
		}
		return jen.Int64()
	default:
		if spec.Unsigned {
			return jen.Uint32()
		}
		return jen.Int32()
	}
}

// gormTag returns the gorm struct tag of a column.
func gormTag(c *schema.Column) string {
	parts := []string{"column:" + c.Name}
	switch spec := c.Type; spec.Kind {
	case schema.KindString:
		parts = append(parts, fmt.Sprintf("size:%d", spec.Length))
	case schema.KindDecimal:
		parts = append(parts, fmt.Sprintf("type:decimal(%d,%d)", spec.Precision, spec.Scale))
	case schema.KindText:
		if spec.SQLType != "" {
			parts = append(parts, "type:"+spec.SQLType)
		} else {
			parts = append(parts, "type:text")
		}
	case schema.KindDate:
		parts = append(parts, "type:date")
	case schema.KindTime:
		parts = append(parts, "type:time")
	case schema.KindJSON:
		parts = append(parts, "type:json")
	}
	if c.Primary {
		parts = append(parts, "primaryKey")
		if c.AutoIncrement {
			parts = append(parts, "autoIncrement")
		}
	} else if c.NotNull {
		parts = append(parts, "not null")
	}
	if c.Unique && !c.Primary {
		parts = append(parts, "uniqueIndex")
	}
	return strings.Join(parts, ";")
}

// binding returns the gin validation rules of an input field.
func binding(f *Field) string {
	var rules []string
	if f.NotNull {
		rules = append(rules, "required")
	} else {
		rules = append(rules, "omitempty")
	}
	switch spec := f.Column.Type; spec.Kind {
	case schema.KindString:
		rules = append(rules, fmt.Sprintf("max=%d", spec.Length))
		if f.Email() {
			rules = append(rules, "email")
		}
	case schema.KindDecimal:
		rules = append(rules, "numeric")
	case schema.KindDate:
		rules = append(rules, "datetime=2006-01-02")
	case schema.KindTime:
		rules = append(rules, "datetime=15:04:05")
	}
	return strings.Join(rules, ",")
}

// cast returns the cast directive of a column, or "".
func cast(c *schema.Column) string {
	switch c.Type.Kind {
	case schema.KindDecimal:
		return fmt.Sprintf("decimal:%d", c.Type.Scale)
	case schema.KindBoolean:
		return "boolean"
	case schema.KindJSON:
		return "json"
	}
	return ""
}

package seed

import (
	"strings"

	"github.com/syssam/erdgen/schema"
)

// Tag names a value generation strategy.
type Tag string

// Generation strategies. Name rules yield the first group, kind fallbacks
// the second.
const (
	FirstName  Tag = "first_name"
	LastName   Tag = "last_name"
	Email      Tag = "email"
	Phone      Tag = "phone"
	JobTitle   Tag = "job_title"
	Decimal    Tag = "decimal"
	Date       Tag = "date"
	Time       Tag = "time"
	Address    Tag = "address"
	Sentence   Tag = "sentence"
	ForeignKey Tag = "foreign_key"
	Words      Tag = "words"

	Integer  Tag = "integer"
	Boolean  Tag = "boolean"
	DateTime Tag = "datetime"
	JSON     Tag = "json"
	Text     Tag = "text"
)

// Fixed value parameters.
const (
	DefaultRows = 10

	DecimalMin = 10.00
	DecimalMax = 9999.99

	// Bounds of decimal values stored in integer columns.
	DecimalMinInt = 10
	DecimalMaxInt = 9999

	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"

	MinWords = 1
	MaxWords = 3
)

// Strategy is the generation strategy of one column.
type Strategy struct {
	Column *schema.Column
	Tag    Tag
	// FK is the established foreign key of a ForeignKey strategy.
	FK *schema.ForeignKeyRef
	// Rule is the name of the rule that selected the strategy.
	Rule string
}

// Self reports whether the strategy samples the table's own rows.
func (s Strategy) Self(t *schema.Table) bool {
	return s.FK != nil && s.FK.RefTable == t.Name
}

// rule is one entry of the ordered strategy table. match receives the
// lower-cased column name.
type rule struct {
	name  string
	tag   Tag
	match func(t *schema.Table, c *schema.Column, name string) bool
}

// rules is evaluated top to bottom and the first match wins. Name rules only
// apply to columns that are not foreign keys and whose kind can hold the value.
var rules = []rule{
	{name: "nombre", tag: FirstName, match: textual(contains("nombre"))},
	{name: "apellido", tag: LastName, match: textual(contains("apellido"))},
	{name: "email", tag: Email, match: textual(contains("email", "correo"))},
	{name: "telefono", tag: Phone, match: textual(contains("telefono", "celular"))},
	{name: "puesto", tag: JobTitle, match: textual(contains("especialidad", "cargo", "puesto"))},
	{name: "monto", tag: Decimal, match: numeric(contains("precio", "costo", "monto", "total"))},
	{name: "fecha", tag: Date, match: kinds(affix("fecha_", "_date", "fecha"), schema.KindDate, schema.KindDateTime, schema.KindString)},
	{name: "hora", tag: Time, match: kinds(affix("hora_", "_time", "hora"), schema.KindTime, schema.KindString)},
	{name: "direccion", tag: Address, match: textual(contains("direccion", "domicilio"))},
	{name: "descripcion", tag: Sentence, match: textual(contains("descripcion", "detalle", "notas"))},
	{name: "foreign key", tag: ForeignKey, match: foreignKey},
	{name: "words", tag: Words, match: kind(schema.KindString)},
	{name: "integer", tag: Integer, match: kind(schema.KindInteger)},
	{name: "decimal", tag: Decimal, match: kind(schema.KindDecimal)},
	{name: "boolean", tag: Boolean, match: kind(schema.KindBoolean)},
	{name: "date", tag: Date, match: kind(schema.KindDate)},
	{name: "datetime", tag: DateTime, match: kind(schema.KindDateTime)},
	{name: "time", tag: Time, match: kind(schema.KindTime)},
	{name: "json", tag: JSON, match: kind(schema.KindJSON)},
	{name: "text", tag: Text, match: kind(schema.KindText)},
}

// Select returns the strategy of column c of table t.
func Select(t *schema.Table, c *schema.Column) Strategy {
	name := strings.ToLower(c.Name)
	for _, r := range rules {
		if r.match(t, c, name) {
			s := Strategy{Column: c, Tag: r.tag, Rule: r.name}
			if r.tag == ForeignKey {
				s.FK = t.ForeignKey(c.Name)
			}
			return s
		}
	}
	return Strategy{Column: c, Tag: Words, Rule: "words"}
}

// Plan returns the strategies of every column of t the seeder fills, in
// declaration order. Auto-increment columns are left to the database and the
// timestamp and soft-delete columns to the table flags.
func Plan(t *schema.Table) []Strategy {
	var plan []Strategy
	for _, c := range t.Columns {
		if c.AutoIncrement || t.Collapsed(c) {
			continue
		}
		plan = append(plan, Select(t, c))
	}
	return plan
}

// References returns the foreign keys sampled by the plan, excluding
// self-references.
func References(t *schema.Table, plan []Strategy) []*schema.ForeignKeyRef {
	var fks []*schema.ForeignKeyRef
	for _, s := range plan {
		if s.FK != nil && !s.Self(t) {
			fks = append(fks, s.FK)
		}
	}
	return fks
}

func contains(parts ...string) func(string) bool {
	return func(name string) bool {
		for _, p := range parts {
			if strings.Contains(name, p) {
				return true
			}
		}
		return false
	}
}

// affix matches names starting with prefix, ending with suffix or equal to word.
func affix(prefix, suffix, word string) func(string) bool {
	return func(name string) bool {
		return name == word || strings.HasPrefix(name, prefix) || strings.HasSuffix(name, suffix)
	}
}

func kinds(match func(string) bool, ks ...schema.Kind) func(*schema.Table, *schema.Column, string) bool {
	return func(t *schema.Table, c *schema.Column, name string) bool {
		if t.ForeignKey(c.Name) != nil || !match(name) {
			return false
		}
		for _, k := range ks {
			if c.Type.Kind == k {
				return true
			}
		}
		return false
	}
}

func textual(match func(string) bool) func(*schema.Table, *schema.Column, string) bool {
	return kinds(match, schema.KindString, schema.KindText)
}

func numeric(match func(string) bool) func(*schema.Table, *schema.Column, string) bool {
	return kinds(match, schema.KindDecimal, schema.KindInteger)
}

func kind(k schema.Kind) func(*schema.Table, *schema.Column, string) bool {
	return func(_ *schema.Table, c *schema.Column, _ string) bool {
		return c.Type.Kind == k
	}
}

// foreignKey matches established foreign keys. The "_id" suffix is the usual
// shape but any established key is sampled from its parent.
func foreignKey(t *schema.Table, c *schema.Column, _ string) bool {
	return t.ForeignKey(c.Name) != nil
}

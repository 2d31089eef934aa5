package schema

import (
	"fmt"
	"slices"
	"strings"
)

// Special column names recognized regardless of their declared type.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
	ColumnDeletedAt = "deleted_at"
)

// DefaultExclusions lists the tables that are seeded by hand-written seeders
// and never receive a generated one.
var DefaultExclusions = []string{"users", "rol", "estatus"}

// Action is a referential action of a foreign key.
type Action string

// Referential actions.
const (
	Restrict Action = "RESTRICT"
	Cascade  Action = "CASCADE"
	SetNull  Action = "SET NULL"
	NoAction Action = "NO ACTION"
)

// ParseAction normalizes a referential action, defaulting to Restrict.
func ParseAction(s string) Action {
	switch a := Action(strings.ToUpper(strings.Join(strings.Fields(s), " "))); a {
	case Cascade, SetNull, NoAction, Restrict:
		return a
	}
	return Restrict
}

type (
	// Model is the schema model of one diagram document.
	Model struct {
		Tables  []*Table `msgpack:"tables"`
		Exclude []string `msgpack:"exclude"`
		index   map[string]int
	}

	// Table is a diagram table. Columns keep their declaration order.
	Table struct {
		Name        string           `msgpack:"name"`
		Comment     string           `msgpack:"comment,omitempty"`
		Position    int              `msgpack:"position"`
		Columns     []*Column        `msgpack:"columns"`
		Indexes     []*Index         `msgpack:"indexes,omitempty"`
		Connectors  []*Connector     `msgpack:"connectors,omitempty"`
		ForeignKeys []*ForeignKeyRef `msgpack:"foreign_keys,omitempty"`
		Relations   []*Relation      `msgpack:"relations,omitempty"`

		// Set by the relationship resolver.
		HasTimestamps bool `msgpack:"has_timestamps,omitempty"`
		HasSoftDelete bool `msgpack:"has_soft_delete,omitempty"`
	}

	// Column is a table column as declared in the document, plus its
	// resolved type.
	Column struct {
		Name          string         `msgpack:"name"`
		RawType       string         `msgpack:"raw_type"`
		Length        int            `msgpack:"length,omitempty"`
		Precision     int            `msgpack:"precision,omitempty"`
		Scale         int            `msgpack:"scale,omitempty"`
		ScaleSet      bool           `msgpack:"scale_set,omitempty"` // an explicit scale was declared, even 0
		NotNull       bool           `msgpack:"not_null,omitempty"`
		AutoIncrement bool           `msgpack:"auto_increment,omitempty"`
		Primary       bool           `msgpack:"primary,omitempty"`
		Unique        bool           `msgpack:"unique,omitempty"`
		Default       string         `msgpack:"default,omitempty"`
		Comment       string         `msgpack:"comment,omitempty"`
		Type          ColumnTypeSpec `msgpack:"type"`

		// FKCandidate is set for integer "_id" columns by the type resolver.
		FKCandidate bool `msgpack:"fk_candidate,omitempty"`
	}

	// Index is a secondary index declared in the document.
	Index struct {
		Name    string   `msgpack:"name"`
		Unique  bool     `msgpack:"unique,omitempty"`
		Columns []string `msgpack:"columns"`
	}

	// Connector is a relationship drawn between two tables. Table holds
	// the dependent side and RefTable the referenced side.
	Connector struct {
		Name       string   `msgpack:"name"`
		Table      string   `msgpack:"table"`
		Columns    []string `msgpack:"columns"`
		RefTable   string   `msgpack:"ref_table"`
		RefColumns []string `msgpack:"ref_columns"`
		OnDelete   Action   `msgpack:"on_delete"`
		OnUpdate   Action   `msgpack:"on_update"`
	}

	// ForeignKeyRef is an established foreign key.
	ForeignKeyRef struct {
		Symbol    string `msgpack:"symbol"`
		Column    string `msgpack:"column"`
		RefTable  string `msgpack:"ref_table"`
		RefColumn string `msgpack:"ref_column"`
		OnDelete  Action `msgpack:"on_delete"`
		OnUpdate  Action `msgpack:"on_update"`

		// Inferred marks keys promoted from naming alone.
		Inferred bool `msgpack:"inferred,omitempty"`
	}

	// Relation is a navigable relation between two tables.
	Relation struct {
		Kind       RelationKind `msgpack:"kind"`
		Name       string       `msgpack:"name"`  // access name, e.g. "medico" or "citas"
		Table      string       `msgpack:"table"` // related table
		ForeignKey string       `msgpack:"foreign_key"`
	}
)

// RelationKind is the direction of a relation.
type RelationKind uint8

// Relation kinds.
const (
	BelongsTo RelationKind = iota + 1
	HasMany
)

// String returns the relation kind name.
func (k RelationKind) String() string {
	switch k {
	case BelongsTo:
		return "belongs-to"
	case HasMany:
		return "has-many"
	}
	return "invalid"
}

// NewModel returns an empty model with the default exclusion set.
func NewModel() *Model {
	return &Model{
		Exclude: slices.Clone(DefaultExclusions),
		index:   make(map[string]int),
	}
}

// AddTable appends a table to the model, keeping declaration order.
func (m *Model) AddTable(t *Table) error {
	if m.index == nil {
		m.reindex()
	}
	if t.Name == "" {
		return fmt.Errorf("table has no name")
	}
	if _, ok := m.index[t.Name]; ok {
		return fmt.Errorf("duplicate table %q", t.Name)
	}
	t.Position = len(m.Tables)
	m.index[t.Name] = len(m.Tables)
	m.Tables = append(m.Tables, t)
	return nil
}

// Table returns the named table, or nil.
func (m *Model) Table(name string) *Table {
	if i, ok := m.index[name]; ok && i < len(m.Tables) && m.Tables[i].Name == name {
		return m.Tables[i]
	}
	for _, t := range m.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Excluded reports whether the table is in the seeding exclusion set.
func (m *Model) Excluded(name string) bool {
	return slices.Contains(m.Exclude, name)
}

// Names returns the table names in declaration order.
func (m *Model) Names() []string {
	names := make([]string, len(m.Tables))
	for i, t := range m.Tables {
		names[i] = t.Name
	}
	return names
}

func (m *Model) reindex() {
	m.index = make(map[string]int, len(m.Tables))
	for i, t := range m.Tables {
		m.index[t.Name] = i
	}
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// PrimaryKey returns the first primary-key column, or nil.
func (t *Table) PrimaryKey() *Column {
	for _, c := range t.Columns {
		if c.Primary {
			return c
		}
	}
	return nil
}

// ForeignKey returns the established foreign key on the given column, or nil.
func (t *Table) ForeignKey(column string) *ForeignKeyRef {
	for _, fk := range t.ForeignKeys {
		if fk.Column == column {
			return fk
		}
	}
	return nil
}

// References returns the distinct tables referenced by established foreign
// keys, in key order.
func (t *Table) References() []string {
	var refs []string
	for _, fk := range t.ForeignKeys {
		if !slices.Contains(refs, fk.RefTable) {
			refs = append(refs, fk.RefTable)
		}
	}
	return refs
}

// Fields returns the columns emitted individually: all columns except the
// primary key and the timestamp and soft-delete columns collapsed into table
// flags.
func (t *Table) Fields() []*Column {
	fields := make([]*Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Primary || t.Collapsed(c) {
			continue
		}
		fields = append(fields, c)
	}
	return fields
}

// Collapsed reports whether the column is rendered through a table flag
// rather than individually.
func (t *Table) Collapsed(c *Column) bool {
	switch c.Name {
	case ColumnCreatedAt, ColumnUpdatedAt:
		return t.HasTimestamps
	case ColumnDeletedAt:
		return t.HasSoftDelete
	}
	return false
}

// RelationsOf returns the relations of the given kind.
func (t *Table) RelationsOf(kind RelationKind) []*Relation {
	var rs []*Relation
	for _, r := range t.Relations {
		if r.Kind == kind {
			rs = append(rs, r)
		}
	}
	return rs
}

// Nullable reports whether the column accepts NULL.
func (c *Column) Nullable() bool {
	return !c.NotNull && !c.Primary
}

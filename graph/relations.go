package graph

import (
	"fmt"
	"strings"

	"github.com/syssam/erdgen"
	"github.com/syssam/erdgen/compiler/diag"
	"github.com/syssam/erdgen/internal/naming"
	"github.com/syssam/erdgen/schema"
)

// RelationshipResolver derives keys and relations from the drawn
// connectors of a model.
type RelationshipResolver struct {
	model  *schema.Model
	report *diag.Report
	infer  bool
}

// NewRelationshipResolver returns a resolver over m. When infer is set,
// "_id" columns matching an existing table are promoted to foreign keys
// even without a connector.
func NewRelationshipResolver(m *schema.Model, r *diag.Report, infer bool) *RelationshipResolver {
	return &RelationshipResolver{model: m, report: r, infer: infer}
}

// PrimaryKeys marks the primary key of t. A column is primary when it is
// named id, explicitly marked, or auto-increment and NOT NULL. Only the
// first one is kept.
func (r *RelationshipResolver) PrimaryKeys(t *schema.Table) {
	var keys []*schema.Column
	for _, c := range t.Columns {
		if c.Name == schema.ColumnID {
			c.Primary = true
			if parseDeclaration(c.RawType).is(integerNames...) {
				c.AutoIncrement = true
			}
		}
		if c.Primary || (c.AutoIncrement && c.NotNull) {
			keys = append(keys, c)
		}
	}
	switch len(keys) {
	case 0:
		r.report.Add(diag.PrimaryKey, t.Name, "", "no primary key")
		return
	case 1:
	default:
		names := make([]string, len(keys))
		for i, c := range keys {
			names[i] = c.Name
		}
		r.report.Add(diag.PrimaryKey, t.Name, "", "%d primary key columns (%s), using %s", len(keys), strings.Join(names, ", "), keys[0].Name)
	}
	for i, c := range keys {
		c.Primary = i == 0
	}
	keys[0].NotNull = true
}

// SpecialColumns sets the timestamp and soft-delete flags of t and the
// uniqueness of email columns.
func (r *RelationshipResolver) SpecialColumns(t *schema.Table) {
	for _, c := range t.Columns {
		switch c.Name {
		case schema.ColumnCreatedAt, schema.ColumnUpdatedAt:
			t.HasTimestamps = true
		case schema.ColumnDeletedAt:
			t.HasSoftDelete = true
		}
		if !c.Primary && strings.Contains(strings.ToLower(c.Name), "email") {
			c.Unique = true
		}
	}
}

// ForeignKeys establishes the foreign keys of the connectors drawn from t.
// A connector naming a missing column is an unresolved reference for t.
func (r *RelationshipResolver) ForeignKeys(t *schema.Table) error {
	var errs []error
	for _, conn := range t.Connectors {
		ref := r.model.Table(conn.RefTable)
		if ref == nil {
			errs = append(errs, erdgen.NewUnresolvedReferenceError(t.Name, "", conn.RefTable, fmt.Sprintf("connector %q references a missing table", conn.Name)))
			continue
		}
		for i, column := range conn.Columns {
			refColumn := conn.RefColumns[i]
			switch {
			case t.Column(column) == nil:
				errs = append(errs, erdgen.NewUnresolvedReferenceError(t.Name, column, ref.Name, fmt.Sprintf("connector %q names a missing column", conn.Name)))
				continue
			case ref.Column(refColumn) == nil:
				errs = append(errs, erdgen.NewUnresolvedReferenceError(t.Name, column, ref.Name, fmt.Sprintf("connector %q references missing column %s.%s", conn.Name, ref.Name, refColumn)))
				continue
			case t.ForeignKey(column) != nil:
				r.report.Add(diag.Relationship, t.Name, column, "already a foreign key, connector %q ignored", conn.Name)
				continue
			}
			symbol := conn.Name
			if len(conn.Columns) > 1 {
				symbol = fmt.Sprintf("%s_%d", conn.Name, i+1)
			}
			t.ForeignKeys = append(t.ForeignKeys, &schema.ForeignKeyRef{
				Symbol:    symbol,
				Column:    column,
				RefTable:  ref.Name,
				RefColumn: refColumn,
				OnDelete:  conn.OnDelete,
				OnUpdate:  conn.OnUpdate,
			})
		}
	}
	return erdgen.NewAggregateError(errs...)
}

// Candidates reports the "_id" columns of t that have no foreign key.
// Under the inference policy, candidates naming an existing table are
// promoted to foreign keys on its primary key.
func (r *RelationshipResolver) Candidates(t *schema.Table) {
	for _, c := range t.Columns {
		if c.Primary || !strings.HasSuffix(strings.ToLower(c.Name), "_id") || t.ForeignKey(c.Name) != nil {
			continue
		}
		ref := r.guess(naming.TrimID(c.Name))
		switch {
		case ref == nil:
			r.report.Add(diag.Relationship, t.Name, c.Name, "no connector drawn and no matching table, treated as a plain column")
		case !r.infer:
			r.report.Add(diag.Relationship, t.Name, c.Name, "looks like a reference to %s but no connector is drawn, no constraint will be emitted", ref.Name)
		case ref.PrimaryKey() == nil:
			r.report.Add(diag.Relationship, t.Name, c.Name, "cannot infer a foreign key, %s has no primary key", ref.Name)
		default:
			pk := ref.PrimaryKey()
			t.ForeignKeys = append(t.ForeignKeys, &schema.ForeignKeyRef{
				Symbol:    fmt.Sprintf("fk_%s_%s", t.Name, c.Name),
				Column:    c.Name,
				RefTable:  ref.Name,
				RefColumn: pk.Name,
				OnDelete:  schema.Restrict,
				OnUpdate:  schema.Restrict,
				Inferred:  true,
			})
			r.report.Add(diag.InferredForeignKey, t.Name, c.Name, "promoted to a foreign key on %s.%s without a drawn connector", ref.Name, pk.Name)
		}
	}
}

// guess returns the table a "_id" prefix names: its plural, or the prefix
// itself.
func (r *RelationshipResolver) guess(prefix string) *schema.Table {
	if prefix == "" {
		return nil
	}
	if t := r.model.Table(naming.Plural(prefix)); t != nil {
		return t
	}
	return r.model.Table(prefix)
}

// Coerce aligns the type of every foreign-key column of t with the
// referenced column. Types must be resolved on all tables beforehand.
func (r *RelationshipResolver) Coerce(t *schema.Table) {
	for _, fk := range t.ForeignKeys {
		c := t.Column(fk.Column)
		ref := r.model.Table(fk.RefTable).Column(fk.RefColumn)
		if c.Type.Matches(ref.Type) {
			continue
		}
		r.report.Add(diag.ForeignKeyType, t.Name, c.Name, "type %s does not match %s.%s %s, coerced", c.Type, fk.RefTable, ref.Name, ref.Type)
		c.Type = ref.Type
	}
}

// Relations derives the belongs-to and has-many relations of every table
// from the established foreign keys.
func (r *RelationshipResolver) Relations() {
	for _, t := range r.model.Tables {
		t.Relations = nil
	}
	for _, t := range r.model.Tables {
		for _, fk := range t.ForeignKeys {
			ref := r.model.Table(fk.RefTable)
			name := naming.TrimID(fk.Column)
			if name == fk.Column {
				name = naming.Singular(ref.Name)
			}
			t.Relations = append(t.Relations, &schema.Relation{
				Kind:       schema.BelongsTo,
				Name:       relationName(t, name, ref.Name),
				Table:      ref.Name,
				ForeignKey: fk.Column,
			})
			ref.Relations = append(ref.Relations, &schema.Relation{
				Kind:       schema.HasMany,
				Name:       relationName(ref, t.Name, name),
				Table:      t.Name,
				ForeignKey: fk.Column,
			})
		}
	}
}

// relationName returns name, or name suffixed with qualifier when t
// already has a relation or column of that name.
func relationName(t *schema.Table, name, qualifier string) string {
	taken := func(n string) bool {
		if t.Column(n) != nil {
			return true
		}
		for _, rel := range t.Relations {
			if rel.Name == n {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	candidate := name + "_" + qualifier
	for i := 2; taken(candidate); i++ {
		candidate = fmt.Sprintf("%s_%s%d", name, qualifier, i)
	}
	return candidate
}

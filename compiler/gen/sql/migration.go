// Package sql renders the schema-creation files of a diagram. Tables are
// built as atlas schema tables, planned against MySQL without a connection
// and written as goose migrations numbered by their position in the
// dependency order.
package sql

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"text/template"

	atlas "ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"

	"github.com/syssam/erdgen/schema"
)

// Dir is the migrations directory, relative to the output root.
const Dir = "database/migrations"

// Migration is the schema-creation artifact of one table.
type Migration struct {
	Version string // zero padded dependency position, e.g. "0003"
	Name    string // e.g. "create_citas_table"
	Table   string
	Data    []byte
}

// Filename returns the file name of the migration, e.g. "0003_create_citas_table.sql".
func (m *Migration) Filename() string {
	return m.Version + "_" + m.Name + ".sql"
}

// formatter renders goose Up/Down sections. Down statements run in reverse.
var formatter = func() migrate.TemplateFormatter {
	funcs := template.FuncMap{"rev": reverse}
	f, err := migrate.NewTemplateFormatter(
		template.Must(template.New("name").Parse(`{{ .Version }}_{{ .Name }}.sql`)),
		template.Must(template.New("body").Funcs(funcs).Parse(
			"-- Code generated by erdgen. DO NOT EDIT.\n\n"+
				"-- +goose Up\n"+
				"{{ range .Changes }}{{ with .Comment }}-- {{ println . }}{{ end }}{{ printf \"%s;\\n\" .Cmd }}{{ end }}"+
				"\n-- +goose Down\n"+
				"{{ range rev .Changes }}{{ with $stmts := .ReverseStmts }}{{ range $stmts }}{{ printf \"%s;\\n\" . }}{{ end }}{{ end }}{{ end }}",
		)),
	)
	if err != nil {
		panic(err)
	}
	return f
}()

func reverse(changes []*migrate.Change) []*migrate.Change {
	changes = slices.Clone(changes)
	slices.Reverse(changes)
	return changes
}

// Render plans the CREATE TABLE statement of t and formats it as a goose
// migration. position is the 1-based position of t in the dependency order.
func Render(ctx context.Context, m *schema.Model, t *schema.Table, position int) (*Migration, error) {
	if position <= 0 {
		return nil, fmt.Errorf("table %q has no position in the dependency order", t.Name)
	}
	at, err := Table(m, t)
	if err != nil {
		return nil, err
	}
	name := "create_" + t.Name + "_table"
	plan, err := mysql.DefaultPlan.PlanChanges(ctx, name, []atlas.Change{&atlas.AddTable{T: at}}, func(o *migrate.PlanOptions) {
		o.Indent = "  "
	})
	if err != nil {
		return nil, fmt.Errorf("plan table %q: %w", t.Name, err)
	}
	plan.Version = Version(position)
	files, err := formatter.Format(plan)
	if err != nil {
		return nil, fmt.Errorf("format migration %q: %w", t.Name, err)
	}
	return &Migration{
		Version: plan.Version,
		Name:    name,
		Table:   t.Name,
		Data:    files[0].Bytes(),
	}, nil
}

// Table converts t into its atlas definition: the primary key first, the
// fields in declaration order, then the timestamp and soft-delete groups.
func Table(m *schema.Model, t *schema.Table) (*atlas.Table, error) {
	at := atlas.NewTable(t.Name)
	if t.Comment != "" {
		at.SetComment(t.Comment)
	}
	if pk := t.PrimaryKey(); pk != nil {
		c, err := column(pk)
		if err != nil {
			return nil, err
		}
		if pk.AutoIncrement {
			c.AddAttrs(&mysql.AutoIncrement{})
		}
		at.AddColumns(c).SetPrimaryKey(atlas.NewPrimaryKey(c))
	}
	for _, f := range t.Fields() {
		c, err := column(f)
		if err != nil {
			return nil, err
		}
		// SET NULL requires a nullable column.
		if fk := t.ForeignKey(f.Name); fk != nil && (fk.OnDelete == schema.SetNull || fk.OnUpdate == schema.SetNull) {
			c.SetNull(true)
		}
		at.AddColumns(c)
		if f.Unique {
			at.AddIndexes(atlas.NewUniqueIndex(t.Name + "_" + f.Name + "_unique").AddColumns(c))
		}
	}
	if t.HasTimestamps {
		now := &atlas.RawExpr{X: "CURRENT_TIMESTAMP"}
		at.AddColumns(
			atlas.NewTimeColumn(schema.ColumnCreatedAt, mysql.TypeTimestamp).SetNull(true).SetDefault(now),
			atlas.NewTimeColumn(schema.ColumnUpdatedAt, mysql.TypeTimestamp).SetNull(true).SetDefault(now).
				AddAttrs(&mysql.OnUpdate{A: "CURRENT_TIMESTAMP"}),
		)
	}
	if t.HasSoftDelete {
		c := atlas.NewTimeColumn(schema.ColumnDeletedAt, mysql.TypeTimestamp).SetNull(true)
		at.AddColumns(c).AddIndexes(atlas.NewIndex(t.Name + "_deleted_at_index").AddColumns(c))
	}
	for _, idx := range t.Indexes {
		if err := addIndex(at, idx); err != nil {
			return nil, fmt.Errorf("table %q: %w", t.Name, err)
		}
	}
	for _, fk := range t.ForeignKeys {
		c, ok := at.Column(fk.Column)
		if !ok {
			return nil, fmt.Errorf("table %q: foreign key %q names a missing column %q", t.Name, fk.Symbol, fk.Column)
		}
		ref, err := refTable(m, t, fk)
		if err != nil {
			return nil, err
		}
		rc, _ := ref.Column(fk.RefColumn)
		at.AddForeignKeys(
			atlas.NewForeignKey(fk.Symbol).
				AddColumns(c).
				SetRefTable(ref).
				AddRefColumns(rc).
				SetOnUpdate(action(fk.OnUpdate)).
				SetOnDelete(action(fk.OnDelete)),
		)
	}
	return at, nil
}

// refTable returns a stub of the referenced table holding its key column.
func refTable(m *schema.Model, t *schema.Table, fk *schema.ForeignKeyRef) (*atlas.Table, error) {
	ref := m.Table(fk.RefTable)
	if ref == nil || ref.Column(fk.RefColumn) == nil {
		return nil, fmt.Errorf("table %q: foreign key %q references a missing column %s.%s", t.Name, fk.Symbol, fk.RefTable, fk.RefColumn)
	}
	c, err := column(ref.Column(fk.RefColumn))
	if err != nil {
		return nil, err
	}
	return atlas.NewTable(ref.Name).AddColumns(c), nil
}

func addIndex(at *atlas.Table, idx *schema.Index) error {
	var parts []*atlas.Column
	for _, name := range idx.Columns {
		c, ok := at.Column(name)
		if !ok {
			return fmt.Errorf("index %q names a missing column %q", idx.Name, name)
		}
		parts = append(parts, c)
	}
	if len(parts) == 0 {
		return nil
	}
	for _, existing := range at.Indexes {
		if existing.Name == idx.Name {
			return nil
		}
	}
	x := atlas.NewIndex(idx.Name)
	if idx.Unique {
		x = atlas.NewUniqueIndex(idx.Name)
	}
	at.AddIndexes(x.AddColumns(parts...))
	return nil
}

// column converts a resolved column into its atlas definition.
func column(c *schema.Column) (*atlas.Column, error) {
	var (
		ac   *atlas.Column
		spec = c.Type
	)
	switch spec.Kind {
	case schema.KindInteger:
		if spec.Unsigned {
			ac = atlas.NewUintColumn(c.Name, spec.IntType())
		} else {
			ac = atlas.NewIntColumn(c.Name, spec.IntType())
		}
	case schema.KindDecimal:
		ac = atlas.NewDecimalColumn(c.Name, mysql.TypeDecimal,
			atlas.DecimalPrecision(spec.Precision),
			atlas.DecimalScale(spec.Scale),
		)
	case schema.KindString:
		ac = atlas.NewStringColumn(c.Name, mysql.TypeVarchar, atlas.StringSize(spec.Length))
	case schema.KindText:
		typ := spec.SQLType
		if typ == "" {
			typ = mysql.TypeText
		}
		ac = atlas.NewStringColumn(c.Name, typ)
	case schema.KindDate:
		ac = atlas.NewTimeColumn(c.Name, mysql.TypeDate)
	case schema.KindDateTime:
		ac = atlas.NewTimeColumn(c.Name, mysql.TypeDateTime)
	case schema.KindTime:
		ac = atlas.NewTimeColumn(c.Name, mysql.TypeTime)
	case schema.KindBoolean:
		ac = atlas.NewBoolColumn(c.Name, mysql.TypeBool)
	case schema.KindJSON:
		ac = atlas.NewJSONColumn(c.Name, mysql.TypeJSON)
	default:
		return nil, fmt.Errorf("column %q has an unresolved type %s", c.Name, spec)
	}
	ac.SetNull(c.Nullable())
	if x := defaultExpr(c); x != nil {
		ac.SetDefault(x)
	}
	if c.Comment != "" {
		ac.SetComment(quote(c.Comment))
	}
	return ac, nil
}

// defaultExpr converts a declared default into an atlas expression. String
// literals are passed single-quoted, atlas keeps quoted values as written.
func defaultExpr(c *schema.Column) atlas.Expr {
	v := strings.TrimSpace(c.Default)
	switch upper := strings.ToUpper(v); {
	case v == "", upper == "NULL":
		return nil
	case strings.HasPrefix(upper, "CURRENT_TIMESTAMP"), upper == "NOW()":
		return &atlas.RawExpr{X: upper}
	case len(v) >= 2 && (v[0] == '\'' && v[len(v)-1] == '\'' || v[0] == '"' && v[len(v)-1] == '"'):
		return &atlas.Literal{V: quote(v[1 : len(v)-1])}
	case c.Type.Kind == schema.KindBoolean:
		switch upper {
		case "TRUE":
			return &atlas.Literal{V: "1"}
		case "FALSE":
			return &atlas.Literal{V: "0"}
		}
	case c.Type.Kind == schema.KindString, c.Type.Kind == schema.KindText:
		return &atlas.Literal{V: quote(v)}
	}
	return &atlas.Literal{V: v}
}

var quoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote returns s as a single-quoted SQL string.
func quote(s string) string {
	return "'" + quoter.Replace(s) + "'"
}

func action(a schema.Action) atlas.ReferenceOption {
	switch a {
	case schema.Cascade:
		return atlas.Cascade
	case schema.SetNull:
		return atlas.SetNull
	case schema.NoAction:
		return atlas.NoAction
	}
	return atlas.Restrict
}

// Version returns the zero padded version of a dependency position.
func Version(position int) string {
	s := strconv.Itoa(position)
	if len(s) >= 4 {
		return s
	}
	return strings.Repeat("0", 4-len(s)) + s
}

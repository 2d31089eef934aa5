package graph

import (
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/erdgen/compiler/diag"
	"github.com/syssam/erdgen/schema"
)

// declaration is a parsed raw type string such as "DECIMAL(10, 2)" or
// "BIGINT UNSIGNED".
type declaration struct {
	Base     string // upper-cased type name
	Params   []int  // inline numeric parameters
	Unsigned bool
}

// parseDeclaration splits a raw type string into its name, inline
// parameters and modifiers. Non-numeric parameters (ENUM values) are
// dropped.
func parseDeclaration(raw string) declaration {
	var (
		d declaration
		s = strings.ToUpper(strings.TrimSpace(raw))
	)
	if i := strings.IndexByte(s, '('); i >= 0 {
		inner, rest := s[i+1:], ""
		if j := strings.IndexByte(inner, ')'); j >= 0 {
			inner, rest = inner[:j], inner[j+1:]
		}
		for _, p := range strings.Split(inner, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				d.Params = nil
				break
			}
			d.Params = append(d.Params, n)
		}
		s = s[:i] + " " + rest
	}
	fields := strings.Fields(s)
	if len(fields) > 0 {
		d.Base = fields[0]
	}
	d.Unsigned = slices.Contains(fields, "UNSIGNED")
	return d
}

// is reports whether the declared name is one of names.
func (d declaration) is(names ...string) bool {
	return slices.Contains(names, d.Base)
}

// typeInput is the state a rule sees while resolving one column.
type typeInput struct {
	table  *schema.Table
	column *schema.Column
	decl   declaration
	report *diag.Report
}

func (in *typeInput) warn(kind diag.Kind, format string, args ...any) {
	in.report.Add(kind, in.table.Name, in.column.Name, format, args...)
}

// length returns the string length, preferring the inline parameter over
// the separately declared field.
func (in *typeInput) length() (int, bool) {
	field := in.column.Length
	if field < 0 {
		in.warn(diag.TypeInference, "invalid length %d ignored", field)
		field = 0
	}
	if len(in.decl.Params) > 0 {
		inline := in.decl.Params[0]
		if inline <= 0 {
			in.warn(diag.TypeInference, "invalid length %d ignored", inline)
		} else {
			if field > 0 && field != inline {
				in.warn(diag.AmbiguousParameter, "inline length %d disagrees with declared length %d, using %d", inline, field, inline)
			}
			return inline, true
		}
	}
	return field, field > 0
}

// precision returns the decimal precision and scale, preferring inline
// parameters over the separately declared fields.
func (in *typeInput) precision() (p, s int, ok bool) {
	fp, fs := in.column.Precision, in.column.Scale
	if fp <= 0 {
		fp, fs = 0, 0
	}
	hasScale := fp > 0
	if params := in.decl.Params; len(params) > 0 && params[0] > 0 {
		ip, is := params[0], 0
		inlineScale := len(params) > 1
		if inlineScale {
			is = params[1]
		}
		declaredScale := fs != 0 || in.column.ScaleSet
		if fp > 0 && (fp != ip || (inlineScale && declaredScale && fs != is)) {
			in.warn(diag.AmbiguousParameter, "inline precision (%d,%d) disagrees with declared (%d,%d), using the inline value", ip, is, fp, fs)
		}
		p, s, hasScale = ip, is, inlineScale
	} else {
		p, s = fp, fs
	}
	if p <= 0 {
		return 0, 0, false
	}
	if !hasScale {
		s = min(schema.DefaultDecimalScale, p)
		in.warn(diag.TypeInference, "scale missing, using %d", s)
	}
	switch {
	case s < 0:
		in.warn(diag.TypeInference, "invalid scale %d, using 0", s)
		s = 0
	case s > p:
		in.warn(diag.TypeInference, "scale %d exceeds precision %d, using %d", s, p, p)
		s = p
	}
	return p, s, true
}

func (in *typeInput) stringSpec() schema.ColumnTypeSpec {
	n, ok := in.length()
	if !ok {
		n = schema.DefaultStringLength
		in.warn(diag.TypeInference, "%s without length, using %d", in.decl.Base, n)
	}
	return schema.ColumnTypeSpec{Kind: schema.KindString, Length: n}
}

func (in *typeInput) decimalSpec() schema.ColumnTypeSpec {
	p, s, ok := in.precision()
	if !ok {
		p, s = schema.DefaultDecimalPrecision, schema.DefaultDecimalScale
		in.warn(diag.TypeInference, "%s without precision, using (%d,%d)", in.decl.Base, p, s)
	}
	return schema.ColumnTypeSpec{Kind: schema.KindDecimal, Precision: p, Scale: s}
}

func (in *typeInput) intSpec() schema.ColumnTypeSpec {
	sqlType := strings.ToLower(in.decl.Base)
	if sqlType == "integer" {
		sqlType = "int"
	}
	return schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: sqlType, Unsigned: in.decl.Unsigned}
}

func (in *typeInput) boolean() bool {
	if in.decl.is("BOOLEAN", "BOOL") {
		return true
	}
	if !in.decl.is("TINYINT") {
		return false
	}
	if len(in.decl.Params) > 0 {
		return in.decl.Params[0] == 1
	}
	return in.column.Length == 1 || in.column.Precision == 1
}

func kindSpec(k schema.Kind) func(*typeInput) schema.ColumnTypeSpec {
	return func(*typeInput) schema.ColumnTypeSpec {
		return schema.ColumnTypeSpec{Kind: k}
	}
}

// typeRule is one row of the type resolution table.
type typeRule struct {
	name  string
	match func(*typeInput) bool
	apply func(*typeInput) schema.ColumnTypeSpec
}

// integerNames are the declared names of the integer family.
var integerNames = []string{"INT", "INTEGER", "BIGINT", "SMALLINT", "MEDIUMINT", "TINYINT"}

// typeRules is evaluated top to bottom; the first match wins.
var typeRules = []typeRule{
	{
		name: "primary",
		match: func(in *typeInput) bool {
			return in.decl.is("INT", "INTEGER", "BIGINT") && in.column.AutoIncrement && in.table.PrimaryKey() == in.column
		},
		apply: (*typeInput).intSpec,
	},
	{
		name: "auto-increment key",
		match: func(in *typeInput) bool {
			return in.column.AutoIncrement && !in.decl.is(integerNames...)
		},
		apply: func(in *typeInput) schema.ColumnTypeSpec {
			in.warn(diag.TypeInference, "auto-increment column declared as %s, using bigint", in.column.RawType)
			return schema.ColumnTypeSpec{Kind: schema.KindInteger, SQLType: "bigint", Unsigned: in.decl.Unsigned}
		},
	},
	{
		name: "foreign-key candidate",
		match: func(in *typeInput) bool {
			return in.decl.is("INT", "INTEGER", "BIGINT") && strings.HasSuffix(strings.ToLower(in.column.Name), "_id")
		},
		apply: func(in *typeInput) schema.ColumnTypeSpec {
			in.column.FKCandidate = true
			return in.intSpec()
		},
	},
	{
		name:  "varchar",
		match: func(in *typeInput) bool { return in.decl.is("VARCHAR") },
		apply: (*typeInput).stringSpec,
	},
	{
		name:  "text",
		match: func(in *typeInput) bool { return in.decl.is("TEXT") },
		apply: kindSpec(schema.KindText),
	},
	{
		name:  "decimal",
		match: func(in *typeInput) bool { return in.decl.is("DECIMAL", "NUMERIC") },
		apply: (*typeInput).decimalSpec,
	},
	{
		name:  "date",
		match: func(in *typeInput) bool { return in.decl.is("DATE") },
		apply: kindSpec(schema.KindDate),
	},
	{
		name:  "datetime",
		match: func(in *typeInput) bool { return in.decl.is("DATETIME") },
		apply: kindSpec(schema.KindDateTime),
	},
	{
		name:  "time",
		match: func(in *typeInput) bool { return in.decl.is("TIME") },
		apply: kindSpec(schema.KindTime),
	},
	{
		name:  "boolean",
		match: (*typeInput).boolean,
		apply: kindSpec(schema.KindBoolean),
	},
	{
		name:  "json",
		match: func(in *typeInput) bool { return in.decl.is("JSON") },
		apply: kindSpec(schema.KindJSON),
	},
	{
		name:  "integer",
		match: func(in *typeInput) bool { return in.decl.is(integerNames...) },
		apply: (*typeInput).intSpec,
	},
	{
		name:  "char",
		match: func(in *typeInput) bool { return in.decl.is("CHAR") },
		apply: (*typeInput).stringSpec,
	},
	{
		name:  "text variant",
		match: func(in *typeInput) bool { return in.decl.is("TINYTEXT", "MEDIUMTEXT", "LONGTEXT") },
		apply: func(in *typeInput) schema.ColumnTypeSpec {
			return schema.ColumnTypeSpec{Kind: schema.KindText, SQLType: strings.ToLower(in.decl.Base)}
		},
	},
	{
		name:  "timestamp",
		match: func(in *typeInput) bool { return in.decl.is("TIMESTAMP") },
		apply: kindSpec(schema.KindDateTime),
	},
	{
		name:  "approximate",
		match: func(in *typeInput) bool { return in.decl.is("FLOAT", "DOUBLE", "REAL") },
		apply: func(in *typeInput) schema.ColumnTypeSpec {
			spec := in.decimalSpec()
			in.warn(diag.TypeInference, "approximate type %s mapped to %s", in.decl.Base, spec)
			return spec
		},
	},
	{
		name:  "enum",
		match: func(in *typeInput) bool { return in.decl.is("ENUM", "SET") },
		apply: func(*typeInput) schema.ColumnTypeSpec {
			return schema.ColumnTypeSpec{Kind: schema.KindString, Length: schema.DefaultStringLength}
		},
	},
	{
		name:  "fallback",
		match: func(*typeInput) bool { return true },
		apply: func(in *typeInput) schema.ColumnTypeSpec {
			in.warn(diag.TypeInference, "unknown type %q, using string(%d)", in.column.RawType, schema.DefaultStringLength)
			return schema.ColumnTypeSpec{Kind: schema.KindString, Length: schema.DefaultStringLength}
		},
	},
}

// nameHint suggests a type for a character column from its name.
type nameHint struct {
	match   func(name string) bool
	suggest string
}

// nameHints is evaluated top to bottom; the first match wins.
var nameHints = []nameHint{
	{
		match:   func(n string) bool { return n == schema.ColumnID || strings.HasSuffix(n, "_id") },
		suggest: "BIGINT",
	},
	{
		match:   func(n string) bool { return strings.HasPrefix(n, "fecha") && strings.Contains(n, "hora") },
		suggest: "DATETIME",
	},
	{
		match:   func(n string) bool { return strings.HasPrefix(n, "fecha") },
		suggest: "DATE",
	},
	{
		match:   func(n string) bool { return strings.HasPrefix(n, "hora") },
		suggest: "TIME",
	},
	{
		match:   func(n string) bool { return n == "edad" },
		suggest: "INT",
	},
	{
		match:   func(n string) bool { return strings.Contains(n, "precio") || strings.Contains(n, "costo") },
		suggest: "DECIMAL",
	},
}

// hint reports a name hint for VARCHAR and CHAR columns.
func (in *typeInput) hint() {
	if !in.decl.is("VARCHAR", "CHAR") {
		return
	}
	name := strings.ToLower(in.column.Name)
	for _, h := range nameHints {
		if h.match(name) {
			in.warn(diag.NameHint, "%s %s looks like %s", in.decl.Base, in.column.Name, h.suggest)
			return
		}
	}
}

// TypeResolver resolves the declared column types of a table.
type TypeResolver struct {
	report *diag.Report
	rules  []typeRule
}

// NewTypeResolver returns a resolver reporting to r.
func NewTypeResolver(r *diag.Report) *TypeResolver {
	return &TypeResolver{report: r, rules: typeRules}
}

// Resolve sets the Type of every column of t. Primary keys must be known
// beforehand.
func (tr *TypeResolver) Resolve(t *schema.Table) {
	for _, c := range t.Columns {
		c.Type = tr.Column(t, c)
	}
}

// Column resolves a single column of t.
func (tr *TypeResolver) Column(t *schema.Table, c *schema.Column) schema.ColumnTypeSpec {
	in := &typeInput{table: t, column: c, decl: parseDeclaration(c.RawType), report: tr.report}
	for _, r := range tr.rules {
		if r.match(in) {
			spec := r.apply(in)
			if spec.Kind == schema.KindString {
				in.hint()
			}
			return spec
		}
	}
	return schema.ColumnTypeSpec{Kind: schema.KindString, Length: schema.DefaultStringLength}
}

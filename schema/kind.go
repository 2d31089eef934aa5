package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the semantic kind of a resolved column type.
type Kind uint8

// List of column kinds.
const (
	KindInvalid Kind = iota
	KindInteger
	KindDecimal
	KindString
	KindText
	KindDate
	KindDateTime
	KindTime
	KindBoolean
	KindJSON
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindInteger:  "integer",
	KindDecimal:  "decimal",
	KindString:   "string",
	KindText:     "text",
	KindDate:     "date",
	KindDateTime: "datetime",
	KindTime:     "time",
	KindBoolean:  "boolean",
	KindJSON:     "json",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// HasLength reports whether specs of this kind carry a length.
func (k Kind) HasLength() bool { return k == KindString }

// HasPrecision reports whether specs of this kind carry precision and scale.
func (k Kind) HasPrecision() bool { return k == KindDecimal }

// Numeric reports whether the kind holds numbers.
func (k Kind) Numeric() bool { return k == KindInteger || k == KindDecimal }

// Default parameters substituted when a declaration omits them.
const (
	DefaultStringLength     = 255
	DefaultDecimalPrecision = 8
	DefaultDecimalScale     = 2
)

// ColumnTypeSpec is a resolved column type. Exactly one of Length or
// Precision/Scale is populated, matching Kind.
type ColumnTypeSpec struct {
	Kind      Kind   `msgpack:"kind"`
	Length    int    `msgpack:"length,omitempty"`
	Precision int    `msgpack:"precision,omitempty"`
	Scale     int    `msgpack:"scale,omitempty"`
	SQLType   string `msgpack:"sql_type,omitempty"` // int width ("int", "bigint") or text variant ("mediumtext")
	Unsigned  bool   `msgpack:"unsigned,omitempty"`
}

// Validate reports whether the parameters present match the kind.
func (s ColumnTypeSpec) Validate() error {
	switch {
	case s.Kind == KindInvalid:
		return fmt.Errorf("invalid column kind")
	case s.Kind.HasLength() && s.Length <= 0:
		return fmt.Errorf("%s spec requires a positive length", s.Kind)
	case !s.Kind.HasLength() && s.Length != 0:
		return fmt.Errorf("%s spec cannot carry a length", s.Kind)
	case s.Kind.HasPrecision() && (s.Precision <= 0 || s.Scale < 0 || s.Scale > s.Precision):
		return fmt.Errorf("decimal spec requires 0 <= scale <= precision, got (%d, %d)", s.Precision, s.Scale)
	case !s.Kind.HasPrecision() && (s.Precision != 0 || s.Scale != 0):
		return fmt.Errorf("%s spec cannot carry precision or scale", s.Kind)
	}
	return nil
}

// Matches reports whether two specs are structurally identical: same kind,
// parameters, integer width and signedness.
func (s ColumnTypeSpec) Matches(o ColumnTypeSpec) bool {
	return s.Kind == o.Kind &&
		s.Length == o.Length &&
		s.Precision == o.Precision &&
		s.Scale == o.Scale &&
		s.IntType() == o.IntType() &&
		s.Unsigned == o.Unsigned
}

// IntType returns the SQL integer width of an integer spec.
func (s ColumnTypeSpec) IntType() string {
	if s.Kind != KindInteger {
		return ""
	}
	if s.SQLType == "" {
		return "int"
	}
	return s.SQLType
}

// String returns a compact description such as "string(255)" or
// "integer(bigint unsigned)".
func (s ColumnTypeSpec) String() string {
	switch {
	case s.Kind.HasLength():
		return fmt.Sprintf("%s(%d)", s.Kind, s.Length)
	case s.Kind.HasPrecision():
		return fmt.Sprintf("%s(%d,%d)", s.Kind, s.Precision, s.Scale)
	case s.Kind == KindInteger:
		var b strings.Builder
		b.WriteString("integer(")
		b.WriteString(s.IntType())
		if s.Unsigned {
			b.WriteString(" unsigned")
		}
		b.WriteByte(')')
		return b.String()
	}
	return s.Kind.String()
}

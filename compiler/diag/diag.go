// Package diag collects the non-fatal findings of a generation run.
//
// A Report is created by the caller and threaded through every stage
// (loading, type resolution, relationship resolution). Warnings never stop a
// run; they are surfaced together once it ends.
package diag

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Kind classifies a warning.
type Kind string

// Warning kinds.
const (
	// TypeInference reports a substituted default (length, precision, type).
	TypeInference Kind = "type-inference"
	// AmbiguousParameter reports an inline type parameter that disagrees
	// with the separately declared one.
	AmbiguousParameter Kind = "ambiguous-parameter"
	// Relationship reports an "_id" column without a drawn connector.
	Relationship Kind = "relationship"
	// InferredForeignKey reports a foreign key promoted from naming alone.
	InferredForeignKey Kind = "inferred-foreign-key"
	// ForeignKeyType reports a foreign-key column coerced to the referenced type.
	ForeignKeyType Kind = "foreign-key-type"
	// PrimaryKey reports a table with zero or several primary keys.
	PrimaryKey Kind = "primary-key"
	// NameHint reports a character column whose name suggests another type.
	// The declared type is kept.
	NameHint Kind = "name-hint"
)

// Warning is a single finding.
type Warning struct {
	Kind    Kind   `json:"kind"`
	Table   string `json:"table,omitempty"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// String formats the warning as "table.column: message [kind]".
func (w Warning) String() string {
	var b strings.Builder
	if w.Table != "" {
		b.WriteString(w.Table)
		if w.Column != "" {
			b.WriteByte('.')
			b.WriteString(w.Column)
		}
		b.WriteString(": ")
	}
	b.WriteString(w.Message)
	b.WriteString(" [")
	b.WriteString(string(w.Kind))
	b.WriteByte(']')
	return b.String()
}

// Report accumulates warnings. It is safe for concurrent use.
type Report struct {
	mu       sync.Mutex
	warnings []Warning
}

// New returns an empty report.
func New() *Report {
	return &Report{}
}

// Add records a warning.
func (r *Report) Add(kind Kind, table, column, format string, args ...any) {
	w := Warning{Kind: kind, Table: table, Column: column, Message: fmt.Sprintf(format, args...)}
	r.mu.Lock()
	r.warnings = append(r.warnings, w)
	r.mu.Unlock()
}

// Warnings returns a copy of the recorded warnings in insertion order.
func (r *Report) Warnings() []Warning {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.warnings)
}

// Len returns the number of warnings.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.warnings)
}

// Filter returns the warnings of the given kinds.
func (r *Report) Filter(kinds ...Kind) []Warning {
	var out []Warning
	for _, w := range r.Warnings() {
		if slices.Contains(kinds, w.Kind) {
			out = append(out, w)
		}
	}
	return out
}

// For returns the warnings recorded for a table.
func (r *Report) For(table string) []Warning {
	var out []Warning
	for _, w := range r.Warnings() {
		if w.Table == table {
			out = append(out, w)
		}
	}
	return out
}

// Has reports whether a warning of kind was recorded for table.column.
func (r *Report) Has(kind Kind, table, column string) bool {
	for _, w := range r.Warnings() {
		if w.Kind == kind && w.Table == table && w.Column == column {
			return true
		}
	}
	return false
}

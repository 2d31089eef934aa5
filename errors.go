package erdgen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure classes of a generation run.
var (
	// ErrParse is returned when the diagram document is malformed or incomplete.
	ErrParse = errors.New("erdgen: malformed diagram document")

	// ErrCycle is returned when the foreign-key graph has no valid creation order.
	ErrCycle = errors.New("erdgen: dependency cycle")

	// ErrUnresolvedReference is returned when a foreign key cannot be resolved,
	// either statically (missing column) or while seeding (empty parent pool).
	ErrUnresolvedReference = errors.New("erdgen: unresolved reference")

	// ErrEmissionIO is returned when an artifact cannot be written.
	ErrEmissionIO = errors.New("erdgen: emission failed")
)

// ParseError reports a document that cannot be turned into a schema model.
// Parse errors are fatal for the whole run.
type ParseError struct {
	Path    string // Document path, if known
	Table   string // Table being parsed (if applicable)
	Column  string // Column being parsed (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("erdgen: parse error")
	if e.Path != "" {
		b.WriteString(" in ")
		b.WriteString(e.Path)
	}
	if e.Table != "" {
		b.WriteString(" on table ")
		b.WriteString(e.Table)
	}
	if e.Column != "" {
		b.WriteString(" column ")
		b.WriteString(e.Column)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// NewParseError creates a new ParseError.
func NewParseError(table, column, message string, cause error) *ParseError {
	return &ParseError{
		Table:   table,
		Column:  column,
		Message: message,
		Cause:   cause,
	}
}

// IsParseError returns true if the error is a ParseError.
func IsParseError(err error) bool {
	if err == nil {
		return false
	}
	var e *ParseError
	return errors.As(err, &e) || errors.Is(err, ErrParse)
}

// CycleError reports the tables that take part in a foreign-key cycle.
// Tables are listed in declaration order.
type CycleError struct {
	Tables []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("erdgen: dependency cycle between tables %s", strings.Join(e.Tables, ", "))
}

// Is reports whether the target matches ErrCycle.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// NewCycleError creates a new CycleError.
func NewCycleError(tables []string) *CycleError {
	return &CycleError{Tables: tables}
}

// IsCycleError returns true if the error is a CycleError.
func IsCycleError(err error) bool {
	if err == nil {
		return false
	}
	var e *CycleError
	return errors.As(err, &e) || errors.Is(err, ErrCycle)
}

// UnresolvedReferenceError reports a foreign key whose target cannot be
// resolved. It is fatal only for the artifacts of Table.
type UnresolvedReferenceError struct {
	Table      string // Table whose artifacts are affected
	Column     string // Foreign-key column (if applicable)
	Referenced string // Referenced table
	Message    string
}

// Error implements the error interface.
func (e *UnresolvedReferenceError) Error() string {
	var b strings.Builder
	b.WriteString("erdgen: unresolved reference")
	if e.Table != "" {
		b.WriteString(" on table ")
		b.WriteString(e.Table)
	}
	if e.Column != "" {
		b.WriteString(" column ")
		b.WriteString(e.Column)
	}
	if e.Referenced != "" {
		b.WriteString(" -> ")
		b.WriteString(e.Referenced)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches ErrUnresolvedReference.
func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// NewUnresolvedReferenceError creates a new UnresolvedReferenceError.
func NewUnresolvedReferenceError(table, column, referenced, message string) *UnresolvedReferenceError {
	return &UnresolvedReferenceError{
		Table:      table,
		Column:     column,
		Referenced: referenced,
		Message:    message,
	}
}

// IsUnresolvedReference returns true if the error is an UnresolvedReferenceError.
func IsUnresolvedReference(err error) bool {
	if err == nil {
		return false
	}
	var e *UnresolvedReferenceError
	return errors.As(err, &e) || errors.Is(err, ErrUnresolvedReference)
}

// EmissionIOError reports an artifact that could not be written to the
// destination tree.
type EmissionIOError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *EmissionIOError) Error() string {
	return fmt.Sprintf("erdgen: write %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *EmissionIOError) Unwrap() error {
	return e.Err
}

// Is reports whether the target matches ErrEmissionIO.
func (e *EmissionIOError) Is(target error) bool {
	return target == ErrEmissionIO
}

// NewEmissionIOError creates a new EmissionIOError.
func NewEmissionIOError(path string, err error) *EmissionIOError {
	return &EmissionIOError{Path: path, Err: err}
}

// IsEmissionIOError returns true if the error is an EmissionIOError.
func IsEmissionIOError(err error) bool {
	if err == nil {
		return false
	}
	var e *EmissionIOError
	return errors.As(err, &e) || errors.Is(err, ErrEmissionIO)
}

// AggregateError represents multiple errors collected during a run,
// typically one per failed table.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "erdgen: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("erdgen: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors so errors.Is and errors.As see each of them.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// IsFatal reports whether err aborts the whole run rather than a single
// table's artifacts.
func IsFatal(err error) bool {
	return IsParseError(err) || IsCycleError(err) || IsEmissionIOError(err)
}

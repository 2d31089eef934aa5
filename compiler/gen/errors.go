package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors of the generator.
var (
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("erdgen: missing configuration")
	// ErrGenerationFailed indicates an artifact that could not be rendered.
	ErrGenerationFailed = errors.New("erdgen: code generation failed")
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("erdgen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("erdgen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents an artifact that could not be rendered.
// It only affects the artifacts of Table.
type GenerationError struct {
	Artifact Artifact
	Table    string
	File     string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("erdgen: generation error")
	if e.Artifact != "" {
		b.WriteString(" in ")
		b.WriteString(string(e.Artifact))
	}
	if e.Table != "" {
		b.WriteString(" for table ")
		b.WriteString(e.Table)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
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
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(artifact Artifact, table, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Artifact: artifact,
		Table:    table,
		File:     file,
		Message:  message,
		Cause:    cause,
	}
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

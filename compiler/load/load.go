// Package load reads diagram documents into a schema.Model.
//
// Two document formats are supported and selected by file extension:
//
//   - .mwb: a MySQL Workbench model (a zip archive holding document.mwb.xml)
//   - .yaml, .yml: a textual diagram with tables and drawn connectors
//
// Loading is a strict, pure transform: it records what the document
// declares and performs no type or relationship inference. Those are
// enrichment passes of the graph package.
package load

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/syssam/erdgen"
	"github.com/syssam/erdgen/schema"
)

// Format is a diagram document format.
type Format string

// Supported formats.
const (
	FormatWorkbench Format = "mwb"
	FormatYAML      Format = "yaml"
)

// FormatOf returns the document format implied by the path extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mwb":
		return FormatWorkbench, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported document extension %q", ext)
	}
}

// Load reads and parses the diagram document at path.
func Load(path string) (*schema.Model, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, withPath(erdgen.NewParseError("", "", "detect format", err), path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, withPath(erdgen.NewParseError("", "", "read document", err), path)
	}
	m, err := Parse(format, data)
	if err != nil {
		return nil, withPath(err, path)
	}
	return m, nil
}

// Parse parses document bytes of the given format.
func Parse(format Format, data []byte) (*schema.Model, error) {
	var (
		m   *schema.Model
		err error
	)
	switch format {
	case FormatWorkbench:
		m, err = ParseWorkbench(data)
	case FormatYAML:
		m, err = ParseYAML(data)
	default:
		return nil, erdgen.NewParseError("", "", fmt.Sprintf("unknown format %q", format), nil)
	}
	if err != nil {
		return nil, err
	}
	if err := check(m); err != nil {
		return nil, err
	}
	return m, nil
}

// check enforces the mandatory sections of a document.
func check(m *schema.Model) error {
	if len(m.Tables) == 0 {
		return erdgen.NewParseError("", "", "no tables found", nil)
	}
	for _, t := range m.Tables {
		for _, c := range t.Columns {
			if c.Name == "" {
				return erdgen.NewParseError(t.Name, "", "column has no name", nil)
			}
		}
		for _, conn := range t.Connectors {
			if m.Table(conn.RefTable) == nil {
				return erdgen.NewParseError(t.Name, "", fmt.Sprintf("connector %q references unknown table %q", conn.Name, conn.RefTable), nil)
			}
			if len(conn.Columns) == 0 || len(conn.Columns) != len(conn.RefColumns) {
				return erdgen.NewParseError(t.Name, "", fmt.Sprintf("connector %q has %d source and %d referenced columns", conn.Name, len(conn.Columns), len(conn.RefColumns)), nil)
			}
		}
	}
	return nil
}

// attach adds a connector to its dependent table.
func attach(m *schema.Model, conn *schema.Connector) error {
	t := m.Table(conn.Table)
	if t == nil {
		return erdgen.NewParseError(conn.Table, "", fmt.Sprintf("connector %q starts at unknown table", conn.Name), nil)
	}
	if conn.Name == "" {
		conn.Name = fmt.Sprintf("fk_%s_%s", conn.Table, conn.RefTable)
	}
	t.Connectors = append(t.Connectors, conn)
	return nil
}

func withPath(err error, path string) error {
	var pe *erdgen.ParseError
	if errors.As(err, &pe) && pe.Path == "" {
		pe.Path = path
	}
	return err
}

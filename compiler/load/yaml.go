package load

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/syssam/erdgen"
	"github.com/syssam/erdgen/schema"
)

type (
	// Document is the YAML diagram format.
	Document struct {
		Tables     []*Table     `yaml:"tables"`
		Connectors []*Connector `yaml:"connectors"`
	}

	// Table is a YAML table entry.
	Table struct {
		Name    string    `yaml:"name"`
		Comment string    `yaml:"comment,omitempty"`
		Columns []*Column `yaml:"columns"`
		Indexes []*Index  `yaml:"indexes,omitempty"`
	}

	// Column is a YAML column entry. Type holds the declared type string,
	// optionally with inline parameters ("VARCHAR(100)", "INT UNSIGNED").
	Column struct {
		Name          string `yaml:"name"`
		Type          string `yaml:"type"`
		Length        int    `yaml:"length,omitempty"`
		Precision     int    `yaml:"precision,omitempty"`
		Scale         *int   `yaml:"scale,omitempty"`
		NotNull       bool   `yaml:"not_null,omitempty"`
		AutoIncrement bool   `yaml:"auto_increment,omitempty"`
		Primary       bool   `yaml:"primary,omitempty"`
		Unique        bool   `yaml:"unique,omitempty"`
		Default       string `yaml:"default,omitempty"`
		Comment       string `yaml:"comment,omitempty"`
	}

	// Index is a YAML secondary index.
	Index struct {
		Name    string   `yaml:"name"`
		Unique  bool     `yaml:"unique,omitempty"`
		Columns []string `yaml:"columns"`
	}

	// Connector is a YAML relationship connector.
	Connector struct {
		Name     string   `yaml:"name,omitempty"`
		From     Endpoint `yaml:"from"`
		To       Endpoint `yaml:"to"`
		OnDelete string   `yaml:"on_delete,omitempty"`
		OnUpdate string   `yaml:"on_update,omitempty"`
	}

	// Endpoint is one side of a connector.
	Endpoint struct {
		Table   string   `yaml:"table"`
		Columns []string `yaml:"columns"`
	}
)

// ParseYAML parses a YAML diagram document.
func ParseYAML(data []byte) (*schema.Model, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, erdgen.NewParseError("", "", "decode yaml", err)
	}
	m := schema.NewModel()
	for i, yt := range doc.Tables {
		if yt == nil || yt.Name == "" {
			return nil, erdgen.NewParseError("", "", fmt.Sprintf("table #%d has no name", i+1), nil)
		}
		t := &schema.Table{Name: yt.Name, Comment: yt.Comment}
		for _, yc := range yt.Columns {
			if yc == nil {
				return nil, erdgen.NewParseError(t.Name, "", "column has no name", nil)
			}
			t.Columns = append(t.Columns, &schema.Column{
				Name:          yc.Name,
				RawType:       yc.Type,
				Length:        yc.Length,
				Precision:     yc.Precision,
				Scale:         ptrValue(yc.Scale),
				ScaleSet:      yc.Scale != nil,
				NotNull:       yc.NotNull,
				AutoIncrement: yc.AutoIncrement,
				Primary:       yc.Primary,
				Unique:        yc.Unique,
				Default:       yc.Default,
				Comment:       yc.Comment,
			})
		}
		for _, yi := range yt.Indexes {
			t.Indexes = append(t.Indexes, &schema.Index{Name: yi.Name, Unique: yi.Unique, Columns: yi.Columns})
		}
		if err := m.AddTable(t); err != nil {
			return nil, erdgen.NewParseError(t.Name, "", "add table", err)
		}
	}
	for _, yc := range doc.Connectors {
		if yc == nil {
			continue
		}
		if m.Table(yc.To.Table) == nil {
			return nil, erdgen.NewParseError(yc.From.Table, "", fmt.Sprintf("connector %q references unknown table %q", yc.Name, yc.To.Table), nil)
		}
		conn := &schema.Connector{
			Name:       yc.Name,
			Table:      yc.From.Table,
			Columns:    yc.From.Columns,
			RefTable:   yc.To.Table,
			RefColumns: yc.To.Columns,
			OnDelete:   schema.ParseAction(yc.OnDelete),
			OnUpdate:   schema.ParseAction(yc.OnUpdate),
		}
		if len(conn.RefColumns) == 0 && len(conn.Columns) > 0 {
			conn.RefColumns = []string{schema.ColumnID}
		}
		if err := attach(m, conn); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func ptrValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

package load

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/syssam/erdgen"
	"github.com/syssam/erdgen/schema"
)

// workbenchEntry is the archive entry holding the model.
const workbenchEntry = "document.mwb.xml"

// Workbench struct names.
const (
	structTable      = "db.mysql.Table"
	structForeignKey = "db.mysql.ForeignKey"
)

// node is a generic element of the Workbench GRT document. Both <value>
// and <link> elements are kept; links carry an object id as text.
type node struct {
	XMLName    xml.Name
	Type       string  `xml:"type,attr"`
	StructName string  `xml:"struct-name,attr"`
	ID         string  `xml:"id,attr"`
	Key        string  `xml:"key,attr"`
	Text       string  `xml:",chardata"`
	Children   []*node `xml:",any"`
}

// child returns the direct child with the given key, or nil.
func (n *node) child(key string) *node {
	for _, c := range n.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// text returns the trimmed text of the keyed child.
func (n *node) text(key string) string {
	if c := n.child(key); c != nil {
		return strings.TrimSpace(c.Text)
	}
	return ""
}

// num returns the integer value of the keyed child, or 0 when it is absent,
// unset (-1) or not a number.
func (n *node) num(key string) int {
	v, err := strconv.Atoi(n.text(key))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// flag reports whether the keyed child is "1".
func (n *node) flag(key string) bool {
	return n.text(key) == "1"
}

// links returns the ids of all <link> descendants of the keyed child.
func (n *node) links(key string) []string {
	c := n.child(key)
	if c == nil {
		return nil
	}
	var ids []string
	c.walk(func(d *node) {
		if d.XMLName.Local == "link" && strings.TrimSpace(d.Text) != "" {
			ids = append(ids, strings.TrimSpace(d.Text))
		}
	})
	return ids
}

// items returns the element values of the keyed list.
func (n *node) items(key string) []*node {
	c := n.child(key)
	if c == nil {
		return nil
	}
	var out []*node
	for _, d := range c.Children {
		if d.XMLName.Local == "value" {
			out = append(out, d)
		}
	}
	return out
}

// walk visits n and its descendants depth-first.
func (n *node) walk(fn func(*node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// ParseWorkbench parses the bytes of a .mwb archive.
func ParseWorkbench(data []byte) (*schema.Model, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, erdgen.NewParseError("", "", "open workbench archive", err)
	}
	f, err := zr.Open(workbenchEntry)
	if err != nil {
		return nil, erdgen.NewParseError("", "", "missing "+workbenchEntry, err)
	}
	defer f.Close()
	return ParseWorkbenchXML(f)
}

// ParseWorkbenchXML parses an extracted document.mwb.xml.
func ParseWorkbenchXML(r io.Reader) (*schema.Model, error) {
	var root node
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, erdgen.NewParseError("", "", "decode workbench xml", err)
	}
	var tables []*node
	root.walk(func(n *node) {
		// Diagram figures and foreign keys link to tables with the same
		// struct name; only <value> elements define them.
		if n.XMLName.Local == "value" && n.StructName == structTable {
			tables = append(tables, n)
		}
	})

	type colRef struct{ table, column string }
	var (
		m         = schema.NewModel()
		tableIDs  = make(map[string]string, len(tables))
		columnIDs = make(map[string]colRef)
	)
	for _, tn := range tables {
		t := &schema.Table{
			Name:    tn.text("name"),
			Comment: tn.text("comment"),
		}
		if t.Name == "" {
			return nil, erdgen.NewParseError("", "", fmt.Sprintf("table %s has no name", tn.ID), nil)
		}
		for _, cn := range tn.items("columns") {
			c := workbenchColumn(cn)
			columnIDs[cn.ID] = colRef{table: t.Name, column: c.Name}
			t.Columns = append(t.Columns, c)
		}
		if err := m.AddTable(t); err != nil {
			return nil, erdgen.NewParseError(t.Name, "", "add table", err)
		}
		tableIDs[tn.ID] = t.Name
	}

	resolveColumn := func(id string) string {
		if ref, ok := columnIDs[id]; ok {
			return ref.column
		}
		return id
	}
	for _, tn := range tables {
		t := m.Table(tableIDs[tn.ID])
		primary := tn.text("primaryKey")
		for _, in := range tn.items("indices") {
			var cols []string
			for _, ic := range in.items("columns") {
				if id := ic.text("referencedColumn"); id != "" {
					cols = append(cols, resolveColumn(id))
				}
			}
			isPrimary := in.flag("isPrimary") || (primary != "" && in.ID == primary) || strings.EqualFold(in.text("indexType"), "PRIMARY")
			switch {
			case isPrimary:
				for _, name := range cols {
					if c := t.Column(name); c != nil {
						c.Primary = true
					}
				}
			default:
				unique := in.flag("unique") || strings.EqualFold(in.text("indexType"), "UNIQUE")
				if unique && len(cols) == 1 {
					if c := t.Column(cols[0]); c != nil {
						c.Unique = true
					}
				}
				t.Indexes = append(t.Indexes, &schema.Index{Name: in.text("name"), Unique: unique, Columns: cols})
			}
		}
		for _, fn := range tn.items("foreignKeys") {
			if fn.StructName != "" && fn.StructName != structForeignKey {
				continue
			}
			owner := t.Name
			if id := fn.text("owner"); id != "" {
				name, ok := tableIDs[id]
				if !ok {
					return nil, erdgen.NewParseError(t.Name, "", fmt.Sprintf("foreign key %q has unknown owner %s", fn.text("name"), id), nil)
				}
				owner = name
			}
			refID := fn.text("referencedTable")
			refTable, ok := tableIDs[refID]
			if !ok {
				return nil, erdgen.NewParseError(owner, "", fmt.Sprintf("connector %q references unknown table %s", fn.text("name"), refID), nil)
			}
			conn := &schema.Connector{
				Name:     fn.text("name"),
				Table:    owner,
				RefTable: refTable,
				OnDelete: schema.ParseAction(fn.text("deleteRule")),
				OnUpdate: schema.ParseAction(fn.text("updateRule")),
			}
			for _, id := range fn.links("columns") {
				conn.Columns = append(conn.Columns, resolveColumn(id))
			}
			for _, id := range fn.links("referencedColumns") {
				conn.RefColumns = append(conn.RefColumns, resolveColumn(id))
			}
			if err := attach(m, conn); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// workbenchColumn converts a db.mysql.Column element.
func workbenchColumn(cn *node) *schema.Column {
	typ := cn.text("simpleType")
	if typ == "" {
		typ = cn.text("userType")
	}
	if i := strings.LastIndexByte(typ, '.'); i >= 0 {
		typ = typ[i+1:]
	}
	typ = strings.ToUpper(typ)
	if params := cn.text("datatypeExplicitParams"); params != "" && !strings.Contains(typ, "(") {
		typ += params
	}
	for _, f := range cn.items("flags") {
		if flag := strings.ToUpper(strings.TrimSpace(f.Text)); flag == "UNSIGNED" {
			typ += " UNSIGNED"
		}
	}
	return &schema.Column{
		Name:          cn.text("name"),
		RawType:       typ,
		Length:        cn.num("length"),
		Precision:     cn.num("precision"),
		Scale:         cn.num("scale"),
		ScaleSet:      cn.num("scale") > 0 || cn.text("scale") == "0",
		NotNull:       cn.flag("isNotNull"),
		AutoIncrement: cn.flag("autoIncrement"),
		Default:       cn.text("defaultValue"),
		Comment:       cn.text("comment"),
	}
}

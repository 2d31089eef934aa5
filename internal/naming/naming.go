// Package naming converts diagram table and column names into the
// identifiers used by the generated code.
package naming

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var rules = ruleset()

// ruleset extends the English inflections with the Spanish plural forms
// commonly found in diagram table names.
func ruleset() *inflect.Ruleset {
	rs := inflect.NewDefaultRuleset()
	for singular, plural := range map[string]string{
		"cliente":  "clientes",
		"medico":   "medicos",
		"servicio": "servicios",
		"horario":  "horarios",
		"rol":      "roles",
		"user":     "users",
	} {
		rs.AddIrregular(singular, plural)
	}
	rs.AddSingular("dades", "dad")
	rs.AddPlural("dad", "dades")
	rs.AddSingular("ciones", "cion")
	rs.AddPlural("cion", "ciones")
	rs.AddUncountable("estatus")
	return rs
}

// acronyms are rendered fully upper-cased in Go identifiers.
var acronyms = map[string]string{
	"id":   "ID",
	"ids":  "IDs",
	"url":  "URL",
	"api":  "API",
	"ip":   "IP",
	"json": "JSON",
	"uuid": "UUID",
	"http": "HTTP",
	"sql":  "SQL",
}

// Singular returns the singular form of a (table) name.
func Singular(s string) string {
	return rules.Singularize(s)
}

// Plural returns the plural form of a name.
func Plural(s string) string {
	return rules.Pluralize(s)
}

// Pascal converts a snake, kebab or spaced name into an exported Go
// identifier. For example, "medico_id" becomes "MedicoID".
func Pascal(s string) string {
	words := split(s)
	if len(words) == 0 {
		return ""
	}
	// cases.Caser keeps state between calls.
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		if a, ok := acronyms[strings.ToLower(w)]; ok {
			b.WriteString(a)
			continue
		}
		b.WriteString(title.String(strings.ToLower(w)))
	}
	ident := b.String()
	if r := []rune(ident); len(r) > 0 && unicode.IsDigit(r[0]) {
		ident = "T" + ident
	}
	return ident
}

// Camel converts a name into an unexported Go identifier.
func Camel(s string) string {
	p := Pascal(s)
	if p == "" {
		return ""
	}
	words := split(s)
	if a, ok := acronyms[strings.ToLower(words[0])]; ok && strings.HasPrefix(p, a) {
		return strings.ToLower(a) + p[len(a):]
	}
	r := []rune(p)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// Snake converts a Go identifier or spaced name into snake_case.
func Snake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || i+1 < len(runes) && unicode.IsLower(runes[i+1])) && runes[i-1] != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Kebab converts a name into kebab-case, as used in route paths.
func Kebab(s string) string {
	return strings.ReplaceAll(Snake(s), "_", "-")
}

// TrimID strips the "_id" suffix of a foreign-key column name.
func TrimID(column string) string {
	if len(column) > 3 && strings.EqualFold(column[len(column)-3:], "_id") {
		return column[:len(column)-3]
	}
	return column
}

func split(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
}

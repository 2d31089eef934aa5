package gen

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/erdgen/internal/naming"
	"github.com/syssam/erdgen/schema"
	"github.com/syssam/erdgen/seed"
)

// SeederFunc returns the name of the generated seeder function of a table,
// e.g. "SeedCitas".
func SeederFunc(table string) string {
	return "Seed" + naming.Pascal(table)
}

// genSeeder renders the seeder of a table. Referenced identifiers are read
// from the database when the seeder runs, so the runner must invoke seeders
// in dependency order.
func (g *Generator) genSeeder(e *Entity) *jen.File {
	f := g.newFile("seeders")
	models := g.pkg(ModelsDir)
	rows := g.config.SeedRows
	plan := seed.Plan(e.Table)

	f.Commentf("%s inserts %d rows into %s.", SeederFunc(e.Table.Name), rows, e.Table.Name)
	f.Func().Id(SeederFunc(e.Table.Name)).Params(jen.Id("db").Op("*").Qual(pkgGorm, "DB")).Error().BlockFunc(func(group *jen.Group) {
		group.Id("faker").Op(":=").Qual(pkgGofakeit, "New").Call(jen.Lit(0))
		pools := make(map[string]string)
		for _, fk := range seed.References(e.Table, plan) {
			fd := e.Field(fk.Column)
			if fd == nil {
				continue
			}
			pool := naming.Camel(fk.Column) + "s"
			pools[fk.Column] = pool
			group.Var().Id(pool).Index().Add(fd.BaseType())
			group.If(
				jen.Err().Op(":=").Id("db").Dot("Model").Call(jen.Op("&").Qual(models, TypeName(fk.RefTable)).Values()).
					Dot("Pluck").Call(jen.Lit(fk.RefColumn), jen.Op("&").Id(pool)).Dot("Error"),
				jen.Err().Op("!=").Nil(),
			).Block(jen.Return(jen.Err()))
			group.If(jen.Len(jen.Id(pool)).Op("==").Lit(0)).Block(
				jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(fmt.Sprintf("seed %s: %s has no rows to reference", e.Table.Name, fk.RefTable)))),
			)
		}
		group.Id("rows").Op(":=").Make(jen.Index().Qual(models, e.Name), jen.Lit(0), jen.Lit(rows))
		group.For(jen.Id("i").Op(":=").Lit(0), jen.Id("i").Op("<").Lit(rows), jen.Id("i").Op("++")).BlockFunc(func(loop *jen.Group) {
			loop.Id("rows").Op("=").Append(jen.Id("rows"), jen.Qual(models, e.Name).Values(jen.DictFunc(func(d jen.Dict) {
				for _, st := range plan {
					fd := e.Field(st.Column.Name)
					if fd == nil {
						continue
					}
					v := seedValue(st, fd, pools[st.Column.Name], st.Self(e.Table))
					if v == nil {
						continue
					}
					if fd.Nillable() {
						v = jen.Id("ptr").Call(v)
					}
					d[jen.Id(fd.Name)] = v
				}
			})))
		})
		group.Return(jen.Id("db").Dot("Create").Call(jen.Op("&").Id("rows")).Dot("Error"))
	})
	return f
}

// seedValue returns the expression producing a value of strategy st, or nil
// to leave the field at its zero value.
func seedValue(st seed.Strategy, fd *Field, pool string, self bool) *jen.Statement {
	faker := func(method string, args ...jen.Code) *jen.Statement {
		return jen.Id("faker").Dot(method).Call(args...)
	}
	length := jen.Lit(fd.Column.Type.Length)
	text := func(v *jen.Statement) *jen.Statement {
		if fd.Column.Type.Kind != schema.KindString {
			return v
		}
		return jen.Id("fit").Call(v, length)
	}
	// Unique text columns get the row number as a prefix.
	unique := func(v *jen.Statement) *jen.Statement {
		if fd.Unique || fd.Primary {
			v = jen.Qual("fmt", "Sprintf").Call(jen.Lit("%d %s"), jen.Id("i").Op("+").Lit(1), v)
		}
		return text(v)
	}
	switch st.Tag {
	case seed.FirstName:
		return unique(faker("FirstName"))
	case seed.LastName:
		return unique(faker("LastName"))
	case seed.Email:
		return text(jen.Qual("fmt", "Sprintf").Call(jen.Lit("%d.%s"), jen.Id("i").Op("+").Lit(1), faker("Email")))
	case seed.Phone:
		return unique(faker("Phone"))
	case seed.JobTitle:
		return unique(faker("JobTitle"))
	case seed.Address:
		return unique(faker("Street"))
	case seed.Sentence:
		return unique(faker("Sentence", jen.Lit(8)))
	case seed.Words:
		if fd.Unique || fd.Primary {
			return unique(jen.Id("words").Call(jen.Id("faker"), jen.Lit(0)))
		}
		return jen.Id("words").Call(jen.Id("faker"), length)
	case seed.Text:
		return faker("Paragraph", jen.Lit(1), jen.Lit(3), jen.Lit(12), jen.Lit(" "))
	case seed.Decimal:
		if fd.Column.Type.Kind == schema.KindInteger {
			return fd.BaseType().Call(faker("IntRange", jen.Lit(seed.DecimalMinInt), jen.Lit(seed.DecimalMaxInt)))
		}
		return faker("Price", jen.Lit(seed.DecimalMin), jen.Lit(seed.DecimalMax))
	case seed.Date:
		if fd.Column.Type.Kind == schema.KindString {
			return faker("PastDate").Dot("Format").Call(jen.Lit(seed.DateLayout))
		}
		return faker("PastDate")
	case seed.Time:
		return faker("Date").Dot("Format").Call(jen.Lit(seed.TimeLayout))
	case seed.DateTime:
		return faker("PastDate")
	case seed.Integer:
		if fd.Unique || fd.Primary {
			return fd.BaseType().Call(jen.Id("i").Op("+").Lit(1))
		}
		max := 100000
		switch fd.Column.Type.IntType() {
		case "tinyint":
			max = 127
		case "smallint":
			max = 32767
		}
		return fd.BaseType().Call(faker("IntRange", jen.Lit(1), jen.Lit(max)))
	case seed.Boolean:
		return faker("Bool")
	case seed.JSON:
		return jen.Id("object").Call(jen.Id("faker"))
	case seed.ForeignKey:
		// Rows of the same table are inserted together; self references stay unset.
		if self || pool == "" {
			return nil
		}
		return jen.Id(pool).Index(jen.Id("faker").Dot("IntN").Call(jen.Len(jen.Id(pool))))
	}
	return nil
}

// genDatabaseSeeder renders the runner invoking the seeders of entities in
// dependency order, and the helpers the seeders share.
func (g *Generator) genDatabaseSeeder(entities []*Entity) *jen.File {
	f := g.newFile("seeders")
	var excluded []string
	for _, t := range g.graph.Order {
		if g.graph.Excluded(t.Name) {
			excluded = append(excluded, t.Name)
		}
	}

	f.Comment("Run seeds every generated table in dependency order.")
	if len(excluded) > 0 {
		f.Commentf("The rows of %v are seeded by hand and must exist before Run.", excluded)
	}
	f.Func().Id("Run").Params(jen.Id("db").Op("*").Qual(pkgGorm, "DB")).Error().Block(
		jen.Id("seeders").Op(":=").Index().Struct(
			jen.Id("table").String(),
			jen.Id("seed").Func().Params(jen.Op("*").Qual(pkgGorm, "DB")).Error(),
		).ValuesFunc(func(group *jen.Group) {
			for _, e := range entities {
				if g.graph.Excluded(e.Table.Name) {
					continue
				}
				group.Values(jen.Lit(e.Table.Name), jen.Id(SeederFunc(e.Table.Name)))
			}
		}),
		jen.For(jen.List(jen.Id("_"), jen.Id("s")).Op(":=").Range().Id("seeders")).Block(
			jen.If(jen.Err().Op(":=").Id("s").Dot("seed").Call(jen.Id("db")), jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit("seed %s: %w"), jen.Id("s").Dot("table"), jen.Err())),
			),
		),
		jen.Return(jen.Nil()),
	)

	f.Func().Id("ptr").Types(jen.Id("T").Any()).Params(jen.Id("v").Id("T")).Op("*").Id("T").Block(
		jen.Return(jen.Op("&").Id("v")),
	)

	f.Comment("fit truncates s to at most n characters. A non-positive n keeps s.")
	f.Func().Id("fit").Params(jen.Id("s").String(), jen.Id("n").Int()).String().Block(
		jen.Id("r").Op(":=").Index().Rune().Call(jen.Id("s")),
		jen.If(jen.Id("n").Op(">").Lit(0).Op("&&").Len(jen.Id("r")).Op(">").Id("n")).Block(
			jen.Return(jen.String().Call(jen.Id("r").Index(jen.Empty(), jen.Id("n")))),
		),
		jen.Return(jen.Id("s")),
	)

	f.Commentf("words returns %d to %d words fitted to n characters.", seed.MinWords, seed.MaxWords)
	f.Func().Id("words").Params(jen.Id("faker").Op("*").Qual(pkgGofakeit, "Faker"), jen.Id("n").Int()).String().Block(
		jen.Id("ws").Op(":=").Make(jen.Index().String(), jen.Id("faker").Dot("IntRange").Call(jen.Lit(seed.MinWords), jen.Lit(seed.MaxWords))),
		jen.For(jen.Id("i").Op(":=").Range().Id("ws")).Block(
			jen.Id("ws").Index(jen.Id("i")).Op("=").Id("faker").Dot("Word").Call(),
		),
		jen.Return(jen.Id("fit").Call(jen.Qual("strings", "Join").Call(jen.Id("ws"), jen.Lit(" ")), jen.Id("n"))),
	)

	f.Comment("object returns a small JSON object.")
	f.Func().Id("object").Params(jen.Id("faker").Op("*").Qual(pkgGofakeit, "Faker")).Qual("encoding/json", "RawMessage").Block(
		jen.List(jen.Id("b"), jen.Id("_")).Op(":=").Qual("encoding/json", "Marshal").Call(
			jen.Map(jen.String()).String().Values(jen.Dict{
				jen.Lit("clave"): jen.Id("faker").Dot("Word").Call(),
				jen.Lit("valor"): jen.Id("faker").Dot("Word").Call(),
			}),
		),
		jen.Return(jen.Id("b")),
	)
	return f
}

package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/erdgen/schema"
)

// genHandler renders the gin CRUD handler of a table: list, create, read,
// update and delete, plus the bound input type with its validation rules.
func (g *Generator) genHandler(e *Entity) *jen.File {
	f := g.newFile("handlers")
	models := g.pkg(ModelsDir)
	handler := e.Name + "Handler"
	input := e.Name + "Input"
	recv := jen.Id("h").Op("*").Id(handler)
	ctx := jen.Id("c").Op("*").Qual(pkgGin, "Context")
	model := func() *jen.Statement { return jen.Qual(models, e.Name) }

	f.Commentf("%s serves the %q resource.", handler, e.Table.Name)
	f.Type().Id(handler).Struct(
		jen.Id("DB").Op("*").Qual(pkgGorm, "DB"),
	)

	f.Commentf("New%s returns a handler backed by db.", handler)
	f.Func().Id("New"+handler).Params(jen.Id("db").Op("*").Qual(pkgGorm, "DB")).Op("*").Id(handler).Block(
		jen.Return(jen.Op("&").Id(handler).Values(jen.Dict{jen.Id("DB"): jen.Id("db")})),
	)

	f.Commentf("%s is the request body of create and update.", input)
	f.Type().Id(input).StructFunc(func(group *jen.Group) {
		for _, fd := range e.Fields {
			group.Id(fd.Name).Op("*").Add(inputType(fd)).Tag(map[string]string{
				"json":    fd.Column.Name,
				"binding": binding(fd),
			})
		}
	})

	f.Comment("apply copies the fields present in the request onto m.")
	f.Func().Params(jen.Id("in").Op("*").Id(input)).Id("apply").Params(jen.Id("m").Op("*").Add(model())).Error().BlockFunc(func(group *jen.Group) {
		for _, fd := range e.Fields {
			group.If(jen.Id("in").Dot(fd.Name).Op("!=").Nil()).BlockFunc(func(b *jen.Group) {
				src := jen.Op("*").Id("in").Dot(fd.Name)
				if fd.Column.Type.Kind == schema.KindDate {
					b.List(jen.Id("v"), jen.Err()).Op(":=").Qual("time", "Parse").Call(jen.Lit("2006-01-02"), src)
					b.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err()))
					src = jen.Id("v")
				}
				if fd.Nillable() {
					if fd.Column.Type.Kind == schema.KindDate {
						b.Id("m").Dot(fd.Name).Op("=").Op("&").Id("v")
					} else {
						b.Id("m").Dot(fd.Name).Op("=").Id("in").Dot(fd.Name)
					}
					return
				}
				b.Id("m").Dot(fd.Name).Op("=").Add(src)
			})
		}
		group.Return(jen.Nil())
	})

	f.Comment("references returns the first foreign-key column whose referenced row does not exist.")
	f.Func().Params(jen.Id("in").Op("*").Id(input)).Id("references").Params(jen.Id("db").Op("*").Qual(pkgGorm, "DB")).Params(jen.String(), jen.Error()).BlockFunc(func(group *jen.Group) {
		for _, fd := range e.Fields {
			if fd.FK == nil {
				continue
			}
			group.If(jen.Id("in").Dot(fd.Name).Op("!=").Nil()).Block(
				jen.Var().Id("n").Int64(),
				jen.If(
					jen.Err().Op(":=").Id("db").Dot("Model").Call(jen.Op("&").Qual(models, TypeName(fd.FK.RefTable)).Values()).
						Dot("Where").Call(jen.Lit(fd.FK.RefColumn+" = ?"), jen.Op("*").Id("in").Dot(fd.Name)).
						Dot("Count").Call(jen.Op("&").Id("n")).Dot("Error"),
					jen.Err().Op("!=").Nil(),
				).Block(jen.Return(jen.Lit(""), jen.Err())),
				jen.If(jen.Id("n").Op("==").Lit(0)).Block(jen.Return(jen.Lit(fd.Column.Name), jen.Nil())),
			)
		}
		group.Return(jen.Lit(""), jen.Nil())
	})

	f.Comment("bind decodes and validates the request body. It writes the error response and returns false on failure.")
	f.Func().Params(recv.Clone()).Id("bind").Params(ctx.Clone(), jen.Id("m").Op("*").Add(model())).Bool().Block(
		jen.Var().Id("in").Id(input),
		jen.If(jen.Err().Op(":=").Id("c").Dot("ShouldBindJSON").Call(jen.Op("&").Id("in")), jen.Err().Op("!=").Nil()).Block(
			jen.Id("abort").Call(jen.Id("c"), jen.Qual("net/http", "StatusUnprocessableEntity"), jen.Err()),
			jen.Return(jen.False()),
		),
		jen.List(jen.Id("column"), jen.Err()).Op(":=").Id("in").Dot("references").Call(jen.Id("h").Dot("DB")),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Id("abort").Call(jen.Id("c"), jen.Qual("net/http", "StatusInternalServerError"), jen.Err()),
			jen.Return(jen.False()),
		),
		jen.If(jen.Id("column").Op("!=").Lit("")).Block(
			jen.Id("abort").Call(jen.Id("c"), jen.Qual("net/http", "StatusUnprocessableEntity"),
				jen.Qual("fmt", "Errorf").Call(jen.Lit("%s does not reference an existing row"), jen.Id("column"))),
			jen.Return(jen.False()),
		),
		jen.If(jen.Err().Op(":=").Id("in").Dot("apply").Call(jen.Id("m")), jen.Err().Op("!=").Nil()).Block(
			jen.Id("abort").Call(jen.Id("c"), jen.Qual("net/http", "StatusUnprocessableEntity"), jen.Err()),
			jen.Return(jen.False()),
		),
		jen.Return(jen.True()),
	)

	f.Commentf("List returns every %s with its relations.", e.Name)
	f.Func().Params(recv.Clone()).Id("List").Params(ctx.Clone()).Block(
		jen.Var().Id("rows").Index().Add(model()),
		jen.If(
			jen.Err().Op(":=").Id("h").Dot("DB").Dot("Scopes").Call(jen.Qual(models, "Preload"+e.Name)).Dot("Find").Call(jen.Op("&").Id("rows")).Dot("Error"),
			jen.Err().Op("!=").Nil(),
		).Block(
			jen.Id("abort").Call(jen.Id("c"), jen.Qual("net/http", "StatusInternalServerError"), jen.Err()),
			jen.Return(),
		),
		jen.Id("c").Dot("JSON").Call(jen.Qual("net/http", "StatusOK"), jen.Id("rows")),
	)

	f.Commentf("Create validates the request body and inserts a %s.", e.Name)
	f.Func().Params(recv.Clone()).Id("Create").Params(ctx.Clone()).Block(
		jen.Var().Id("row").Add(model()),
		jen.If(jen.Op("!").Id("h").Dot("bind").Call(jen.Id("c"), jen.Op("&").Id("row"))).Block(jen.Return()),
		jen.If(jen.Err().Op(":=").Id("h").Dot("DB").Dot("Create").Call(jen.Op("&").Id("row")).Dot("Error"), jen.Err().Op("!=").Nil()).Block(
			jen.Id("abort").Call(jen.Id("c"), jen.Qual("net/http", "StatusInternalServerError"), jen.Err()),
			jen.Return(),
		),
		jen.Id("c").Dot("JSON").Call(jen.Qual("net/http", "StatusCreated"), jen.Id("row")),
	)

	if !e.HasKey() {
		return f
	}
	where := jen.Lit(e.ID.Column.Name + " = ?")

	f.Comment("find loads the row addressed by the id parameter. It writes the error response and returns false on failure.")
	f.Func().Params(recv.Clone()).Id("find").Params(ctx.Clone(), jen.Id("row").Op("*").Add(model())).Bool().Block(
		jen.Err().Op(":=").Id("h").Dot("DB").Dot("Scopes").Call(jen.Qual(models, "Preload"+e.Name)).
			Dot("Where").Call(where.Clone(), jen.Id("c").Dot("Param").Call(jen.Lit("id"))).
			Dot("First").Call(jen.Id("row")).Dot("Error"),
		jen.Switch().Block(
			jen.Case(jen.Qual("errors", "Is").Call(jen.Err(), jen.Qual(pkgGorm, "ErrRecordNotFound"))).Block(
				jen.Id("abort").Call(jen.Id("c"), jen.Qual("net/http", "StatusNotFound"), jen.Err()),
				jen.Return(jen.False()),
			),
			jen.Case(jen.Err().Op("!=").Nil()).Block(
				jen.Id("abort").Call(jen.Id("c"), jen.Qual("net/http", "StatusInternalServerError"), jen.Err()),
				jen.Return(jen.False()),
			),
		),
		jen.Return(jen.True()),
	)

	f.Commentf("Read returns one %s with its relations.", e.Name)
	f.Func().Params(recv.Clone()).Id("Read").Params(ctx.Clone()).Block(
		jen.Var().Id("row").Add(model()),
		jen.If(jen.Id("h").Dot("find").Call(jen.Id("c"), jen.Op("&").Id("row"))).Block(
			jen.Id("c").Dot("JSON").Call(jen.Qual("net/http", "StatusOK"), jen.Id("row")),
		),
	)

	f.Commentf("Update validates the request body and saves the %s.", e.Name)
	f.Func().Params(recv.Clone()).Id("Update").Params(ctx.Clone()).Block(
		jen.Var().Id("row").Add(model()),
		jen.If(jen.Op("!").Id("h").Dot("find").Call(jen.Id("c"), jen.Op("&").Id("row")).Op("||").Op("!").Id("h").Dot("bind").Call(jen.Id("c"), jen.Op("&").Id("row"))).Block(
			jen.Return(),
		),
		jen.If(jen.Err().Op(":=").Id("h").Dot("DB").Dot("Omit").Call(jen.Qual(pkgGorm+"/clause", "Associations")).Dot("Save").Call(jen.Op("&").Id("row")).Dot("Error"), jen.Err().Op("!=").Nil()).Block(
			jen.Id("abort").Call(jen.Id("c"), jen.Qual("net/http", "StatusInternalServerError"), jen.Err()),
			jen.Return(),
		),
		jen.Id("c").Dot("JSON").Call(jen.Qual("net/http", "StatusOK"), jen.Id("row")),
	)

	f.Commentf("Delete removes the %s.", e.Name)
	f.Func().Params(recv.Clone()).Id("Delete").Params(ctx.Clone()).Block(
		jen.Id("res").Op(":=").Id("h").Dot("DB").Dot("Where").Call(where.Clone(), jen.Id("c").Dot("Param").Call(jen.Lit("id"))).
			Dot("Delete").Call(jen.Op("&").Add(model()).Values()),
		jen.Switch().Block(
			jen.Case(jen.Id("res").Dot("Error").Op("!=").Nil()).Block(
				jen.Id("abort").Call(jen.Id("c"), jen.Qual("net/http", "StatusInternalServerError"), jen.Id("res").Dot("Error")),
			),
			jen.Case(jen.Id("res").Dot("RowsAffected").Op("==").Lit(0)).Block(
				jen.Id("abort").Call(jen.Id("c"), jen.Qual("net/http", "StatusNotFound"), jen.Qual(pkgGorm, "ErrRecordNotFound")),
			),
			jen.Default().Block(
				jen.Id("c").Dot("Status").Call(jen.Qual("net/http", "StatusNoContent")),
			),
		),
	)
	return f
}

// genHandlers renders the helpers shared by every handler.
func (g *Generator) genHandlers() *jen.File {
	f := g.newFile("handlers")
	f.Comment("abort writes an error response and stops the handler chain.")
	f.Func().Id("abort").Params(
		jen.Id("c").Op("*").Qual(pkgGin, "Context"),
		jen.Id("status").Int(),
		jen.Err().Error(),
	).Block(
		jen.Id("c").Dot("AbortWithStatusJSON").Call(jen.Id("status"), jen.Qual(pkgGin, "H").Values(jen.Dict{
			jen.Lit("error"): jen.Err().Dot("Error").Call(),
		})),
	)
	return f
}

// inputType returns the Go type of an input field. Dates are bound as
// strings and parsed by apply.
func inputType(f *Field) jen.Code {
	if f.Column.Type.Kind == schema.KindDate {
		return jen.String()
	}
	return f.BaseType()
}

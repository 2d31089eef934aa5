package gen

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/erdgen/internal/naming"
)

// genRoutes renders the route registration of every table. Each table gets
// its own block and blocks do not depend on each other.
func (g *Generator) genRoutes(entities []*Entity) *jen.File {
	f := g.newFile("routes")
	handlers := g.pkg(HandlersDir)

	f.Comment("Register mounts the resource routes of every table on r.")
	f.Func().Id("Register").Params(
		jen.Id("r").Qual(pkgGin, "IRouter"),
		jen.Id("db").Op("*").Qual(pkgGorm, "DB"),
	).BlockFunc(func(group *jen.Group) {
		for _, e := range entities {
			group.Comment(e.Table.Name)
			group.BlockFunc(func(b *jen.Group) {
				b.Id("h").Op(":=").Qual(handlers, "New"+e.Name+"Handler").Call(jen.Id("db"))
				b.Id("g").Op(":=").Id("r").Dot("Group").Call(jen.Lit(RoutePath(e.Table.Name)))
				b.Id("g").Dot("GET").Call(jen.Lit(""), jen.Id("h").Dot("List"))
				b.Id("g").Dot("POST").Call(jen.Lit(""), jen.Id("h").Dot("Create"))
				if e.HasKey() {
					b.Id("g").Dot("GET").Call(jen.Lit("/:id"), jen.Id("h").Dot("Read"))
					b.Id("g").Dot("PUT").Call(jen.Lit("/:id"), jen.Id("h").Dot("Update"))
					b.Id("g").Dot("DELETE").Call(jen.Lit("/:id"), jen.Id("h").Dot("Delete"))
				}
			})
		}
	})
	return f
}

// RoutePath returns the resource path of a table, e.g. "/historias-clinicas".
func RoutePath(table string) string {
	return "/" + naming.Kebab(table)
}

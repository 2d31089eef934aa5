package gen

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/erdgen/schema"
)

// genModel renders the gorm model of a table: the struct with one field per
// column and one accessor per relation, the fillable allow-list, the cast map
// and the eager-loading scope.
func (g *Generator) genModel(e *Entity) *jen.File {
	f := g.newFile("models")

	f.Commentf("%s is the model of the %q table.", e.Name, e.Table.Name)
	f.Type().Id(e.Name).StructFunc(func(group *jen.Group) {
		if e.ID != nil {
			group.Id(e.ID.Name).Add(e.ID.GoType()).Tag(map[string]string{
				"gorm": gormTag(e.ID.Column),
				"json": e.ID.Column.Name,
			})
		}
		for _, fd := range e.Fields {
			tags := map[string]string{
				"gorm": gormTag(fd.Column),
				"json": fd.Column.Name,
			}
			if fd.Nillable() {
				tags["json"] += ",omitempty"
			}
			stmt := group.Id(fd.Name).Add(fd.GoType()).Tag(tags)
			if fd.Comment != "" {
				stmt.Comment(fd.Comment)
			}
		}
		if e.HasTimestamps {
			group.Line()
			group.Id("CreatedAt").Qual("time", "Time").Tag(map[string]string{"gorm": "column:" + schema.ColumnCreatedAt, "json": schema.ColumnCreatedAt})
			group.Id("UpdatedAt").Qual("time", "Time").Tag(map[string]string{"gorm": "column:" + schema.ColumnUpdatedAt, "json": schema.ColumnUpdatedAt})
		}
		if e.HasSoftDelete {
			if !e.HasTimestamps {
				group.Line()
			}
			group.Id("DeletedAt").Qual(pkgGorm, "DeletedAt").Tag(map[string]string{
				"gorm": "column:" + schema.ColumnDeletedAt + ";index",
				"json": schema.ColumnDeletedAt + ",omitempty",
			})
		}
		if len(e.Edges) > 0 {
			group.Line()
		}
		for _, edge := range e.Edges {
			switch edge.Kind {
			case schema.BelongsTo:
				gorm := "foreignKey:" + edge.ForeignKey
				if edge.References != "" {
					gorm += ";references:" + edge.References
				}
				group.Id(edge.Name).Op("*").Id(edge.Type).Tag(map[string]string{
					"gorm": gorm,
					"json": edge.Relation.Name + ",omitempty",
				})
			case schema.HasMany:
				group.Id(edge.Name).Index().Id(edge.Type).Tag(map[string]string{
					"gorm": "foreignKey:" + edge.ForeignKey,
					"json": edge.Relation.Name + ",omitempty",
				})
			}
		}
	})

	f.Comment("TableName returns the table name of the model.")
	f.Func().Params(jen.Id(e.Name)).Id("TableName").Params().String().Block(
		jen.Return(jen.Lit(e.Table.Name)),
	)

	f.Commentf("%sFillable lists the columns that may be mass-assigned.", e.Name)
	f.Var().Id(e.Name + "Fillable").Op("=").Index().String().ValuesFunc(func(group *jen.Group) {
		for _, fd := range e.Fields {
			group.Lit(fd.Column.Name)
		}
	})

	f.Commentf("%sCasts maps columns to their cast directive.", e.Name)
	f.Var().Id(e.Name + "Casts").Op("=").Map(jen.String()).String().Values(jen.DictFunc(func(d jen.Dict) {
		for _, fd := range e.Fields {
			if c := cast(fd.Column); c != "" {
				d[jen.Lit(fd.Column.Name)] = jen.Lit(c)
			}
		}
	}))

	f.Commentf("%sRelations lists the relations loaded with every %s.", e.Name, e.Name)
	f.Var().Id(e.Name + "Relations").Op("=").Index().String().ValuesFunc(func(group *jen.Group) {
		for _, edge := range e.Edges {
			group.Lit(edge.Name)
		}
	})

	f.Commentf("%sSoftDeletes reports whether deleting a %s only marks it as deleted.", e.Name, e.Name)
	f.Const().Id(e.Name + "SoftDeletes").Op("=").Lit(e.HasSoftDelete)

	f.Comment(fmt.Sprintf("Preload%s eager-loads the relations of %s.", e.Name, e.Name))
	f.Func().Id("Preload"+e.Name).Params(jen.Id("db").Op("*").Qual(pkgGorm, "DB")).Op("*").Qual(pkgGorm, "DB").Block(
		jen.For(jen.List(jen.Id("_"), jen.Id("r")).Op(":=").Range().Id(e.Name+"Relations")).Block(
			jen.Id("db").Op("=").Id("db").Dot("Preload").Call(jen.Id("r")),
		),
		jen.Return(jen.Id("db")),
	)
	return f
}

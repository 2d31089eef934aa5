// Package schema holds the normalized in-memory model of an entity-relationship
// diagram: tables, columns, drawn connectors and the foreign keys and relations
// derived from them.
//
// A Model is built once per run by the loader, enriched in place by the
// resolvers in the graph package and then read by the emitters:
//
//	document -> load.Load -> *schema.Model -> graph.Build -> gen.Generate
//
// # Column Types
//
// Every column keeps the type it was declared with (RawType) and carries the
// resolved ColumnTypeSpec filled in by the type resolver. Missing parameters
// take their defaults:
//
//	VARCHAR          -> string(255)
//	DECIMAL          -> decimal(8,2)
//	TINYINT(1)       -> boolean
//	BIGINT UNSIGNED  -> integer, bigint, unsigned
//	DATETIME         -> datetime
//
// # Relations
//
// A connector drawn from citas.medico_id to medicos becomes a ForeignKeyRef on
// citas and two relations: a belongs-to "medico" on citas and a has-many
// "citas" on medicos. Tables listed in Model.Exclude are still modeled and
// emitted but never seeded.
package schema

// Package graph enriches a loaded schema.Model and orders its tables.
//
// Build runs the enrichment passes in a fixed sequence:
//
//   - primary keys and special columns (id, timestamps, soft delete, email)
//   - column types, through the ordered rule table of the TypeResolver
//   - foreign keys from drawn connectors, "_id" naming candidates, foreign-key
//     type coercion and the belongs-to / has-many relations
//   - the dependency order over established foreign keys
//
// Every pass reports non-fatal findings to a diag.Report. Failures scoped to
// one table (an unresolved reference) are kept in Graph.Failed and spread to
// the tables that depend on it; a foreign-key cycle aborts the build.
//
//	m, err := load.Load("clinica.mwb")
//	if err != nil {
//	    return err
//	}
//	g, err := graph.Build(m, graph.WithReport(report))
//	if err != nil {
//	    return err // *erdgen.CycleError
//	}
//	for _, t := range g.Valid() {
//	    // dependency order, failed tables skipped
//	}
package graph

// Package gen renders the backend artifacts of an enriched diagram model.
//
// A Generator walks the dependency order of a graph.Graph and produces, per
// table, a goose migration, a gorm model, a gin CRUD handler and a seeder,
// plus the files shared by every table: the handler helpers, the route
// registration and the seeder runner.
//
// # Pipeline
//
//	graph.Graph (enriched model, dependency order)
//	        ↓
//	   Entity (Go names and types per table)
//	        ↓
//	   jen.File / migration bytes
//	        ↓
//	   Writer (goimports, parallel writes)
//	        ↓
//	   Snapshot (.erdgen/snapshot.msgpack)
//
// Migrations are rendered by the sql subpackage through atlas. Go sources
// are built with jennifer and formatted with goimports before they are
// written.
//
// # Failures
//
// A table that cannot be resolved or rendered loses all of its artifacts,
// and so does every table depending on it. Other tables are still
// generated. Write failures abort the run with an *erdgen.EmissionIOError.
//
// # Incremental runs
//
// Every run stores a digest of its input next to the generated files. A
// later run with the same digest and all files in place writes nothing
// unless WithForce is set. Files of a previous run that the current run no
// longer produces are removed when they still carry the generated header.
//
// # Configuration
//
//	gen, err := gen.New(g,
//	    gen.WithTarget("./clinica"),
//	    gen.WithPackage("github.com/acme/clinica"),
//	    gen.WithArtifacts(gen.ArtifactMigration, gen.ArtifactModel),
//	)
package gen

// Package erdgen turns an entity-relationship diagram into the skeleton of a
// Go backend: schema-creation files, gorm models, gin handlers and routes,
// and seeders that respect foreign keys.
//
// This package holds the error taxonomy shared by every stage. Fatal errors
// (ParseError, CycleError, EmissionIOError) abort a run; an
// UnresolvedReferenceError only skips the table it names and the tables that
// depend on it:
//
//	res, err := g.Generate(ctx)
//	switch {
//	case erdgen.IsFatal(err):
//	    return err
//	case err != nil:
//	    log.Printf("generated %d files, some tables were skipped: %v", len(res.Files), err)
//	}
package erdgen

// Package seed synthesizes realistic rows for the tables of a diagram.
//
// Every emitted column is mapped to a generation Strategy by an ordered list
// of rules: name rules first ("nombre", "email", "precio", ...), then the
// foreign-key rule, then fallbacks on the resolved column kind. The plan is
// shared by the live Seeder, which inserts rows into a database in dependency
// order, and by the seed-file renderer of the gen package, which emits the
// same strategies as Go code.
//
// Foreign-key values are sampled from the identifiers actually produced for
// the referenced table earlier in the same run, so every referenced table
// must be complete before a dependent table starts.
package seed

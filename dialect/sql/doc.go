// Package sql opens database connections for the live seeder and provides the
// few statements it needs: inserting a row and reading back the values of a
// column.
//
// Open registers the MySQL, PostgreSQL and SQLite drivers:
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://localhost/clinica?sslmode=disable")
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//
//	tx, err := drv.BeginTx(ctx, nil)
//	id, err := tx.Insert(ctx, "medicos", []string{"nombre"}, []any{"Ana"}, "id")
package sql

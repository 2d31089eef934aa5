// Package dialect names the database dialects the live seeder can target.
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite3"
//
// The dialect decides identifier quoting, bind placeholders and how the
// identifier of an inserted row is read back. Connections are opened with
// dialect/sql:
//
//	drv, err := sql.Open(dialect.MySQL, "root:pass@tcp(localhost:3306)/clinica")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
package dialect

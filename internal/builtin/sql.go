package builtin

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// dbQuery runs a SELECT against driverName/dsn and returns each row as a
// column-name -> string-value map, the shape the engine's MapStrStr
// registers need. One database/sql handle per (driver, dsn) pair would
// normally be pooled by a long-lived host; this package opens and closes
// per call since each SqliteQuery/MysqlQuery/etc. opcode is a complete,
// self-contained operation at the bytecode level (spec.md 4.1's built-ins
// are opaque single calls, not session handles).
func dbQuery(driverName, dsn, query string) ([]map[string]string, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]string
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]string, len(cols))
		for i, c := range cols {
			row[c] = scanString(raw[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// dbExec runs a non-SELECT statement and returns rows affected.
func dbExec(driverName, dsn, stmt string) (int64, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	res, err := db.Exec(stmt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func SqliteQuery(dsn, q string) ([]map[string]string, error) { return dbQuery("sqlite3", dsn, q) }
func SqliteExecute(dsn, stmt string) (int64, error)           { return dbExec("sqlite3", dsn, stmt) }

func LibsqlQuery(dsn, q string) ([]map[string]string, error) { return dbQuery("libsql", dsn, q) }
func LibsqlExecute(dsn, stmt string) (int64, error)           { return dbExec("libsql", dsn, stmt) }

func MysqlQuery(dsn, q string) ([]map[string]string, error) { return dbQuery("mysql", dsn, q) }
func MysqlExecute(dsn, stmt string) (int64, error)           { return dbExec("mysql", dsn, stmt) }

func PgQuery(dsn, q string) ([]map[string]string, error) { return dbQuery("pgx", dsn, q) }
func PgExecute(dsn, stmt string) (int64, error)           { return dbExec("pgx", dsn, stmt) }

package database

import "database/sql"

// Queryer is the subset of operations shared by a live connection and an open
// transaction. Repository methods that must participate in a caller-owned
// transaction take a Queryer instead of touching the pool directly; both
// *PostgresDB and *sqlx.Tx satisfy it.
type Queryer interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

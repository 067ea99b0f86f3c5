// Package mssql registers the SQL Server introspecter.
package mssql

import (
	"jstable/internal/dialect"
	"jstable/internal/introspect"
)

func init() {
	introspect.Register(dialect.MSSQL, New)
}

func New(d dialect.Dialect) introspect.Introspecter {
	return &introspect.Catalog{Dialect: d, Database: "db_name()"}
}

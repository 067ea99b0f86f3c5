package ddl

import (
	"strings"

	"jstable/internal/core"
)

// Constraint names carry their kind in a two-letter prefix. Introspection
// relies on it to tell keys apart, so the format must not change.
const (
	primaryKeyPrefix = "PK"
	uniqueKeyPrefix  = "UK"
	foreignKeyPrefix = "FK"
)

func constraintName(prefix, table string, cols []string) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString("__")
	sb.WriteString(table)
	for _, c := range cols {
		sb.WriteString("__")
		sb.WriteString(c)
	}
	return sb.String()
}

// PrimaryKeyName returns PK__<table>__<col1>__<col2>...
func PrimaryKeyName(table string, cols []string) string {
	return constraintName(primaryKeyPrefix, table, cols)
}

// UniqueKeyName returns UK__<table>__<col1>__<col2>...
func UniqueKeyName(table string, cols []string) string {
	return constraintName(uniqueKeyPrefix, table, cols)
}

// ForeignKeyName returns FK__<table>__<localCol1>__<localCol2>...
func ForeignKeyName(table string, cols []string) string {
	return constraintName(foreignKeyPrefix, table, cols)
}

// KeyHash hashes an ordered list of names, ignoring case.
func KeyHash(parts ...string) uint64 {
	return core.KeyHash(parts...)
}

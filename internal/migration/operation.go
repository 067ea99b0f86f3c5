package migration

import "strings"

// OperationKind is used to identify what kind of operation a plan entry is.
type OperationKind string

const (
	OperationSQL        OperationKind = "SQL"
	OperationNote       OperationKind = "NOTE"
	OperationUnresolved OperationKind = "UNRESOLVED"
)

// OperationRisk is used to identify the risk level of an operation.
type OperationRisk string

const (
	RiskInfo    OperationRisk = "INFO"
	RiskWarning OperationRisk = "WARNING"
)

// Operation is one entry of a plan: a statement to run against a table, a
// note about it, or the reason the table could not be planned.
type Operation struct {
	Kind  OperationKind `json:"kind"`
	Table string        `json:"table,omitempty"`

	SQL string `json:"sql,omitempty"`

	Risk         OperationRisk `json:"risk,omitempty"`
	RequiresLock bool          `json:"requiresLock,omitempty"`

	UnresolvedReason string `json:"unresolvedReason,omitempty"`
}

// classify derives risk and locking from the statement shape. Widening a
// column rewrites it under an exclusive lock, and swapping the primary key
// leaves the table without one between the two statements.
func classify(stmt string) (OperationRisk, bool) {
	upper := strings.ToUpper(stmt)
	switch {
	case strings.Contains(upper, " DROP CONSTRAINT "):
		return RiskWarning, true
	case strings.Contains(upper, " ALTER COLUMN "):
		return RiskInfo, true
	case strings.Contains(upper, " ADD CONSTRAINT "):
		return RiskInfo, true
	default:
		return RiskInfo, false
	}
}

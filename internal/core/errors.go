package core

import "errors"

// Error kinds returned by the compiler and the reconciliation engine. They are
// wrapped with context, so match them with errors.Is.
var (
	ErrConfiguration          = errors.New("configuration error")
	ErrTableNotFound          = errors.New("all tables should be created first")
	ErrUnsupportedType        = errors.New("type not yet implemented")
	ErrUnknownPropertyType    = errors.New("has no correspondent type")
	ErrUnrecognizedNativeType = errors.New("has no correspondent property type")
	ErrColumnNotModifiable    = errors.New("cannot be modified")
	ErrNoCandidateKey         = errors.New("don't have a candidate key column defined")
	ErrNoCandidateKeyFound    = errors.New("no candidate key to be referenced")
	ErrPropertyNotFound       = errors.New("not found")
	ErrInvalidSchema          = errors.New("invalid schema")
)

// TableError annotates an error with the table it was raised for.
type TableError struct {
	Table string
	Err   error
}

func (e *TableError) Error() string {
	return e.Err.Error() + " (" + e.Table + ")"
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// WrapTable annotates err with table. A nil err stays nil.
func WrapTable(table string, err error) error {
	if err == nil {
		return nil
	}
	return &TableError{Table: table, Err: err}
}

package sqlite

import (
	"errors"
	"fmt"
)

// InvalidTableError is a client fault: the requested table is not in
// the allow-list. It is raised before any query is issued.
type InvalidTableError struct {
	Table string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("table %q is not allowed", e.Table)
}

// InvalidColumnError is a client fault: a filter or order-by column
// is not in the table's column allow-list.
type InvalidColumnError struct {
	Table  string
	Column string
}

func (e *InvalidColumnError) Error() string {
	return fmt.Sprintf("column %q is not allowed on table %q", e.Column, e.Table)
}

// QueryError is a dependency fault: the store rejected a query that
// passed validation. The upstream message is preserved for logging.
type QueryError struct {
	Table string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query against %q failed: %v", e.Table, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsClientFault reports whether err should map to a 400 rather
// than a 500.
func IsClientFault(err error) bool {
	var tableErr *InvalidTableError
	var colErr *InvalidColumnError
	return errors.As(err, &tableErr) || errors.As(err, &colErr)
}

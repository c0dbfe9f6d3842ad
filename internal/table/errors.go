package table

import "errors"

var (
	// ErrOutOfRange indicates a cell index outside a non-extending table.
	ErrOutOfRange = errors.New("table: index out of range")
	// ErrWriteOnReadOnly indicates a write to a read-only table.
	ErrWriteOnReadOnly = errors.New("table: write on read-only table")
	// ErrNotNumeric indicates a cell that does not hold a number.
	ErrNotNumeric = errors.New("table: cell is not numeric")
	// ErrUndefinedCell indicates a numeric read of an empty cell.
	ErrUndefinedCell = errors.New("table: cell is undefined")
	// ErrInvalidSeparator indicates a separator rune the CSV layer cannot use.
	ErrInvalidSeparator = errors.New("table: invalid separator")
)

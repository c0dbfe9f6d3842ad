// Package table provides a sparse, auto-extending 2-D grid of strings.
//
// A Table is the tokenized form of a CSV file: an ordered sequence of rows,
// each an ordered sequence of cells. Rows need not have the same length.
// An empty cell and a cell that was never written are the same thing.
//
// # Modes
//
//   - New / FromRows: auto-extending. Reads outside the grid return the
//     empty value; writes outside the grid grow it.
//   - NewWithCapacity: fixed size. Reads and writes outside the grid fail
//     with ErrOutOfRange.
//   - NewReadOnly: fixed content. Writes fail with ErrWriteOnReadOnly and
//     reads outside the grid fail with ErrOutOfRange.
//
// # Numeric cells
//
// TryGetInt and TryGetDouble report a CellStatus so callers can tell an
// empty cell from one holding text that is not a number.
//
// # CSV
//
// Read / Write (and LoadCSV / SaveCSV for files) convert between a Table and
// delimited text with an injectable separator. Input is passed through
// WrapForReading first, which strips a UTF-8 BOM and replaces invalid UTF-8.
//
// Every method takes the table's mutex, so a Table can be shared between
// goroutines. Multi-step edits still need external coordination.
package table

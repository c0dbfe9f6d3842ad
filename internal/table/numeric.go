package table

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a trimmed cell holds a plain decimal number.
// Matches integers, decimals, and scientific notation; rejects NaN and Inf.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// integerRegex validates that a trimmed cell holds a plain integer.
var integerRegex = regexp.MustCompile(`^[+-]?\d+$`)

// CellStatus classifies a cell for numeric access.
type CellStatus int

const (
	// CellUndefined means the cell is empty or was never written.
	CellUndefined CellStatus = iota
	// CellNotNumeric means the cell holds text that does not parse.
	CellNotNumeric
	// CellNumeric means the cell parsed successfully.
	CellNumeric
)

func (s CellStatus) String() string {
	switch s {
	case CellUndefined:
		return "undefined"
	case CellNotNumeric:
		return "not numeric"
	case CellNumeric:
		return "numeric"
	default:
		return fmt.Sprintf("CellStatus(%d)", int(s))
	}
}

// ParseDouble parses s the way numeric cells are parsed.
func ParseDouble(s string) (float64, CellStatus) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, CellUndefined
	}
	if !numericRegex.MatchString(s) {
		return 0, CellNotNumeric
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, CellNotNumeric
	}
	return f, CellNumeric
}

// ParseInt parses s the way integer cells are parsed.
func ParseInt(s string) (int, CellStatus) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, CellUndefined
	}
	if !integerRegex.MatchString(s) {
		return 0, CellNotNumeric
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, CellNotNumeric
	}
	return i, CellNumeric
}

// FormatDouble renders f with the shortest representation that parses back
// to the same value. NaN renders as the empty string.
func FormatDouble(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// TryGetDouble parses the cell at (row, col) as a float64.
func (t *Table) TryGetDouble(row, col int) (float64, CellStatus) {
	return ParseDouble(t.Value(row, col))
}

// TryGetInt parses the cell at (row, col) as an int.
func (t *Table) TryGetInt(row, col int) (int, CellStatus) {
	return ParseInt(t.Value(row, col))
}

// IsDouble reports whether the cell at (row, col) holds a number.
func (t *Table) IsDouble(row, col int) bool {
	_, st := t.TryGetDouble(row, col)
	return st == CellNumeric
}

// IsInt reports whether the cell at (row, col) holds an integer.
func (t *Table) IsInt(row, col int) bool {
	_, st := t.TryGetInt(row, col)
	return st == CellNumeric
}

// GetDouble returns the cell at (row, col) as a float64.
func (t *Table) GetDouble(row, col int) (float64, error) {
	t.mu.Lock()
	v, err := t.get(row, col)
	t.mu.Unlock()
	if err != nil {
		return 0, err
	}
	f, st := ParseDouble(v)
	return f, statusErr(st, row, col, v)
}

// GetInt returns the cell at (row, col) as an int.
func (t *Table) GetInt(row, col int) (int, error) {
	t.mu.Lock()
	v, err := t.get(row, col)
	t.mu.Unlock()
	if err != nil {
		return 0, err
	}
	i, st := ParseInt(v)
	return i, statusErr(st, row, col, v)
}

// SetDouble stores f at (row, col). NaN stores an empty cell.
func (t *Table) SetDouble(row, col int, f float64) error {
	return t.Set(row, col, FormatDouble(f))
}

// SetInt stores i at (row, col).
func (t *Table) SetInt(row, col int, i int) error {
	return t.Set(row, col, strconv.Itoa(i))
}

func statusErr(st CellStatus, row, col int, v string) error {
	switch st {
	case CellUndefined:
		return fmt.Errorf("%w: (%d, %d)", ErrUndefinedCell, row, col)
	case CellNotNumeric:
		return fmt.Errorf("%w: (%d, %d) %q", ErrNotNumeric, row, col, v)
	}
	return nil
}

package table

import (
	"fmt"
	"strings"
	"sync"
)

// Table is a sparse, mutable 2-D grid of optional strings.
type Table struct {
	mu         sync.Mutex
	rows       [][]string
	autoExtend bool
	readOnly   bool
}

// New returns an empty auto-extending table.
func New() *Table {
	return &Table{autoExtend: true}
}

// FromRows returns an auto-extending table holding a copy of rows.
func FromRows(rows [][]string) *Table {
	return &Table{rows: copyRows(rows), autoExtend: true}
}

// NewWithCapacity returns a writable table of fixed size. Every row has
// cols cells; access outside rows x cols fails with ErrOutOfRange.
func NewWithCapacity(rows, cols int) *Table {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	t := &Table{rows: make([][]string, rows)}
	for i := range t.rows {
		t.rows[i] = make([]string, cols)
	}
	return t
}

// NewReadOnly returns a read-only table holding a copy of rows.
func NewReadOnly(rows [][]string) *Table {
	return &Table{rows: copyRows(rows), readOnly: true}
}

// AutoExtend reports whether out-of-range access grows the table.
func (t *Table) AutoExtend() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.autoExtend
}

// ReadOnly reports whether writes are rejected.
func (t *Table) ReadOnly() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readOnly
}

// Get returns the value at (row, col). ok is false for an empty or
// never-written cell. Under auto-extend Get never fails.
func (t *Table) Get(row, col int) (value string, ok bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	value, err = t.get(row, col)
	if err != nil {
		return "", false, err
	}
	return value, !isBlank(value), nil
}

// Value returns the value at (row, col), or "" when the cell is empty or
// cannot be read in the current mode.
func (t *Table) Value(row, col int) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, err := t.get(row, col)
	if err != nil {
		return ""
	}
	return v
}

// Set stores value at (row, col), growing the table when auto-extend is on.
func (t *Table) Set(row, col int, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.set(row, col, value)
}

// RowCount returns the number of rows currently stored.
func (t *Table) RowCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// ColumnCount returns the number of cells stored in row, or 0 when the row
// does not exist.
func (t *Table) ColumnCount(row int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if row < 0 || row >= len(t.rows) {
		return 0
	}
	return len(t.rows[row])
}

// MaxColumnCount returns the length of the longest row.
func (t *Table) MaxColumnCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	max := 0
	for _, r := range t.rows {
		if len(r) > max {
			max = len(r)
		}
	}
	return max
}

// Rows returns a copy of the table content.
func (t *Table) Rows() [][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyRows(t.rows)
}

// Clear removes all content. Fixed-size tables keep their shape with every
// cell emptied.
func (t *Table) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.readOnly {
		return ErrWriteOnReadOnly
	}
	if t.autoExtend {
		t.rows = nil
		return nil
	}
	for _, r := range t.rows {
		for j := range r {
			r[j] = ""
		}
	}
	return nil
}

// FirstNonEmptyRow returns the index of the first row at or after from that
// holds a non-empty cell, or -1.
func (t *Table) FirstNonEmptyRow(from int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if from < 0 {
		from = 0
	}
	for i := from; i < len(t.rows); i++ {
		if firstNonEmpty(t.rows[i], 0) >= 0 {
			return i
		}
	}
	return -1
}

// FirstNonEmptyColumn returns the index of the first non-empty cell in row
// at or after column from, or -1.
func (t *Table) FirstNonEmptyColumn(row, from int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if row < 0 || row >= len(t.rows) {
		return -1
	}
	if from < 0 {
		from = 0
	}
	return firstNonEmpty(t.rows[row], from)
}

// LastNonEmptyColumn returns the index of the last non-empty cell in row,
// or -1.
func (t *Table) LastNonEmptyColumn(row int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if row < 0 || row >= len(t.rows) {
		return -1
	}
	r := t.rows[row]
	for j := len(r) - 1; j >= 0; j-- {
		if !isBlank(r[j]) {
			return j
		}
	}
	return -1
}

// String renders the table for debugging, one row per line.
func (t *Table) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	for i, r := range t.rows {
		fmt.Fprintf(&b, "%d: %q\n", i, r)
	}
	return b.String()
}

// get reads a cell. Callers hold t.mu.
func (t *Table) get(row, col int) (string, error) {
	if row < 0 || col < 0 {
		return "", fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	if row >= len(t.rows) || col >= len(t.rows[row]) {
		if t.autoExtend {
			return "", nil
		}
		return "", fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	return t.rows[row][col], nil
}

// set writes a cell. Callers hold t.mu.
func (t *Table) set(row, col int, value string) error {
	if t.readOnly {
		return ErrWriteOnReadOnly
	}
	if row < 0 || col < 0 {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	if row >= len(t.rows) || col >= len(t.rows[row]) {
		if !t.autoExtend {
			return fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
		}
		// Writing an empty value never needs to grow storage.
		if value == "" {
			return nil
		}
		for len(t.rows) <= row {
			t.rows = append(t.rows, nil)
		}
		if col >= len(t.rows[row]) {
			grown := make([]string, col+1)
			copy(grown, t.rows[row])
			t.rows[row] = grown
		}
	}
	t.rows[row][col] = value
	return nil
}

func firstNonEmpty(r []string, from int) int {
	for j := from; j < len(r); j++ {
		if !isBlank(r[j]) {
			return j
		}
	}
	return -1
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func copyRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

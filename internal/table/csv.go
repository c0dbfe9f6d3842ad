package table

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// DefaultSeparator is the separator used when none is configured.
const DefaultSeparator = ','

// ValidSeparator reports whether sep can delimit CSV fields.
func ValidSeparator(sep rune) bool {
	return sep != 0 && sep != '"' && sep != '\r' && sep != '\n' &&
		utf8.ValidRune(sep) && sep != utf8.RuneError
}

// Read replaces the table content with the records tokenized from r.
// Records may have differing lengths; quotes are parsed leniently.
func (t *Table) Read(r io.Reader, sep rune) error {
	if !ValidSeparator(sep) {
		return fmt.Errorf("%w: %q", ErrInvalidSeparator, sep)
	}

	cr := csv.NewReader(WrapForReading(r))
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.readOnly {
		return ErrWriteOnReadOnly
	}
	t.rows = records
	return nil
}

// Write serializes every row of the table to w. A row without cells is
// written as a single separator so it survives a later Read.
func (t *Table) Write(w io.Writer, sep rune) error {
	if !ValidSeparator(sep) {
		return fmt.Errorf("%w: %q", ErrInvalidSeparator, sep)
	}

	rows := t.Rows()

	cw := csv.NewWriter(w)
	cw.Comma = sep
	for i, r := range rows {
		if len(r) == 0 {
			r = []string{"", ""}
		}
		if err := cw.Write(r); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// LoadCSV replaces the table content with the file at path.
func (t *Table) LoadCSV(path string, sep rune) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := t.Read(f, sep); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// SaveCSV writes the table to path, appending to an existing file when
// append is true.
func (t *Table) SaveCSV(path string, sep rune, append bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	if append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	if err := t.Write(bw, sep); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("save %s: %w", path, err)
	}
	return f.Close()
}

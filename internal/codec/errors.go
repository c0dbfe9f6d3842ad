package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrStructural matches every *StructuralError.
	ErrStructural = errors.New("codec: structural error")
	// ErrResolution matches every *ResolutionError.
	ErrResolution = errors.New("codec: column resolution failed")
	// ErrDataQuality matches every *DataQualityError.
	ErrDataQuality = errors.New("codec: data quality error")
)

// StructuralError reports malformed or contradictory table content. Column
// is -1 when the problem concerns a whole row.
type StructuralError struct {
	Row    int
	Column int
	Msg    string
}

func (e *StructuralError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("codec: row %d: %s", e.Row+1, e.Msg)
	}
	return fmt.Sprintf("codec: row %d, column %d: %s", e.Row+1, e.Column+1, e.Msg)
}

func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

func structuralf(row, col int, format string, args ...any) error {
	return &StructuralError{Row: row, Column: col, Msg: fmt.Sprintf(format, args...)}
}

// ResolutionError reports that the column-to-element mapping could not be
// determined.
type ResolutionError struct {
	Row int
	Msg string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("codec: row %d: cannot resolve columns: %s", e.Row+1, e.Msg)
}

func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

// DataQualityError reports missing or inconsistent values on write. It is
// only returned when Options.ThrowOnDataErrors is set.
type DataQualityError struct {
	Msg string
}

func (e *DataQualityError) Error() string {
	return "codec: data quality: " + e.Msg
}

func (e *DataQualityError) Is(target error) bool { return target == ErrDataQuality }

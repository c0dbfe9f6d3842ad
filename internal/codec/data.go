package codec

import (
	"math"

	"github.com/JonMunkholm/modelcsv/internal/model"
	"github.com/JonMunkholm/modelcsv/internal/table"
)

type dataState int

const (
	scanningForDataKey dataState = iota
	scanningRows
	stopped
)

// RestoreData scans forward from the cursor and appends one record per data
// row. Definition rows met before any data are restored first. The scan
// stops at the end of the table, at a definition row after data has
// started, or at any other content after data has started. Other content
// before the first data row is a StructuralError.
func (r *Reader) RestoreData() error {
	state := scanningForDataKey
	for state != stopped && r.row < r.t.RowCount() {
		row := r.row
		c0 := r.t.FirstNonEmptyColumn(row, 0)
		if c0 < 0 {
			r.row++
			continue
		}
		cell := r.t.Value(row, c0)
		kind := r.kw.Classify(cell)

		switch {
		case kind.IsComment():
			r.row++
		case kind.IsData():
			state = scanningRows
			if c := r.t.FirstNonEmptyColumn(row, c0+1); c >= 0 {
				if err := r.readDataRow(row, c0, c); err != nil {
					return err
				}
			}
			r.row++
		case kind.IsDefinition():
			if state == scanningRows {
				state = stopped
				continue
			}
			if err := r.RestoreDefinition(); err != nil {
				return err
			}
		case isNumber(cell):
			state = scanningRows
			if err := r.readDataRow(row, -1, c0); err != nil {
				return err
			}
			r.row++
		default:
			if state == scanningRows {
				state = stopped
				continue
			}
			return structuralf(row, c0, "unexpected content %q before data", cell)
		}
	}

	r.set = model.EnsureSampledDataSet(r.set, max(r.nIn, 0), max(r.nOut, 0))
	return nil
}

// readDataRow decodes row into a record. skip is a column holding the data
// keyword, or -1; first is the first value column.
func (r *Reader) readDataRow(row, skip, first int) error {
	if err := r.resolve(row, func() int { return first }); err != nil {
		return err
	}
	r.set = model.EnsureSampledDataSet(r.set, r.nIn, r.nOut)

	ins, err := r.readVector(row, r.cols.Inputs())
	if err != nil {
		return err
	}
	outs, err := r.readVector(row, r.cols.Outputs())
	if err != nil {
		return err
	}

	last := r.t.LastNonEmptyColumn(row)
	for c := 0; c <= last; c++ {
		if c == skip || r.mapped[c] {
			continue
		}
		if v, ok, _ := r.t.Get(row, c); ok {
			return structuralf(row, c, "value %q outside the element columns", v)
		}
	}

	return r.set.Append(model.SampleRecord{Inputs: ins, Outputs: outs})
}

// readVector decodes the cells of cols. Empty cells become NaN; a vector
// without any value is nil.
func (r *Reader) readVector(row int, cols []ColumnDefinition) ([]float64, error) {
	v := make([]float64, len(cols))
	present := false
	for _, d := range cols {
		f, st := r.t.TryGetDouble(row, d.Column)
		switch st {
		case table.CellNumeric:
			v[d.Element] = f
			present = true
		case table.CellUndefined:
			v[d.Element] = math.NaN()
		default:
			return nil, structuralf(row, d.Column, "value %q is not a number", r.t.Value(row, d.Column))
		}
	}
	if !present {
		return nil, nil
	}
	return v, nil
}

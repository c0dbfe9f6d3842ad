package codec

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/JonMunkholm/modelcsv/internal/keywords"
	"github.com/JonMunkholm/modelcsv/internal/model"
	"github.com/JonMunkholm/modelcsv/internal/table"
)

// Writer stores definitions and samples into a table. A Writer holds no
// per-call state and may be reused, but not concurrently on one table.
type Writer struct {
	opts Options
	kw   *keywords.Registry
	log  *slog.Logger
}

// NewWriter returns a Writer using opts.
func NewWriter(opts Options) *Writer {
	opts = opts.normalized()
	return &Writer{opts: opts, kw: opts.Keywords, log: opts.Logger}
}

// putRow writes the keyword for k at (row, 0) and values starting at the
// indentation column, on the same row or the next one. It returns the row
// after the block.
func (w *Writer) putRow(t *table.Table, row int, k keywords.Kind, values []string) (int, error) {
	if err := t.Set(row, 0, w.kw.Text(k)); err != nil {
		return row, err
	}
	vr := row
	if !w.opts.KeyAndDataInSameRow {
		vr = row + 1
	}
	for i, v := range values {
		if err := t.Set(vr, w.opts.Indentation+i, v); err != nil {
			return row, err
		}
	}
	return vr + 1, nil
}

// StoreComment writes a comment row at row and returns the next row.
func (w *Writer) StoreComment(t *table.Table, row int, text string) (int, error) {
	if err := t.Set(row, 0, w.kw.Text(keywords.Comment)); err != nil {
		return row, err
	}
	col := w.opts.Indentation
	if col < 1 {
		col = 1
	}
	if err := t.Set(row, col, text); err != nil {
		return row, err
	}
	return row + 1, nil
}

// StoreDefinition writes def starting at row and returns the row after the
// definition block. Values are ordered inputs by index then outputs by
// index. Optional attribute rows are written only when some element
// defines the attribute. def itself is not modified.
func (w *Writer) StoreDefinition(t *table.Table, row int, def *model.DataDefinition) (int, error) {
	if def == nil {
		def = &model.DataDefinition{}
	}
	def = def.Clone()
	if err := def.Validate(); err != nil {
		return row, fmt.Errorf("store definition: %w", err)
	}

	if in, out := def.MissingNames(); len(in)+len(out) > 0 {
		if w.opts.ThrowOnDataErrors {
			return row, &DataQualityError{Msg: fmt.Sprintf("missing names for inputs %v and outputs %v", in, out)}
		}
		generated := def.EnsureNames()
		w.log.Warn("generated missing element names", "names", strings.Join(generated, ","))
	}

	nIn, nOut := def.InputLength(), def.OutputLength()
	var err error
	if row, err = w.putRow(t, row, keywords.NumInputs, []string{strconv.Itoa(nIn)}); err != nil {
		return row, err
	}
	if row, err = w.putRow(t, row, keywords.NumOutputs, []string{strconv.Itoa(nOut)}); err != nil {
		return row, err
	}
	if nIn+nOut == 0 {
		return row, nil
	}

	types := make([]string, 0, nIn+nOut)
	indices := make([]string, 0, nIn+nOut)
	for _, e := range def.Inputs {
		types = append(types, w.kw.Text(keywords.Input))
		indices = append(indices, strconv.Itoa(e.Index))
	}
	for _, e := range def.Outputs {
		types = append(types, w.kw.Text(keywords.Output))
		indices = append(indices, strconv.Itoa(e.Index))
	}
	if row, err = w.putRow(t, row, keywords.ElementTypes, types); err != nil {
		return row, err
	}
	if row, err = w.putRow(t, row, keywords.ElementIndices, indices); err != nil {
		return row, err
	}

	for _, a := range attributeRows {
		values, defined := a.values(def)
		if !defined && a.kind != keywords.Names {
			continue
		}
		if row, err = w.putRow(t, row, a.kind, values); err != nil {
			return row, err
		}
	}
	return row, nil
}

// StoreData writes the data keyword at row followed by one row per record
// and returns the row after the block. Records without any value are
// skipped. Missing or mis-sized vectors are padded or truncated, or
// rejected when ThrowOnDataErrors is set.
func (w *Writer) StoreData(t *table.Table, row int, set *model.SampledDataSet) (int, error) {
	if err := t.Set(row, 0, w.kw.Text(keywords.Data)); err != nil {
		return row, err
	}
	row++
	if set == nil {
		return row, nil
	}

	nIn, nOut := set.InputLength, set.OutputLength
	skipped := 0
	for i, rec := range set.Records {
		if w.opts.ThrowOnDataErrors {
			if err := checkVector("input", i, rec.Inputs, nIn); err != nil {
				return row, err
			}
			if err := checkVector("output", i, rec.Outputs, nOut); err != nil {
				return row, err
			}
		}
		if rec.Empty() {
			if w.opts.ThrowOnDataErrors {
				return row, &DataQualityError{Msg: fmt.Sprintf("record %d has no values", i)}
			}
			skipped++
			continue
		}

		col := w.opts.Indentation
		for j := 0; j < nIn; j++ {
			if err := t.Set(row, col+j, component(rec.Inputs, j)); err != nil {
				return row, err
			}
		}
		col += nIn
		for j := 0; j < nOut; j++ {
			if err := t.Set(row, col+j, component(rec.Outputs, j)); err != nil {
				return row, err
			}
		}
		row++
	}
	if skipped > 0 {
		w.log.Warn("skipped records without values", "count", skipped)
	}
	return row, nil
}

func checkVector(side string, rec int, v []float64, n int) error {
	switch {
	case v == nil && n > 0:
		return &DataQualityError{Msg: fmt.Sprintf("record %d has no %s vector", rec, side)}
	case v != nil && len(v) != n:
		return &DataQualityError{Msg: fmt.Sprintf("record %d has %d %s values, want %d", rec, len(v), side, n)}
	}
	return nil
}

func component(v []float64, i int) string {
	if i >= len(v) {
		return ""
	}
	return table.FormatDouble(v[i])
}

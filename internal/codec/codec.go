package codec

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/modelcsv/internal/model"
	"github.com/JonMunkholm/modelcsv/internal/table"
)

// Encode writes def followed by set into a new table. A nil set writes no
// data block. set must have the lengths of def.
func Encode(def *model.DataDefinition, set *model.SampledDataSet, opts Options) (*table.Table, error) {
	t := table.New()
	w := NewWriter(opts)

	row, err := w.StoreDefinition(t, 0, def)
	if err != nil {
		return nil, err
	}
	if set != nil {
		if !set.Compatible(def.InputLength(), def.OutputLength()) {
			return nil, structuralf(row, -1, "data has %d inputs and %d outputs, definition has %d and %d",
				set.InputLength, set.OutputLength, def.InputLength(), def.OutputLength())
		}
		if _, err := w.StoreData(t, row, set); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Decode restores the definition and samples held in t.
func Decode(t *table.Table, opts Options) (*model.DataDefinition, *model.SampledDataSet, error) {
	r := NewReader(t, opts)
	if err := r.RestoreDefinition(); err != nil {
		return nil, nil, err
	}
	if err := r.RestoreData(); err != nil {
		return nil, nil, err
	}
	return r.Definition(), r.Data(), nil
}

// EncodeCSV encodes def and set and writes them as CSV text to w.
func EncodeCSV(w io.Writer, sep rune, def *model.DataDefinition, set *model.SampledDataSet, opts Options) error {
	t, err := Encode(def, set, opts)
	if err != nil {
		return err
	}
	if err := t.Write(w, sep); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// DecodeCSV reads CSV text from r and decodes it.
func DecodeCSV(r io.Reader, sep rune, opts Options) (*model.DataDefinition, *model.SampledDataSet, error) {
	t := table.New()
	if err := t.Read(r, sep); err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	return Decode(t, opts)
}

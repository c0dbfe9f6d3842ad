// Package export converts sampled data into Apache Arrow columnar form.
//
// Each element becomes one nullable float64 column named after the element,
// inputs first. Absent values become nulls. Field metadata carries the role,
// index and defined facets of the element.
package export

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/JonMunkholm/modelcsv/internal/model"
	"github.com/JonMunkholm/modelcsv/internal/table"
)

// Metadata keys on every field.
const (
	MetaRole  = "role"
	MetaIndex = "index"
	MetaTitle = "title"
	MetaMin   = "min"
	MetaMax   = "max"
)

// Schema returns the Arrow schema for def. Unnamed elements get generated
// names.
func Schema(def *model.DataDefinition) *arrow.Schema {
	def = def.Clone()
	if def == nil {
		def = &model.DataDefinition{}
	}
	def.EnsureNames()

	fields := make([]arrow.Field, 0, def.InputLength()+def.OutputLength())
	for _, e := range def.Inputs {
		fields = append(fields, field(e.Element, "input"))
	}
	for _, e := range def.Outputs {
		fields = append(fields, field(e.Element, "output"))
	}
	return arrow.NewSchema(fields, nil)
}

func field(e model.Element, role string) arrow.Field {
	keys := []string{MetaRole, MetaIndex}
	vals := []string{role, strconv.Itoa(e.Index)}
	if e.Title != "" {
		keys = append(keys, MetaTitle)
		vals = append(vals, e.Title)
	}
	if e.BoundsDefined {
		keys = append(keys, MetaMin, MetaMax)
		vals = append(vals, table.FormatDouble(e.Min), table.FormatDouble(e.Max))
	}
	return arrow.Field{
		Name:     e.Name,
		Type:     arrow.PrimitiveTypes.Float64,
		Nullable: true,
		Metadata: arrow.NewMetadata(keys, vals),
	}
}

// Record builds one record holding every sample of set. The caller releases
// the record.
func Record(mem memory.Allocator, def *model.DataDefinition, set *model.SampledDataSet) (arrow.Record, error) {
	if set == nil {
		set = model.NewSampledDataSet(def.InputLength(), def.OutputLength())
	}
	if !set.Compatible(def.InputLength(), def.OutputLength()) {
		return nil, fmt.Errorf("export: data has %d inputs and %d outputs, definition %d and %d",
			set.InputLength, set.OutputLength, def.InputLength(), def.OutputLength())
	}

	b := array.NewRecordBuilder(mem, Schema(def))
	defer b.Release()

	nIn := set.InputLength
	for _, rec := range set.Records {
		for i := 0; i < nIn; i++ {
			appendValue(b.Field(i).(*array.Float64Builder), rec.Inputs, i)
		}
		for j := 0; j < set.OutputLength; j++ {
			appendValue(b.Field(nIn+j).(*array.Float64Builder), rec.Outputs, j)
		}
	}
	return b.NewRecord(), nil
}

func appendValue(b *array.Float64Builder, v []float64, i int) {
	if i >= len(v) || math.IsNaN(v[i]) {
		b.AppendNull()
		return
	}
	b.Append(v[i])
}

// WriteIPC writes def and set to w as an Arrow IPC stream with one record.
func WriteIPC(w io.Writer, def *model.DataDefinition, set *model.SampledDataSet) error {
	mem := memory.NewGoAllocator()
	rec, err := Record(mem, def, set)
	if err != nil {
		return err
	}
	defer rec.Release()

	iw := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := iw.Write(rec); err != nil {
		iw.Close()
		return fmt.Errorf("export: write record: %w", err)
	}
	if err := iw.Close(); err != nil {
		return fmt.Errorf("export: close stream: %w", err)
	}
	return nil
}

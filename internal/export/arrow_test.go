package export_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/modelcsv/internal/export"
	"github.com/JonMunkholm/modelcsv/internal/model"
)

func sample(t *testing.T) (*model.DataDefinition, *model.SampledDataSet) {
	t.Helper()
	def, err := model.NewDataDefinition(2, 1)
	require.NoError(t, err)
	def.Inputs[0].Name = "speed"
	def.Inputs[0].Title = "Speed"
	def.Inputs[0].SetBounds(0, 10)
	def.Outputs[0].Name = "drag"

	set := model.NewSampledDataSet(2, 1)
	require.NoError(t, set.Append(model.SampleRecord{Inputs: []float64{1, 2}, Outputs: []float64{3}}))
	require.NoError(t, set.Append(model.SampleRecord{Inputs: []float64{math.NaN(), 5}}))
	return def, set
}

func TestSchema(t *testing.T) {
	def, _ := sample(t)
	s := export.Schema(def)

	require.Equal(t, 3, s.NumFields())
	assert.Equal(t, "speed", s.Field(0).Name)
	assert.Equal(t, "x2", s.Field(1).Name)
	assert.Equal(t, "drag", s.Field(2).Name)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Float64, s.Field(0).Type))

	md := s.Field(0).Metadata
	role, _ := md.GetValue(export.MetaRole)
	assert.Equal(t, "input", role)
	hi, ok := md.GetValue(export.MetaMax)
	require.True(t, ok)
	assert.Equal(t, "10", hi)

	out := s.Field(2).Metadata
	role, _ = out.GetValue(export.MetaRole)
	assert.Equal(t, "output", role)
	_, ok = out.GetValue(export.MetaTitle)
	assert.False(t, ok)

	assert.Empty(t, def.Inputs[1].Name, "Schema must not modify the definition")
}

func TestRecord(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	def, set := sample(t)
	rec, err := export.Record(mem, def, set)
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(2), rec.NumRows())
	require.Equal(t, int64(3), rec.NumCols())

	speed := rec.Column(0).(*array.Float64)
	assert.Equal(t, 1.0, speed.Value(0))
	assert.True(t, speed.IsNull(1))

	drag := rec.Column(2).(*array.Float64)
	assert.Equal(t, 3.0, drag.Value(0))
	assert.True(t, drag.IsNull(1))
}

func TestRecord_LengthMismatch(t *testing.T) {
	def, _ := sample(t)
	_, err := export.Record(memory.NewGoAllocator(), def, model.NewSampledDataSet(1, 1))
	require.Error(t, err)
}

func TestWriteIPC(t *testing.T) {
	def, set := sample(t)

	var buf bytes.Buffer
	require.NoError(t, export.WriteIPC(&buf, def, set))

	rdr, err := ipc.NewReader(&buf)
	require.NoError(t, err)
	defer rdr.Release()

	assert.Equal(t, "speed", rdr.Schema().Field(0).Name)
	require.True(t, rdr.Next())
	rec := rdr.Record()
	assert.Equal(t, int64(2), rec.NumRows())
	assert.Equal(t, 5.0, rec.Column(1).(*array.Float64).Value(1))
	assert.False(t, rdr.Next())
}

func TestWriteIPC_EmptySet(t *testing.T) {
	def, _ := sample(t)

	var buf bytes.Buffer
	require.NoError(t, export.WriteIPC(&buf, def, nil))

	rdr, err := ipc.NewReader(&buf)
	require.NoError(t, err)
	defer rdr.Release()
	require.True(t, rdr.Next())
	assert.Equal(t, int64(0), rdr.Record().NumRows())
}

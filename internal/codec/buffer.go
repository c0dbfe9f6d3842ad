package codec

import (
	"math"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/modelcsv/internal/table"
)

// floatBuffer holds one optional double per element, inputs and outputs
// apart. Valid=false marks an undefined value.
type floatBuffer struct {
	inputs  []pgtype.Float8
	outputs []pgtype.Float8
	seen    bool
}

func (b *floatBuffer) ensure(nIn, nOut int) {
	b.inputs = growFloat8(b.inputs, nIn)
	b.outputs = growFloat8(b.outputs, nOut)
}

func (b *floatBuffer) side(input bool) []pgtype.Float8 {
	if input {
		return b.inputs
	}
	return b.outputs
}

func growFloat8(s []pgtype.Float8, n int) []pgtype.Float8 {
	for len(s) < n {
		s = append(s, pgtype.Float8{})
	}
	return s
}

// toFloat8 parses a cell into an optional double.
func toFloat8(s string) (pgtype.Float8, table.CellStatus) {
	f, st := table.ParseDouble(s)
	if st != table.CellNumeric {
		return pgtype.Float8{}, st
	}
	return pgtype.Float8{Float64: f, Valid: true}, st
}

// toInt4 parses a cell into an optional 32-bit integer. Values outside the
// int32 range are not numeric.
func toInt4(s string) (pgtype.Int4, table.CellStatus) {
	i, st := table.ParseInt(s)
	if st != table.CellNumeric {
		return pgtype.Int4{}, st
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return pgtype.Int4{}, table.CellNotNumeric
	}
	return pgtype.Int4{Int32: int32(i), Valid: true}, st
}

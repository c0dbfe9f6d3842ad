package codec

import (
	"log/slog"
	"strings"

	"github.com/JonMunkholm/modelcsv/internal/keywords"
	"github.com/JonMunkholm/modelcsv/internal/model"
	"github.com/JonMunkholm/modelcsv/internal/table"
)

// Reader restores a definition and samples from one table with a forward
// scan. A Reader is single-use and not safe for concurrent use. After an
// error the partial results stay readable but should be discarded.
type Reader struct {
	t    *table.Table
	opts Options
	kw   *keywords.Registry
	log  *slog.Logger

	row int

	// Counts are -1 until known. fixed marks counts declared by the table.
	nIn, nOut         int
	inFixed, outFixed bool

	def  *model.DataDefinition
	set  *model.SampledDataSet
	cols ColumnSet

	mapped map[int]bool
	minCol int

	minBuf, maxBuf floatBuffer
}

// NewReader returns a Reader positioned at the first row of t.
func NewReader(t *table.Table, opts Options) *Reader {
	opts = opts.normalized()
	return &Reader{
		t:      t,
		opts:   opts,
		kw:     opts.Keywords,
		log:    opts.Logger,
		nIn:    -1,
		nOut:   -1,
		minCol: -1,
	}
}

// UseDefinition seeds the reader with a copy of def. Its lengths count as
// known for column inference but may be overridden by the table.
func (r *Reader) UseDefinition(def *model.DataDefinition) {
	if def == nil {
		return
	}
	r.def = def.Clone()
	r.nIn, r.nOut = def.InputLength(), def.OutputLength()
}

// UseData makes RestoreData append to set when its lengths match.
func (r *Reader) UseData(set *model.SampledDataSet) {
	r.set = set
}

// Position returns the row the next scan starts at.
func (r *Reader) Position() int { return r.row }

// Seek moves the cursor to row.
func (r *Reader) Seek(row int) {
	if row < 0 {
		row = 0
	}
	r.row = row
}

// InputLength returns the known number of inputs, or -1.
func (r *Reader) InputLength() int { return r.nIn }

// OutputLength returns the known number of outputs, or -1.
func (r *Reader) OutputLength() int { return r.nOut }

// Columns returns the resolved input and output columns. Both are empty
// until columns have been resolved.
func (r *Reader) Columns() (inputs, outputs []ColumnDefinition) {
	if !r.cols.Resolved() {
		return nil, nil
	}
	return r.cols.Inputs(), r.cols.Outputs()
}

// Definition returns the restored definition. Unknown counts read as zero.
func (r *Reader) Definition() *model.DataDefinition {
	if r.def == nil {
		r.def = model.EnsureInitialized(nil, max(r.nIn, 0), max(r.nOut, 0))
	}
	return r.def
}

// Data returns the restored samples.
func (r *Reader) Data() *model.SampledDataSet {
	if r.set == nil {
		r.set = model.NewSampledDataSet(max(r.nIn, 0), max(r.nOut, 0))
	}
	return r.set
}

// RestoreDefinition scans forward from the cursor, applying every definition
// row to the definition. It stops with the cursor on the data keyword, on
// the first numeric row, or at the end of the table.
func (r *Reader) RestoreDefinition() error {
	r.minBuf, r.maxBuf = floatBuffer{}, floatBuffer{}

	for r.row < r.t.RowCount() {
		row := r.row
		c0 := r.t.FirstNonEmptyColumn(row, 0)
		if c0 < 0 {
			r.row++
			continue
		}
		cell := r.t.Value(row, c0)
		kind := r.kw.Classify(cell)

		var err error
		switch {
		case kind.IsComment():
			r.row++
		case kind.IsData():
			return r.finishDefinition()
		case kind.IsSingleValue():
			err = r.readCount(row, c0, kind)
		case kind == keywords.ElementTypes:
			err = r.readTypes(row, c0)
		case kind == keywords.ElementIndices:
			err = r.readIndices(row, c0)
		case kind.IsAttribute():
			err = r.readAttribute(row, c0, kind)
		default:
			if isNumber(cell) {
				return r.finishDefinition()
			}
			r.log.Warn("skipping unrecognized content", "row", row+1, "column", c0+1, "value", cell)
			r.row++
		}
		if err != nil {
			return err
		}
	}
	return r.finishDefinition()
}

func (r *Reader) finishDefinition() error {
	if r.cols.Len() > 0 {
		if err := r.resolve(r.row, nil); err != nil {
			return err
		}
	}
	if r.nIn >= 0 || r.nOut >= 0 {
		r.def = model.EnsureInitialized(r.def, r.nIn, r.nOut)
	}
	if r.def == nil || (!r.minBuf.seen && !r.maxBuf.seen) {
		return nil
	}

	r.minBuf.ensure(len(r.def.Inputs), len(r.def.Outputs))
	r.maxBuf.ensure(len(r.def.Inputs), len(r.def.Outputs))
	for i := range r.def.Inputs {
		if lo, hi := r.minBuf.inputs[i], r.maxBuf.inputs[i]; lo.Valid && hi.Valid {
			r.def.Inputs[i].SetBounds(lo.Float64, hi.Float64)
		}
	}
	for i := range r.def.Outputs {
		if lo, hi := r.minBuf.outputs[i], r.maxBuf.outputs[i]; lo.Valid && hi.Valid {
			r.def.Outputs[i].SetBounds(lo.Float64, hi.Float64)
		}
	}
	return nil
}

// valueRow locates the values belonging to the keyword at (row, c0): the
// same row when it holds anything right of the keyword, otherwise the next
// row. vr is -1 when there are no values. next is the row after the block.
func (r *Reader) valueRow(row, c0 int) (vr int, sameRow bool, next int) {
	if r.t.FirstNonEmptyColumn(row, c0+1) >= 0 {
		return row, true, row + 1
	}
	nr := row + 1
	c := r.t.FirstNonEmptyColumn(nr, 0)
	if c < 0 {
		return -1, false, row + 1
	}
	if v := r.t.Value(nr, c); r.isKeyRow(v, c, c0) {
		return -1, false, row + 1
	}
	return nr, false, nr + 1
}

// isKeyRow reports whether a row whose first cell v sits at column c starts
// a new block rather than holding the values of the keyword at column c0.
// In the next-row layout the following row always holds the values, so
// element names such as "Data" are read as values. Otherwise keyword text
// counts as a value only in a mapped element column right of the keyword.
func (r *Reader) isKeyRow(v string, c, c0 int) bool {
	if !r.opts.KeyAndDataInSameRow {
		return false
	}
	if !r.kw.IsDefinitionOrDataKey(v) && !r.kw.IsCommentKey(v) {
		return false
	}
	return c <= c0 || !r.mapped[c]
}

// valueCells returns the non-empty value cells of the keyword at (row, c0)
// keyed by column.
func (r *Reader) valueCells(row, c0 int) (cells map[int]string, vr, next int) {
	vr, same, next := r.valueRow(row, c0)
	cells = map[int]string{}
	if vr < 0 {
		return cells, vr, next
	}
	from := 0
	if same {
		from = c0 + 1
	}
	for c := r.t.FirstNonEmptyColumn(vr, from); c >= 0; c = r.t.FirstNonEmptyColumn(vr, c+1) {
		cells[c] = r.t.Value(vr, c)
	}
	return cells, vr, next
}

func (r *Reader) readCount(row, c0 int, kind keywords.Kind) error {
	cells, vr, next := r.valueCells(row, c0)
	if vr < 0 {
		return structuralf(row, c0, "%s has no value", r.kw.Text(kind))
	}
	col := sortedKeys(cells)[0]
	n, st := table.ParseInt(cells[col])
	if st != table.CellNumeric || n < 0 {
		return structuralf(vr, col, "%s value %q is not a non-negative integer", r.kw.Text(kind), cells[col])
	}
	if err := r.setLength(kind == keywords.NumInputs, n, vr, col, kind); err != nil {
		return err
	}
	r.row = next
	return nil
}

func (r *Reader) readTypes(row, c0 int) error {
	cells, vr, next := r.valueCells(row, c0)
	if vr < 0 {
		r.row = next
		return nil
	}
	roles := make(map[int]IO, len(cells))
	for col, v := range cells {
		switch r.kw.Classify(v) {
		case keywords.Input:
			roles[col] = IOInput
		case keywords.Output:
			roles[col] = IOOutput
		default:
			return structuralf(vr, col, "unknown element type %q", v)
		}
	}
	if err := r.cols.AddTypes(vr, roles); err != nil {
		return err
	}

	nIn, nOut := 0, 0
	for _, d := range r.cols.Definitions() {
		switch d.IO {
		case IOInput:
			nIn++
		case IOOutput:
			nOut++
		}
	}
	if err := r.setLength(true, nIn, row, c0, keywords.ElementTypes); err != nil {
		return err
	}
	if err := r.setLength(false, nOut, row, c0, keywords.ElementTypes); err != nil {
		return err
	}
	r.row = next
	return nil
}

func (r *Reader) readIndices(row, c0 int) error {
	cells, vr, next := r.valueCells(row, c0)
	if vr < 0 {
		r.row = next
		return nil
	}
	elements := make(map[int]int, len(cells))
	for col, v := range cells {
		n, st := table.ParseInt(v)
		if st != table.CellNumeric || n < 0 {
			return structuralf(vr, col, "element index %q is not a non-negative integer", v)
		}
		elements[col] = n
	}
	if err := r.cols.AddIndices(vr, elements); err != nil {
		return err
	}
	r.row = next
	return nil
}

// setLength records a count declared by the table. A second declaration
// must agree with the first.
func (r *Reader) setLength(input bool, n, row, col int, source keywords.Kind) error {
	cur, fixed, side := &r.nIn, &r.inFixed, "inputs"
	if !input {
		cur, fixed, side = &r.nOut, &r.outFixed, "outputs"
	}
	if *fixed && *cur != n {
		return structuralf(row, col, "%s declares %d %s but %d were declared before", r.kw.Text(source), n, side, *cur)
	}
	*cur, *fixed = n, true
	if input {
		r.def = model.EnsureInitialized(r.def, n, -1)
	} else {
		r.def = model.EnsureInitialized(r.def, -1, n)
	}
	return nil
}

// resolve makes sure the column mapping is current. Without any column
// definitions the mapping is inferred positionally from the known counts,
// starting at the column returned by start.
func (r *Reader) resolve(row int, start func() int) error {
	if r.cols.Len() == 0 {
		if r.nIn < 0 || r.nOut < 0 {
			return &ResolutionError{Row: row, Msg: "no element types given and element counts unknown"}
		}
		col := 0
		if r.nIn+r.nOut > 0 {
			col = -1
			if start != nil {
				col = start()
			}
			if col < 0 {
				return &ResolutionError{Row: row, Msg: "no data row to infer element columns from"}
			}
		}
		r.cols.Infer(col, r.nIn, r.nOut)
	}

	if r.cols.Resolved() && r.mapped != nil && r.nIn == len(r.cols.Inputs()) && r.nOut == len(r.cols.Outputs()) {
		return nil
	}
	if err := r.cols.Resolve(row, r.nIn, r.nOut); err != nil {
		return err
	}

	r.nIn, r.nOut = len(r.cols.Inputs()), len(r.cols.Outputs())
	r.def = model.EnsureInitialized(r.def, r.nIn, r.nOut)
	r.def.Reindex()

	r.mapped = make(map[int]bool, r.cols.Len())
	r.minCol = -1
	for _, d := range r.cols.Definitions() {
		r.mapped[d.Column] = true
		if r.minCol < 0 || d.Column < r.minCol {
			r.minCol = d.Column
		}
	}
	return nil
}

// firstDataColumn looks ahead from row for the first data row and returns
// the column of its first cell, or -1. Rows after the data keyword are
// preferred; without a data keyword the first numeric row counts.
func (r *Reader) firstDataColumn(row int) int {
	n := r.t.RowCount()
	for i := row; i < n; i++ {
		c0 := r.t.FirstNonEmptyColumn(i, 0)
		if c0 < 0 || !r.kw.IsDataKey(r.t.Value(i, c0)) {
			continue
		}
		if c := r.t.FirstNonEmptyColumn(i, c0+1); c >= 0 {
			return c
		}
		for j := i + 1; j < n; j++ {
			c := r.t.FirstNonEmptyColumn(j, 0)
			if c < 0 || r.kw.IsCommentKey(r.t.Value(j, c)) {
				continue
			}
			if isNumber(r.t.Value(j, c)) {
				return c
			}
			return -1
		}
		return -1
	}

	for i := row; i < n; i++ {
		if c := r.t.FirstNonEmptyColumn(i, 0); c >= 0 && isNumber(r.t.Value(i, c)) {
			return c
		}
	}
	return -1
}

func (r *Reader) readAttribute(row, c0 int, kind keywords.Kind) error {
	err := r.resolve(row, func() int {
		if c := r.firstDataColumn(row); c >= 0 {
			return c
		}
		vr, same, _ := r.valueRow(row, c0)
		switch {
		case vr < 0:
			return -1
		case same:
			return r.t.FirstNonEmptyColumn(row, c0+1)
		}
		return r.t.FirstNonEmptyColumn(vr, 0)
	})
	if err != nil {
		return err
	}
	vr, same, next := r.valueRow(row, c0)
	r.row = next
	if vr < 0 {
		return nil
	}

	// Values written beside the keyword may sit one block to the right of
	// the mapped columns when those start at or before the keyword.
	shift := 0
	if same && r.minCol >= 0 && r.minCol <= c0 {
		shift = c0 + 1 - r.minCol
	}

	switch kind {
	case keywords.MinimalValues:
		r.minBuf.seen = true
	case keywords.MaximalValues:
		r.maxBuf.seen = true
	}
	r.minBuf.ensure(r.nIn, r.nOut)
	r.maxBuf.ensure(r.nIn, r.nOut)

	for _, d := range r.cols.Inputs() {
		col := d.Column + shift
		if err := r.assign(kind, true, d.Element, r.t.Value(vr, col), vr, col); err != nil {
			return err
		}
	}
	for _, d := range r.cols.Outputs() {
		col := d.Column + shift
		if err := r.assign(kind, false, d.Element, r.t.Value(vr, col), vr, col); err != nil {
			return err
		}
	}
	return nil
}

// assign stores one attribute cell on element idx. Blank cells leave the
// facet undefined.
func (r *Reader) assign(kind keywords.Kind, input bool, idx int, v string, row, col int) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	if kind.IsInputOnly() && !input {
		return structuralf(row, col, "%s given for output element %d", r.kw.Text(kind), idx)
	}

	e := r.def.Common(input, idx)
	switch kind {
	case keywords.Names:
		e.Name = v
		return nil
	case keywords.Titles:
		e.Title = v
		return nil
	case keywords.Descriptions:
		e.Description = v
		return nil
	case keywords.OptimizationIndices:
		n, st := toInt4(v)
		if st != table.CellNumeric {
			return structuralf(row, col, "%s value %q is not an integer", r.kw.Text(kind), v)
		}
		r.def.Inputs[idx].SetOptimizationIndex(int(n.Int32))
		return nil
	}

	f, st := toFloat8(v)
	if st != table.CellNumeric {
		return structuralf(row, col, "%s value %q is not a number", r.kw.Text(kind), v)
	}
	switch kind {
	case keywords.MinimalValues:
		r.minBuf.side(input)[idx] = f
	case keywords.MaximalValues:
		r.maxBuf.side(input)[idx] = f
	case keywords.ScalingLengths:
		e.SetScalingLength(f.Float64)
	case keywords.TargetValues:
		e.SetTargetValue(f.Float64)
	case keywords.DefaultValues:
		r.def.Inputs[idx].SetDefaultValue(f.Float64)
	case keywords.DiscretizationSteps:
		r.def.Inputs[idx].SetDiscretizationStep(f.Float64)
	}
	return nil
}

func isNumber(s string) bool {
	_, st := table.ParseDouble(s)
	return st == table.CellNumeric
}

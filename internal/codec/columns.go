package codec

import (
	"fmt"
	"sort"
)

// IO is the role of a column.
type IO int

const (
	IOUnknown IO = iota
	IOInput
	IOOutput
)

func (io IO) String() string {
	switch io {
	case IOInput:
		return "input"
	case IOOutput:
		return "output"
	}
	return "unknown"
}

// ColumnDefinition maps one physical column to one element.
type ColumnDefinition struct {
	Column   int
	Sequence int
	IO       IO
	Element  int
}

// FullyDefined reports whether the column, role and element are all known.
func (c ColumnDefinition) FullyDefined() bool {
	return c.Column >= 0 && c.Element >= 0 && c.IO != IOUnknown
}

// ColumnSet collects column definitions from marker rows and partitions them
// into input and output columns ordered by element index. The partition is
// cached until the raw list changes.
//
// The zero value is an empty, unresolved set.
type ColumnSet struct {
	defs       []ColumnDefinition
	hasIndices bool

	resolved bool
	nIn      int
	nOut     int
	inputs   []ColumnDefinition
	outputs  []ColumnDefinition
}

// Len returns the number of raw column definitions.
func (s *ColumnSet) Len() int { return len(s.defs) }

// Definitions returns a copy of the raw list in discovery order.
func (s *ColumnSet) Definitions() []ColumnDefinition {
	return append([]ColumnDefinition(nil), s.defs...)
}

// Inputs returns the input columns of the last successful Resolve.
func (s *ColumnSet) Inputs() []ColumnDefinition { return s.inputs }

// Outputs returns the output columns of the last successful Resolve.
func (s *ColumnSet) Outputs() []ColumnDefinition { return s.outputs }

// Resolved reports whether a partition is cached and still current.
func (s *ColumnSet) Resolved() bool { return s.resolved }

// Reset empties the set.
func (s *ColumnSet) Reset() { *s = ColumnSet{} }

func (s *ColumnSet) lookup(column int) *ColumnDefinition {
	for i := range s.defs {
		if s.defs[i].Column == column {
			return &s.defs[i]
		}
	}
	s.defs = append(s.defs, ColumnDefinition{Column: column, Sequence: len(s.defs), Element: -1})
	return &s.defs[len(s.defs)-1]
}

// AddTypes records the role of each column in roles. Re-declaring a column
// with the opposite role is a StructuralError at row.
func (s *ColumnSet) AddTypes(row int, roles map[int]IO) error {
	for _, col := range sortedKeys(roles) {
		d := s.lookup(col)
		if d.IO != IOUnknown && d.IO != roles[col] {
			return structuralf(row, col, "column re-declared as %s, was %s", roles[col], d.IO)
		}
		d.IO = roles[col]
	}
	s.resolved = false
	return nil
}

// AddIndices records the element index of each column in elements.
func (s *ColumnSet) AddIndices(row int, elements map[int]int) error {
	for _, col := range sortedKeys(elements) {
		if elements[col] < 0 {
			return structuralf(row, col, "negative element index %d", elements[col])
		}
		d := s.lookup(col)
		if d.Element >= 0 && d.Element != elements[col] {
			return structuralf(row, col, "column re-declared as element %d, was %d", elements[col], d.Element)
		}
		d.Element = elements[col]
	}
	s.hasIndices = true
	s.resolved = false
	return nil
}

// Infer replaces the set with nIn input columns followed by nOut output
// columns starting at column start.
func (s *ColumnSet) Infer(start, nIn, nOut int) {
	s.Reset()
	for i := 0; i < nIn; i++ {
		s.defs = append(s.defs, ColumnDefinition{Column: start + i, Sequence: i, IO: IOInput, Element: i})
	}
	for j := 0; j < nOut; j++ {
		s.defs = append(s.defs, ColumnDefinition{Column: start + nIn + j, Sequence: nIn + j, IO: IOOutput, Element: j})
	}
	s.hasIndices = true
	s.resolved = false
}

// Resolve completes and partitions the raw list. Known counts (>= 0) fill in
// missing roles and are checked against the result. Columns without an
// explicit element index are numbered per role in column order.
func (s *ColumnSet) Resolve(row, nIn, nOut int) error {
	if s.resolved && s.nIn == nIn && s.nOut == nOut {
		return nil
	}

	defs := append([]ColumnDefinition(nil), s.defs...)
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].Column < defs[j].Column })

	unknown := 0
	for _, d := range defs {
		if d.IO == IOUnknown {
			unknown++
		}
	}
	switch {
	case unknown == 0:
	case unknown < len(defs):
		return structuralf(row, -1, "%d of %d columns have no element type", unknown, len(defs))
	case nIn < 0 || nOut < 0:
		return &ResolutionError{Row: row, Msg: "element types unknown and element counts not declared"}
	case nIn+nOut != len(defs):
		return structuralf(row, -1, "%d columns declared for %d inputs and %d outputs", len(defs), nIn, nOut)
	default:
		for i := range defs {
			if i < nIn {
				defs[i].IO = IOInput
			} else {
				defs[i].IO = IOOutput
			}
		}
	}

	next := map[IO]int{}
	for i := range defs {
		if defs[i].Element >= 0 {
			continue
		}
		if s.hasIndices {
			return structuralf(row, defs[i].Column, "column has no element index")
		}
		defs[i].Element = next[defs[i].IO]
		next[defs[i].IO]++
	}

	var inputs, outputs []ColumnDefinition
	for _, d := range defs {
		if d.IO == IOInput {
			inputs = append(inputs, d)
		} else {
			outputs = append(outputs, d)
		}
	}
	if err := checkContiguous(row, inputs, nIn, IOInput); err != nil {
		return err
	}
	if err := checkContiguous(row, outputs, nOut, IOOutput); err != nil {
		return err
	}

	s.inputs, s.outputs = inputs, outputs
	if s.inputs == nil {
		s.inputs = []ColumnDefinition{}
	}
	if s.outputs == nil {
		s.outputs = []ColumnDefinition{}
	}
	s.nIn, s.nOut = nIn, nOut
	s.resolved = true
	return nil
}

// checkContiguous sorts defs by element index and verifies the indices run
// 0..len-1 and, when n >= 0, that there are n of them.
func checkContiguous(row int, defs []ColumnDefinition, n int, io IO) error {
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].Element < defs[j].Element })
	for i, d := range defs {
		if d.Element != i {
			if i > 0 && defs[i-1].Element == d.Element {
				return structuralf(row, d.Column, "duplicate %s element index %d", io, d.Element)
			}
			return structuralf(row, d.Column, "%s element indices are not contiguous from 0: found %d at position %d", io, d.Element, i)
		}
	}
	if n >= 0 && len(defs) != n {
		return structuralf(row, -1, "%d %s columns for %d declared %ss", len(defs), io, n, io)
	}
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (c ColumnDefinition) String() string {
	return fmt.Sprintf("col %d -> %s %d", c.Column, c.IO, c.Element)
}

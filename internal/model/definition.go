package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIndexMismatch indicates an element whose index differs from its
	// position in the definition.
	ErrIndexMismatch = errors.New("model: element index does not match position")
	// ErrNegativeLength indicates a negative input or output count.
	ErrNegativeLength = errors.New("model: negative length")
)

// DataDefinition is the ordered set of input and output elements of a model.
// Element indices are contiguous from 0 and equal list positions.
type DataDefinition struct {
	Inputs  []InputElement
	Outputs []OutputElement
}

// NewDataDefinition returns a definition with nIn inputs and nOut outputs,
// each carrying only its index.
func NewDataDefinition(nIn, nOut int) (*DataDefinition, error) {
	d := &DataDefinition{}
	if err := d.SetInputLength(nIn); err != nil {
		return nil, err
	}
	if err := d.SetOutputLength(nOut); err != nil {
		return nil, err
	}
	return d, nil
}

// EnsureInitialized returns def resized to nIn inputs and nOut outputs, or a
// new definition when def is nil. A negative length leaves that side as is.
func EnsureInitialized(def *DataDefinition, nIn, nOut int) *DataDefinition {
	if def == nil {
		def = &DataDefinition{}
	}
	if nIn >= 0 {
		_ = def.SetInputLength(nIn)
	}
	if nOut >= 0 {
		_ = def.SetOutputLength(nOut)
	}
	return def
}

// InputLength returns the number of input elements.
func (d *DataDefinition) InputLength() int {
	if d == nil {
		return 0
	}
	return len(d.Inputs)
}

// OutputLength returns the number of output elements.
func (d *DataDefinition) OutputLength() int {
	if d == nil {
		return 0
	}
	return len(d.Outputs)
}

// SetInputLength grows the inputs with indexed empty elements or truncates
// them to n.
func (d *DataDefinition) SetInputLength(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: inputs %d", ErrNegativeLength, n)
	}
	if n <= len(d.Inputs) {
		d.Inputs = d.Inputs[:n]
		return nil
	}
	for i := len(d.Inputs); i < n; i++ {
		d.Inputs = append(d.Inputs, InputElement{Element: Element{Index: i}})
	}
	return nil
}

// SetOutputLength grows the outputs with indexed empty elements or truncates
// them to n.
func (d *DataDefinition) SetOutputLength(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: outputs %d", ErrNegativeLength, n)
	}
	if n <= len(d.Outputs) {
		d.Outputs = d.Outputs[:n]
		return nil
	}
	for i := len(d.Outputs); i < n; i++ {
		d.Outputs = append(d.Outputs, OutputElement{Element: Element{Index: i}})
	}
	return nil
}

// Validate checks that every element index matches its position.
func (d *DataDefinition) Validate() error {
	for i, e := range d.Inputs {
		if e.Index != i {
			return fmt.Errorf("%w: input %d has index %d", ErrIndexMismatch, i, e.Index)
		}
	}
	for i, e := range d.Outputs {
		if e.Index != i {
			return fmt.Errorf("%w: output %d has index %d", ErrIndexMismatch, i, e.Index)
		}
	}
	return nil
}

// Reindex sets every element index to its position.
func (d *DataDefinition) Reindex() {
	for i := range d.Inputs {
		d.Inputs[i].Index = i
	}
	for i := range d.Outputs {
		d.Outputs[i].Index = i
	}
}

// Clone returns a deep copy of d.
func (d *DataDefinition) Clone() *DataDefinition {
	if d == nil {
		return nil
	}
	return &DataDefinition{
		Inputs:  append([]InputElement(nil), d.Inputs...),
		Outputs: append([]OutputElement(nil), d.Outputs...),
	}
}

// Input returns a pointer to input i, or nil when out of range.
func (d *DataDefinition) Input(i int) *InputElement {
	if i < 0 || i >= len(d.Inputs) {
		return nil
	}
	return &d.Inputs[i]
}

// Output returns a pointer to output i, or nil when out of range.
func (d *DataDefinition) Output(i int) *OutputElement {
	if i < 0 || i >= len(d.Outputs) {
		return nil
	}
	return &d.Outputs[i]
}

// Common returns the shared part of input (isInput) or output element i, or
// nil when out of range.
func (d *DataDefinition) Common(isInput bool, i int) *Element {
	if isInput {
		if e := d.Input(i); e != nil {
			return &e.Element
		}
		return nil
	}
	if e := d.Output(i); e != nil {
		return &e.Element
	}
	return nil
}

// MissingNames returns the positions of inputs and outputs without a name.
// A name of only whitespace counts as missing.
func (d *DataDefinition) MissingNames() (inputs, outputs []int) {
	for i, e := range d.Inputs {
		if blank(e.Name) {
			inputs = append(inputs, i)
		}
	}
	for i, e := range d.Outputs {
		if blank(e.Name) {
			outputs = append(outputs, i)
		}
	}
	return inputs, outputs
}

// EnsureNames gives every unnamed element a generated name, x<i+1> for input
// i and y<i+1> for output i. A name already in use is skipped by counting
// upward. It returns the generated names in input-then-output order.
func (d *DataDefinition) EnsureNames() []string {
	used := make(map[string]bool, len(d.Inputs)+len(d.Outputs))
	for _, e := range d.Inputs {
		used[e.Name] = true
	}
	for _, e := range d.Outputs {
		used[e.Name] = true
	}

	var generated []string
	name := func(prefix string, n int) string {
		for ; ; n++ {
			s := fmt.Sprintf("%s%d", prefix, n)
			if !used[s] {
				used[s] = true
				generated = append(generated, s)
				return s
			}
		}
	}

	for i := range d.Inputs {
		if blank(d.Inputs[i].Name) {
			d.Inputs[i].Name = name("x", i+1)
		}
	}
	for i := range d.Outputs {
		if blank(d.Outputs[i].Name) {
			d.Outputs[i].Name = name("y", i+1)
		}
	}
	return generated
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

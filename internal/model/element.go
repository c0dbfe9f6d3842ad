// Package model holds the in-memory form of a model data file: the element
// definitions that describe inputs and outputs and the sampled records that
// pair input vectors with output vectors.
package model

// Element carries the identity and facets shared by inputs and outputs.
// A facet whose Defined flag is false holds its zero value.
type Element struct {
	Index       int
	Name        string
	Title       string
	Description string

	Min           float64
	Max           float64
	BoundsDefined bool

	ScalingLength        float64
	ScalingLengthDefined bool

	TargetValue        float64
	TargetValueDefined bool
}

// SetBounds defines both bounds.
func (e *Element) SetBounds(min, max float64) {
	e.Min, e.Max, e.BoundsDefined = min, max, true
}

// ClearBounds undefines both bounds.
func (e *Element) ClearBounds() {
	e.Min, e.Max, e.BoundsDefined = 0, 0, false
}

func (e *Element) SetScalingLength(v float64) {
	e.ScalingLength, e.ScalingLengthDefined = v, true
}

func (e *Element) ClearScalingLength() {
	e.ScalingLength, e.ScalingLengthDefined = 0, false
}

func (e *Element) SetTargetValue(v float64) {
	e.TargetValue, e.TargetValueDefined = v, true
}

func (e *Element) ClearTargetValue() {
	e.TargetValue, e.TargetValueDefined = 0, false
}

// InputElement is an input parameter of the model.
type InputElement struct {
	Element

	DefaultValue        float64
	DefaultValueDefined bool

	DiscretizationStep        float64
	DiscretizationStepDefined bool

	OptimizationIndex        int
	OptimizationIndexDefined bool
}

func (e *InputElement) SetDefaultValue(v float64) {
	e.DefaultValue, e.DefaultValueDefined = v, true
}

func (e *InputElement) ClearDefaultValue() {
	e.DefaultValue, e.DefaultValueDefined = 0, false
}

func (e *InputElement) SetDiscretizationStep(v float64) {
	e.DiscretizationStep, e.DiscretizationStepDefined = v, true
}

func (e *InputElement) ClearDiscretizationStep() {
	e.DiscretizationStep, e.DiscretizationStepDefined = 0, false
}

func (e *InputElement) SetOptimizationIndex(v int) {
	e.OptimizationIndex, e.OptimizationIndexDefined = v, true
}

func (e *InputElement) ClearOptimizationIndex() {
	e.OptimizationIndex, e.OptimizationIndexDefined = 0, false
}

// OutputElement is an output value of the model. Outputs have no default,
// discretization step or optimization index.
type OutputElement struct {
	Element
}

// Package keywords holds the configurable keyword strings that mark rows of
// a model data file and classifies cells against them.
//
// Each structural role is a Kind. The text for every Kind can be changed
// independently; classification always returns a Kind so callers dispatch
// with a switch instead of comparing strings.
package keywords

import "fmt"

// Kind identifies the structural role of a keyword.
type Kind int

const (
	None Kind = iota
	NumInputs
	NumOutputs
	Names
	Titles
	Descriptions
	ElementTypes
	ElementIndices
	MinimalValues
	MaximalValues
	ScalingLengths
	DefaultValues
	DiscretizationSteps
	TargetValues
	OptimizationIndices
	Comment
	Data
	Input
	Output
)

// Kinds lists every keyword kind, in file order.
var Kinds = []Kind{
	NumInputs, NumOutputs, ElementTypes, ElementIndices, Names, Titles,
	Descriptions, MinimalValues, MaximalValues, ScalingLengths, DefaultValues,
	DiscretizationSteps, TargetValues, OptimizationIndices, Comment, Data,
	Input, Output,
}

var kindNames = map[Kind]string{
	None:                "None",
	NumInputs:           "NumInputs",
	NumOutputs:          "NumOutputs",
	Names:               "Names",
	Titles:              "Titles",
	Descriptions:        "Descriptions",
	ElementTypes:        "ElementTypes",
	ElementIndices:      "ElementIndices",
	MinimalValues:       "MinimalValues",
	MaximalValues:       "MaximalValues",
	ScalingLengths:      "ScalingLengths",
	DefaultValues:       "DefaultValues",
	DiscretizationSteps: "DiscretizationSteps",
	TargetValues:        "TargetValues",
	OptimizationIndices: "OptimizationIndices",
	Comment:             "Comment",
	Data:                "Data",
	Input:               "Input",
	Output:              "Output",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsSingleValue reports whether k introduces a single count value.
func (k Kind) IsSingleValue() bool {
	return k == NumInputs || k == NumOutputs
}

// IsElementType reports whether k is an element-type tag.
func (k Kind) IsElementType() bool {
	return k == Input || k == Output
}

// IsColumnMarker reports whether k introduces a row that maps columns to
// elements.
func (k Kind) IsColumnMarker() bool {
	return k == ElementTypes || k == ElementIndices
}

// IsAttribute reports whether k introduces one value per element.
func (k Kind) IsAttribute() bool {
	switch k {
	case Names, Titles, Descriptions, MinimalValues, MaximalValues,
		ScalingLengths, DefaultValues, DiscretizationSteps, TargetValues,
		OptimizationIndices:
		return true
	}
	return false
}

// IsInputOnly reports whether k names a facet that only input elements have.
func (k Kind) IsInputOnly() bool {
	return k == DefaultValues || k == DiscretizationSteps || k == OptimizationIndices
}

// IsDefinition reports whether k belongs to the definition block.
func (k Kind) IsDefinition() bool {
	return k.IsSingleValue() || k.IsColumnMarker() || k.IsAttribute()
}

// IsData reports whether k is the data marker.
func (k Kind) IsData() bool {
	return k == Data
}

// IsDefinitionOrData reports whether k starts a definition or data row.
func (k Kind) IsDefinitionOrData() bool {
	return k.IsDefinition() || k.IsData()
}

// IsComment reports whether k marks a comment row.
func (k Kind) IsComment() bool {
	return k == Comment
}

package codec

import (
	"strconv"

	"github.com/JonMunkholm/modelcsv/internal/keywords"
	"github.com/JonMunkholm/modelcsv/internal/model"
	"github.com/JonMunkholm/modelcsv/internal/table"
)

// attributeRow renders one per-element attribute. Input-only attributes set
// input and leave common nil.
type attributeRow struct {
	kind   keywords.Kind
	common func(e *model.Element) (string, bool)
	input  func(e *model.InputElement) (string, bool)
}

// attributeRows is the write order of the optional attribute rows.
var attributeRows = []attributeRow{
	{kind: keywords.Names, common: func(e *model.Element) (string, bool) { return e.Name, e.Name != "" }},
	{kind: keywords.Titles, common: func(e *model.Element) (string, bool) { return e.Title, e.Title != "" }},
	{kind: keywords.Descriptions, common: func(e *model.Element) (string, bool) { return e.Description, e.Description != "" }},
	{kind: keywords.MinimalValues, common: func(e *model.Element) (string, bool) { return optFloat(e.Min, e.BoundsDefined) }},
	{kind: keywords.MaximalValues, common: func(e *model.Element) (string, bool) { return optFloat(e.Max, e.BoundsDefined) }},
	{kind: keywords.ScalingLengths, common: func(e *model.Element) (string, bool) {
		return optFloat(e.ScalingLength, e.ScalingLengthDefined)
	}},
	{kind: keywords.DefaultValues, input: func(e *model.InputElement) (string, bool) {
		return optFloat(e.DefaultValue, e.DefaultValueDefined)
	}},
	{kind: keywords.DiscretizationSteps, input: func(e *model.InputElement) (string, bool) {
		return optFloat(e.DiscretizationStep, e.DiscretizationStepDefined)
	}},
	{kind: keywords.TargetValues, common: func(e *model.Element) (string, bool) {
		return optFloat(e.TargetValue, e.TargetValueDefined)
	}},
	{kind: keywords.OptimizationIndices, input: func(e *model.InputElement) (string, bool) {
		if !e.OptimizationIndexDefined {
			return "", false
		}
		return strconv.Itoa(e.OptimizationIndex), true
	}},
}

// values returns one cell per element, inputs then outputs, and whether any
// element defines the attribute.
func (a attributeRow) values(def *model.DataDefinition) ([]string, bool) {
	out := make([]string, 0, def.InputLength()+def.OutputLength())
	defined := false
	for i := range def.Inputs {
		var v string
		var ok bool
		if a.input != nil {
			v, ok = a.input(&def.Inputs[i])
		} else {
			v, ok = a.common(&def.Inputs[i].Element)
		}
		out = append(out, v)
		defined = defined || ok
	}
	for i := range def.Outputs {
		var v string
		var ok bool
		if a.common != nil {
			v, ok = a.common(&def.Outputs[i].Element)
		}
		out = append(out, v)
		defined = defined || ok
	}
	return out, defined
}

func optFloat(v float64, ok bool) (string, bool) {
	if !ok {
		return "", false
	}
	return table.FormatDouble(v), true
}

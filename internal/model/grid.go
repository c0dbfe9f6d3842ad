package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/JonMunkholm/modelcsv/internal/table"
)

// Attribute identifies one editable column of an element grid.
type Attribute int

const (
	AttrName Attribute = iota
	AttrTitle
	AttrDescription
	AttrMin
	AttrMax
	AttrScalingLength
	AttrDefaultValue
	AttrDiscretizationStep
	AttrTargetValue
	AttrOptimizationIndex
)

// Attributes lists the grid columns in display order.
var Attributes = []Attribute{
	AttrName, AttrTitle, AttrDescription, AttrMin, AttrMax, AttrScalingLength,
	AttrDefaultValue, AttrDiscretizationStep, AttrTargetValue, AttrOptimizationIndex,
}

var attributeNames = map[Attribute]string{
	AttrName:               "Name",
	AttrTitle:              "Title",
	AttrDescription:        "Description",
	AttrMin:                "Min",
	AttrMax:                "Max",
	AttrScalingLength:      "ScalingLength",
	AttrDefaultValue:       "DefaultValue",
	AttrDiscretizationStep: "DiscretizationStep",
	AttrTargetValue:        "TargetValue",
	AttrOptimizationIndex:  "OptimizationIndex",
}

func (a Attribute) String() string {
	if s, ok := attributeNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Attribute(%d)", int(a))
}

// InputOnly reports whether only input elements carry a.
func (a Attribute) InputOnly() bool {
	return a == AttrDefaultValue || a == AttrDiscretizationStep || a == AttrOptimizationIndex
}

// ParseAttribute returns the Attribute named s.
func ParseAttribute(s string) (Attribute, error) {
	for a, name := range attributeNames {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAttribute, s)
}

var (
	ErrUnknownAttribute   = errors.New("model: unknown attribute")
	ErrInputOnlyAttribute = errors.New("model: attribute applies to inputs only")
	ErrNoSuchElement      = errors.New("model: no such element")
	ErrInvalidValue       = errors.New("model: invalid attribute value")
)

// GridHeader returns the column captions of an element grid: the index
// column followed by every attribute.
func GridHeader() []string {
	h := []string{"Index"}
	for _, a := range Attributes {
		h = append(h, a.String())
	}
	return h
}

// InputGridRow renders e as display strings matching GridHeader.
func InputGridRow(e InputElement) []string {
	row := commonRow(e.Element)
	row[1+int(AttrDefaultValue)] = optFloat(e.DefaultValue, e.DefaultValueDefined)
	row[1+int(AttrDiscretizationStep)] = optFloat(e.DiscretizationStep, e.DiscretizationStepDefined)
	row[1+int(AttrOptimizationIndex)] = optInt(e.OptimizationIndex, e.OptimizationIndexDefined)
	return row
}

// OutputGridRow renders e as display strings matching GridHeader. Input-only
// columns are empty.
func OutputGridRow(e OutputElement) []string {
	return commonRow(e.Element)
}

func commonRow(e Element) []string {
	row := make([]string, 1+len(Attributes))
	row[0] = strconv.Itoa(e.Index)
	row[1+int(AttrName)] = e.Name
	row[1+int(AttrTitle)] = e.Title
	row[1+int(AttrDescription)] = e.Description
	row[1+int(AttrMin)] = optFloat(e.Min, e.BoundsDefined)
	row[1+int(AttrMax)] = optFloat(e.Max, e.BoundsDefined)
	row[1+int(AttrScalingLength)] = optFloat(e.ScalingLength, e.ScalingLengthDefined)
	row[1+int(AttrTargetValue)] = optFloat(e.TargetValue, e.TargetValueDefined)
	return row
}

func optFloat(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return table.FormatDouble(v)
}

func optInt(v int, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.Itoa(v)
}

// SetAttribute parses text into attribute a of input (isInput) or output
// element index. Empty text clears the facet. Editing one bound of an
// element without bounds defines both at the same value; clearing either
// bound clears both.
func (d *DataDefinition) SetAttribute(isInput bool, index int, a Attribute, text string) error {
	e := d.Common(isInput, index)
	if e == nil {
		return fmt.Errorf("%w: index %d", ErrNoSuchElement, index)
	}
	if a.InputOnly() && !isInput {
		return fmt.Errorf("%w: %s", ErrInputOnlyAttribute, a)
	}

	switch a {
	case AttrName:
		e.Name = text
		return nil
	case AttrTitle:
		e.Title = text
		return nil
	case AttrDescription:
		e.Description = text
		return nil
	case AttrOptimizationIndex:
		v, st := table.ParseInt(text)
		switch st {
		case table.CellUndefined:
			d.Inputs[index].ClearOptimizationIndex()
		case table.CellNumeric:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return fmt.Errorf("%w: %s %q out of range", ErrInvalidValue, a, text)
			}
			d.Inputs[index].SetOptimizationIndex(v)
		default:
			return fmt.Errorf("%w: %s %q", ErrInvalidValue, a, text)
		}
		return nil
	}

	v, st := table.ParseDouble(text)
	if st == table.CellNotNumeric {
		return fmt.Errorf("%w: %s %q", ErrInvalidValue, a, text)
	}
	unset := st == table.CellUndefined

	switch a {
	case AttrMin, AttrMax:
		switch {
		case unset:
			e.ClearBounds()
		case !e.BoundsDefined:
			e.SetBounds(v, v)
		case a == AttrMin:
			e.Min = v
		default:
			e.Max = v
		}
	case AttrScalingLength:
		if unset {
			e.ClearScalingLength()
		} else {
			e.SetScalingLength(v)
		}
	case AttrTargetValue:
		if unset {
			e.ClearTargetValue()
		} else {
			e.SetTargetValue(v)
		}
	case AttrDefaultValue:
		if unset {
			d.Inputs[index].ClearDefaultValue()
		} else {
			d.Inputs[index].SetDefaultValue(v)
		}
	case AttrDiscretizationStep:
		if unset {
			d.Inputs[index].ClearDiscretizationStep()
		} else {
			d.Inputs[index].SetDiscretizationStep(v)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownAttribute, int(a))
	}
	return nil
}

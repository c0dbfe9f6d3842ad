package keywords

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Overrides is the content of a keyword file. Every attribute is optional;
// unset attributes keep the current text.
//
//	case_sensitive = false
//	num_inputs     = "NIn"
//	data           = "Samples"
type Overrides struct {
	CaseSensitive       *bool   `hcl:"case_sensitive,optional"`
	NumInputs           *string `hcl:"num_inputs,optional"`
	NumOutputs          *string `hcl:"num_outputs,optional"`
	Names               *string `hcl:"names,optional"`
	Titles              *string `hcl:"titles,optional"`
	Descriptions        *string `hcl:"descriptions,optional"`
	ElementTypes        *string `hcl:"element_types,optional"`
	ElementIndices      *string `hcl:"element_indices,optional"`
	MinimalValues       *string `hcl:"minimal_values,optional"`
	MaximalValues       *string `hcl:"maximal_values,optional"`
	ScalingLengths      *string `hcl:"scaling_lengths,optional"`
	DefaultValues       *string `hcl:"default_values,optional"`
	DiscretizationSteps *string `hcl:"discretization_steps,optional"`
	TargetValues        *string `hcl:"target_values,optional"`
	OptimizationIndices *string `hcl:"optimization_indices,optional"`
	Comment             *string `hcl:"comment,optional"`
	Data                *string `hcl:"data,optional"`
	Input               *string `hcl:"input,optional"`
	Output              *string `hcl:"output,optional"`
}

func (o Overrides) texts() map[Kind]*string {
	return map[Kind]*string{
		NumInputs:           o.NumInputs,
		NumOutputs:          o.NumOutputs,
		Names:               o.Names,
		Titles:              o.Titles,
		Descriptions:        o.Descriptions,
		ElementTypes:        o.ElementTypes,
		ElementIndices:      o.ElementIndices,
		MinimalValues:       o.MinimalValues,
		MaximalValues:       o.MaximalValues,
		ScalingLengths:      o.ScalingLengths,
		DefaultValues:       o.DefaultValues,
		DiscretizationSteps: o.DiscretizationSteps,
		TargetValues:        o.TargetValues,
		OptimizationIndices: o.OptimizationIndices,
		Comment:             o.Comment,
		Data:                o.Data,
		Input:               o.Input,
		Output:              o.Output,
	}
}

// Apply sets every keyword named in o. case_sensitive = true takes effect
// before the texts are applied and case_sensitive = false after them, so
// texts that differ only in case can be set while matching is exact.
func (r *Registry) Apply(o Overrides) error {
	if o.CaseSensitive != nil && *o.CaseSensitive {
		if err := r.SetCaseSensitive(true); err != nil {
			return err
		}
	}

	texts := o.texts()
	for _, k := range Kinds {
		if v := texts[k]; v != nil {
			if err := r.Set(k, *v); err != nil {
				return err
			}
		}
	}

	if o.CaseSensitive != nil && !*o.CaseSensitive {
		if err := r.SetCaseSensitive(false); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile decodes an HCL keyword file and applies it to r.
func (r *Registry) LoadFile(path string) error {
	var o Overrides
	if err := hclsimple.DecodeFile(path, nil, &o); err != nil {
		return fmt.Errorf("decode keyword file %s: %w", path, err)
	}
	if err := r.Apply(o); err != nil {
		return fmt.Errorf("apply keyword file %s: %w", path, err)
	}
	return nil
}

// Decode parses HCL keyword source held in memory. filename is used for
// diagnostics and must end in .hcl.
func Decode(filename string, src []byte) (Overrides, error) {
	var o Overrides
	if err := hclsimple.Decode(filename, src, nil, &o); err != nil {
		return Overrides{}, fmt.Errorf("decode keyword source %s: %w", filename, err)
	}
	return o, nil
}

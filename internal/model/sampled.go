package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrLengthMismatch indicates a sample vector whose length differs from the
// data set's declared length.
var ErrLengthMismatch = errors.New("model: sample length mismatch")

// SampleRecord pairs one input vector with one output vector. A nil vector
// is absent; a NaN component is an absent value.
type SampleRecord struct {
	Inputs  []float64
	Outputs []float64
}

// Empty reports whether the record carries no value at all.
func (r SampleRecord) Empty() bool {
	return allAbsent(r.Inputs) && allAbsent(r.Outputs)
}

func allAbsent(v []float64) bool {
	for _, f := range v {
		if !math.IsNaN(f) {
			return false
		}
	}
	return true
}

// SampledDataSet is an ordered, appendable list of samples sharing fixed
// input and output lengths.
type SampledDataSet struct {
	InputLength  int
	OutputLength int
	Records      []SampleRecord
}

// NewSampledDataSet returns an empty set for nIn inputs and nOut outputs.
func NewSampledDataSet(nIn, nOut int) *SampledDataSet {
	return &SampledDataSet{InputLength: nIn, OutputLength: nOut}
}

// EnsureSampledDataSet returns set when it already matches nIn and nOut. An
// empty set is resized in place; a non-empty set with other lengths is
// replaced by a new empty one.
func EnsureSampledDataSet(set *SampledDataSet, nIn, nOut int) *SampledDataSet {
	switch {
	case set == nil:
		return NewSampledDataSet(nIn, nOut)
	case set.Compatible(nIn, nOut):
		return set
	case len(set.Records) == 0:
		set.InputLength, set.OutputLength = nIn, nOut
		return set
	}
	return NewSampledDataSet(nIn, nOut)
}

// Len returns the number of records.
func (s *SampledDataSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Compatible reports whether the set holds nIn inputs and nOut outputs.
func (s *SampledDataSet) Compatible(nIn, nOut int) bool {
	return s != nil && s.InputLength == nIn && s.OutputLength == nOut
}

// Append adds rec after checking the length of each non-nil vector.
func (s *SampledDataSet) Append(rec SampleRecord) error {
	if rec.Inputs != nil && len(rec.Inputs) != s.InputLength {
		return fmt.Errorf("%w: %d inputs, want %d", ErrLengthMismatch, len(rec.Inputs), s.InputLength)
	}
	if rec.Outputs != nil && len(rec.Outputs) != s.OutputLength {
		return fmt.Errorf("%w: %d outputs, want %d", ErrLengthMismatch, len(rec.Outputs), s.OutputLength)
	}
	s.Records = append(s.Records, rec)
	return nil
}

// Clone returns a deep copy of s.
func (s *SampledDataSet) Clone() *SampledDataSet {
	if s == nil {
		return nil
	}
	c := &SampledDataSet{InputLength: s.InputLength, OutputLength: s.OutputLength}
	if s.Records != nil {
		c.Records = make([]SampleRecord, len(s.Records))
		for i, r := range s.Records {
			c.Records[i] = SampleRecord{Inputs: cloneVec(r.Inputs), Outputs: cloneVec(r.Outputs)}
		}
	}
	return c
}

func cloneVec(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}

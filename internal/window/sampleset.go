package window

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Sample is an owned copy of one (input window, output window) pair.
type Sample struct {
	// Start is the table row index of the first input step.
	Start  int
	Input  [][]float64
	Output []float64
}

// InputEnd is the table row index of the last input step.
func (s Sample) InputEnd() int {
	return s.Start + len(s.Input) - 1
}

// OutputStart is the table row index of the first output step. It equals
// InputEnd.
func (s Sample) OutputStart() int {
	return s.InputEnd()
}

// SampleSet stores all samples of one partition in two flat, pre-sized
// buffers. It is read-only once Extract returns.
type SampleSet struct {
	n, nIn, nOut, nf int

	inputs  []float64 // n * nIn * nf, sample-major then step-major
	outputs []float64 // n * nOut
	starts  []int
}

func newSampleSet(n, nIn, nOut, nf int) *SampleSet {
	return &SampleSet{
		n:       n,
		nIn:     nIn,
		nOut:    nOut,
		nf:      nf,
		inputs:  make([]float64, n*nIn*nf),
		outputs: make([]float64, n*nOut),
		starts:  make([]int, n),
	}
}

func (s *SampleSet) Len() int {
	return s.n
}

func (s *SampleSet) StepsIn() int {
	return s.nIn
}

func (s *SampleSet) StepsOut() int {
	return s.nOut
}

func (s *SampleSet) FeatureCount() int {
	return s.nf
}

// InputShape is (numSamples, nIn, numFeatures).
func (s *SampleSet) InputShape() [3]int {
	return [3]int{s.n, s.nIn, s.nf}
}

// OutputShape is (numSamples, nOut).
func (s *SampleSet) OutputShape() [2]int {
	return [2]int{s.n, s.nOut}
}

// Sample returns an owned copy of sample i.
func (s *SampleSet) Sample(i int) Sample {
	s.check(i)
	in := make([][]float64, s.nIn)
	raw := s.input(i)
	for step := range in {
		in[step] = append([]float64(nil), raw[step*s.nf:(step+1)*s.nf]...)
	}
	return Sample{
		Start:  s.starts[i],
		Input:  in,
		Output: s.Output(i),
	}
}

// Input returns sample i's input window as an nIn x numFeatures matrix.
func (s *SampleSet) Input(i int) *mat.Dense {
	s.check(i)
	return mat.NewDense(s.nIn, s.nf, append([]float64(nil), s.input(i)...))
}

// Output returns a copy of sample i's output window.
func (s *SampleSet) Output(i int) []float64 {
	s.check(i)
	return append([]float64(nil), s.output(i)...)
}

// Outputs stacks every output window into a numSamples x nOut matrix. It
// returns nil for an empty set.
func (s *SampleSet) Outputs() *mat.Dense {
	if s.n == 0 {
		return nil
	}
	return mat.NewDense(s.n, s.nOut, append([]float64(nil), s.outputs...))
}

// FlatInputs stacks every input window, flattened step-major, into a
// numSamples x (nIn*numFeatures) matrix. It returns nil for an empty set.
func (s *SampleSet) FlatInputs() *mat.Dense {
	if s.n == 0 || s.nf == 0 {
		return nil
	}
	return mat.NewDense(s.n, s.nIn*s.nf, append([]float64(nil), s.inputs...))
}

// InputIndex is the table row index of input step `step` of sample i.
func (s *SampleSet) InputIndex(i, step int) int {
	s.check(i)
	return s.starts[i] + step
}

// OutputIndex is the table row index of output step `step` of sample i.
func (s *SampleSet) OutputIndex(i, step int) int {
	s.check(i)
	return s.starts[i] + s.nIn - 1 + step
}

// Equal reports whether both sets hold the same samples in the same order.
func (s *SampleSet) Equal(o *SampleSet) bool {
	if s.InputShape() != o.InputShape() || s.nOut != o.nOut {
		return false
	}
	for i := range s.starts {
		if s.starts[i] != o.starts[i] {
			return false
		}
	}
	return floatsEqual(s.inputs, o.inputs) && floatsEqual(s.outputs, o.outputs)
}

func (s *SampleSet) String() string {
	return fmt.Sprintf("SampleSet(in=%v, out=%v)", s.InputShape(), s.OutputShape())
}

func (s *SampleSet) input(i int) []float64 {
	size := s.nIn * s.nf
	return s.inputs[i*size : (i+1)*size]
}

func (s *SampleSet) output(i int) []float64 {
	return s.outputs[i*s.nOut : (i+1)*s.nOut]
}

func (s *SampleSet) check(i int) {
	if i < 0 || i >= s.n {
		panic(fmt.Sprintf("window: sample index %d out of range [0:%d)", i, s.n))
	}
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

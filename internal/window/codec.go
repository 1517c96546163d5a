package window

import (
	"fmt"
	"io"
	"math"

	xdr "github.com/davecgh/go-xdr/xdr2"
)

const codecVersion uint32 = 1

// wireSampleSet is the XDR (RFC 4506) layout of a SampleSet.
type wireSampleSet struct {
	Version  uint32
	Samples  uint32
	StepsIn  uint32
	StepsOut uint32
	Features uint32
	Starts   []int64
	Inputs   []float64
	Outputs  []float64
}

// Encode writes set to w in XDR so an out-of-process trainer can read the
// tensors without sharing memory with this process.
func Encode(w io.Writer, set *SampleSet) error {
	wire := wireSampleSet{
		Version:  codecVersion,
		Samples:  uint32(set.n),
		StepsIn:  uint32(set.nIn),
		StepsOut: uint32(set.nOut),
		Features: uint32(set.nf),
		Starts:   make([]int64, len(set.starts)),
		Inputs:   set.inputs,
		Outputs:  set.outputs,
	}
	for i, start := range set.starts {
		wire.Starts[i] = int64(start)
	}
	if _, err := xdr.Marshal(w, &wire); err != nil {
		return fmt.Errorf("xdr marshal sample set: %w", err)
	}
	return nil
}

// Decode reads a SampleSet written by Encode and checks that the buffers
// agree with the declared shape.
func Decode(r io.Reader) (*SampleSet, error) {
	var wire wireSampleSet
	if _, err := xdr.Unmarshal(r, &wire); err != nil {
		return nil, fmt.Errorf("xdr unmarshal sample set: %w", err)
	}
	if wire.Version != codecVersion {
		return nil, fmt.Errorf("unsupported sample set version %d", wire.Version)
	}
	if err := ValidateSteps(int(wire.StepsIn), int(wire.StepsOut)); err != nil {
		return nil, fmt.Errorf("sample set header: %w", err)
	}
	inputLen, ok := shapeLen(wire.Samples, wire.StepsIn, wire.Features)
	if !ok {
		return nil, fmt.Errorf("sample set input shape (%d, %d, %d) overflows", wire.Samples, wire.StepsIn, wire.Features)
	}
	outputLen, ok := shapeLen(wire.Samples, wire.StepsOut)
	if !ok {
		return nil, fmt.Errorf("sample set output shape (%d, %d) overflows", wire.Samples, wire.StepsOut)
	}
	n, nIn, nOut, nf := int(wire.Samples), int(wire.StepsIn), int(wire.StepsOut), int(wire.Features)
	if len(wire.Starts) != n || len(wire.Inputs) != inputLen || len(wire.Outputs) != outputLen {
		return nil, fmt.Errorf(
			"sample set buffers do not match shape (%d, %d, %d)/(%d, %d): starts=%d inputs=%d outputs=%d",
			n, nIn, nf, n, nOut, len(wire.Starts), len(wire.Inputs), len(wire.Outputs),
		)
	}
	set := &SampleSet{
		n:       n,
		nIn:     nIn,
		nOut:    nOut,
		nf:      nf,
		inputs:  wire.Inputs,
		outputs: wire.Outputs,
		starts:  make([]int, n),
	}
	if set.inputs == nil {
		set.inputs = []float64{}
	}
	if set.outputs == nil {
		set.outputs = []float64{}
	}
	for i, start := range wire.Starts {
		set.starts[i] = int(start)
	}
	return set, nil
}

// shapeLen multiplies dims, reporting false when the product does not fit an int.
func shapeLen(dims ...uint32) (int, bool) {
	total := uint64(1)
	for _, d := range dims {
		if d != 0 && total > uint64(math.MaxInt)/uint64(d) {
			return 0, false
		}
		total *= uint64(d)
	}
	return int(total), true
}

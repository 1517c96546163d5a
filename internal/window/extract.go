package window

import (
	"github.com/go-sod/seqwin/internal/dataerr"
)

// Source is the row access the extractor needs. Rows are contiguous:
// SourceIndex(i+1) == SourceIndex(i)+1. table.View and *table.Table satisfy it.
type Source interface {
	Len() int
	FeatureCount() int
	ReadFeatures(i int, dst []float64) []float64
	TargetAt(i int) float64
	SourceIndex(i int) int
}

// Count returns the number of samples a partition of length l yields.
func Count(l, nIn, nOut int) int {
	n := l - nIn - nOut + 2
	if n < 0 {
		return 0
	}
	return n
}

// ValidateSteps checks both window lengths are at least one step.
func ValidateSteps(nIn, nOut int) error {
	if nIn < 1 {
		return dataerr.InvalidConfig("nStepsIn", nIn, "must be >= 1")
	}
	if nOut < 1 {
		return dataerr.InvalidConfig("nStepsOut", nOut, "must be >= 1")
	}
	return nil
}

// Extract slides an (nIn, nOut) window over src and returns every complete
// sample in increasing start order.
func Extract(src Source, nIn, nOut int) (*SampleSet, error) {
	if err := ValidateSteps(nIn, nOut); err != nil {
		return nil, err
	}
	l := src.Len()
	set := newSampleSet(Count(l, nIn, nOut), nIn, nOut, src.FeatureCount())

	for i := 0; i+nIn+nOut-1 <= l; i++ {
		set.starts[i] = src.SourceIndex(i)

		in := set.input(i)
		for step := 0; step < nIn; step++ {
			src.ReadFeatures(i+step, in[step*set.nf:(step+1)*set.nf])
		}

		endOfInput := i + nIn
		out := set.output(i)
		for step := 0; step < nOut; step++ {
			out[step] = src.TargetAt(endOfInput - 1 + step)
		}
	}
	return set, nil
}

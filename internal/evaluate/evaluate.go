// Package evaluate aligns a test partition's true output windows with a
// model's predicted windows and scores them.
package evaluate

import (
	"fmt"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/window"
	"gonum.org/v1/gonum/mat"
)

// Evaluate checks that predicted is a numSamples x nOut matrix matching
// truth, aligns every (true, predicted) window pair and computes the
// requested metrics over the selected slice.
//
// A shape disagreement fails with *dataerr.ShapeMismatchError; predictions
// are never truncated or padded, and a non-empty prediction against an empty
// truth set is a mismatch too. When both are empty Evaluate fails with
// dataerr.ErrEmptySampleSet.
func Evaluate(truth *window.SampleSet, predicted mat.Matrix, opts ...Option) (*Result, error) {
	o := defaultOptions
	for _, f := range opts {
		f(&o)
	}

	expected := truth.OutputShape()
	rows, cols := dims(predicted)
	if rows != expected[0] || (rows > 0 && cols != expected[1]) {
		return nil, &dataerr.ShapeMismatchError{
			Expected: []int{expected[0], expected[1]},
			Actual:   []int{rows, cols},
		}
	}
	if truth.Len() == 0 {
		return nil, fmt.Errorf("evaluate: %w", dataerr.ErrEmptySampleSet)
	}

	fns := make(map[string]MetricFn, len(o.metrics))
	for _, name := range o.metrics {
		fn, ok := MetricFor(name)
		if !ok {
			return nil, dataerr.InvalidConfig("metric", name, "unknown metric, available: %v", AvailableMetrics())
		}
		fns[name] = fn
	}
	from, to, err := o.slice.bounds(truth.Len())
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, truth.Len())
	for i := range pairs {
		pairs[i] = Pair{
			Sample:    i,
			Start:     truth.OutputIndex(i, 0),
			True:      truth.Output(i),
			Predicted: mat.Row(nil, i, predicted),
		}
	}

	var yTrue, yPred []float64
	for _, p := range pairs[from:to] {
		yTrue = append(yTrue, p.True...)
		yPred = append(yPred, p.Predicted...)
	}
	metrics := make(map[string]float64, len(fns))
	for name, fn := range fns {
		v, err := fn(yTrue, yPred)
		if err != nil {
			return nil, fmt.Errorf("evaluate metric %s: %w", name, err)
		}
		metrics[name] = v
	}

	return &Result{
		slice:   o.slice,
		shape:   expected,
		metrics: metrics,
		pairs:   pairs,
	}, nil
}

func dims(m mat.Matrix) (r, c int) {
	if m == nil {
		return 0, 0
	}
	if d, ok := m.(*mat.Dense); ok && d == nil {
		return 0, 0
	}
	return m.Dims()
}

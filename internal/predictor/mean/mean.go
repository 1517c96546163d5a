// Package mean is the horizon-wise climatology baseline: every forecast is
// the per-step mean of the train output windows.
package mean

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/predictor"
	"github.com/go-sod/seqwin/internal/window"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var _ predictor.Predictor = (*Mean)(nil)

func New() *Mean {
	return &Mean{}
}

type Mean struct {
	mtx   sync.RWMutex
	means []float64
}

func (m *Mean) Name() string {
	return "mean"
}

func (m *Mean) Fit(_ context.Context, train, _ *window.SampleSet) error {
	if train.Len() == 0 {
		return fmt.Errorf("mean fit: %w", dataerr.ErrEmptySampleSet)
	}
	outputs := train.Outputs()
	means := make([]float64, train.StepsOut())
	for step := range means {
		means[step] = stat.Mean(mat.Col(nil, step, outputs), nil)
	}

	m.mtx.Lock()
	m.means = means
	m.mtx.Unlock()
	return nil
}

func (m *Mean) Predict(_ context.Context, test *window.SampleSet) (*mat.Dense, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	if m.means == nil {
		return nil, predictor.ErrNotFitted
	}
	if test.Len() == 0 {
		return nil, fmt.Errorf("mean predict: %w", dataerr.ErrEmptySampleSet)
	}
	if test.StepsOut() != len(m.means) {
		return nil, &dataerr.ShapeMismatchError{
			Expected: []int{test.Len(), len(m.means)},
			Actual:   []int{test.Len(), test.StepsOut()},
		}
	}
	out := mat.NewDense(test.Len(), len(m.means), nil)
	for i := 0; i < test.Len(); i++ {
		out.SetRow(i, m.means)
	}
	return out, nil
}

// Means returns a copy of the fitted per-step means.
func (m *Mean) Means() []float64 {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return append([]float64(nil), m.means...)
}

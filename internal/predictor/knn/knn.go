// Package knn is an analog forecaster: the forecast for an input window is
// the mean output of the k train windows closest to it in Euclidean
// distance.
package knn

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/evaluate"
	"github.com/go-sod/seqwin/internal/logging"
	"github.com/go-sod/seqwin/internal/predictor"
	"github.com/go-sod/seqwin/internal/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var _ predictor.Predictor = (*KNN)(nil)

type Option func(*KNN)

func WithK(k int) Option {
	return func(n *KNN) {
		n.k = k
	}
}

func New(opts ...Option) (*KNN, error) {
	n := &KNN{k: 5}
	for _, f := range opts {
		f(n)
	}
	if n.k < 1 {
		return nil, dataerr.InvalidConfig("k", n.k, "must be at least 1")
	}
	return n, nil
}

type KNN struct {
	k int

	mtx     sync.RWMutex
	inputs  *mat.Dense
	outputs *mat.Dense
	nIn     int
	nf      int
}

func (n *KNN) Name() string {
	return "knn"
}

func (n *KNN) Fit(ctx context.Context, train, val *window.SampleSet) error {
	logger := logging.FromContext(ctx)
	if train.Len() == 0 {
		return fmt.Errorf("knn fit: %w", dataerr.ErrEmptySampleSet)
	}
	if n.k > train.Len() {
		logger.Warnf("knn: k %d exceeds %d train samples, every sample is a neighbour", n.k, train.Len())
	}

	n.mtx.Lock()
	n.inputs = train.FlatInputs()
	n.outputs = train.Outputs()
	n.nIn, n.nf = train.StepsIn(), train.FeatureCount()
	n.mtx.Unlock()

	if val == nil || val.Len() == 0 {
		logger.Infof("knn fitted on %d samples, k %d", train.Len(), n.k)
		return nil
	}
	pred, err := n.Predict(ctx, val)
	if err != nil {
		return fmt.Errorf("knn validation: %w", err)
	}
	res, err := evaluate.Evaluate(val, pred, evaluate.WithMetrics(evaluate.MetricMSE), evaluate.WithSlice(evaluate.SliceAll))
	if err != nil {
		return fmt.Errorf("knn validation: %w", err)
	}
	mse, _ := res.Metric(evaluate.MetricMSE)
	logger.Infof("knn fitted on %d samples, k %d, validation mse %.6f", train.Len(), n.k, mse)
	return nil
}

func (n *KNN) Predict(_ context.Context, test *window.SampleSet) (*mat.Dense, error) {
	n.mtx.RLock()
	defer n.mtx.RUnlock()
	if n.inputs == nil {
		return nil, predictor.ErrNotFitted
	}
	if test.Len() == 0 {
		return nil, fmt.Errorf("knn predict: %w", dataerr.ErrEmptySampleSet)
	}
	size, nOut := n.outputs.Dims()
	if test.StepsIn() != n.nIn || test.FeatureCount() != n.nf || test.StepsOut() != nOut {
		return nil, &dataerr.ShapeMismatchError{
			Expected: []int{n.nIn, n.nf, nOut},
			Actual:   []int{test.StepsIn(), test.FeatureCount(), test.StepsOut()},
		}
	}

	k := n.k
	if k > size {
		k = size
	}
	flat := test.FlatInputs()
	out := mat.NewDense(test.Len(), nOut, nil)
	near := newNearest(k)
	forecast := make([]float64, nOut)
	for i := 0; i < test.Len(); i++ {
		near.reset()
		query := flat.RawRowView(i)
		for j := 0; j < size; j++ {
			near.offer(j, floats.Distance(query, n.inputs.RawRowView(j), 2))
		}
		for step := range forecast {
			forecast[step] = 0
		}
		for _, nb := range near.items {
			floats.Add(forecast, n.outputs.RawRowView(nb.index))
		}
		floats.Scale(1/float64(len(near.items)), forecast)
		out.SetRow(i, forecast)
	}
	return out, nil
}

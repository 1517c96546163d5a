// Package ridge maps the flattened input window straight to all nOut output
// steps with one closed-form ridge regression.
package ridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/evaluate"
	"github.com/go-sod/seqwin/internal/logging"
	"github.com/go-sod/seqwin/internal/predictor"
	"github.com/go-sod/seqwin/internal/window"
	"gonum.org/v1/gonum/mat"
)

var _ predictor.Predictor = (*Ridge)(nil)

type Option func(*Ridge)

// WithLambda sets the L2 penalty. The intercept is never penalised.
func WithLambda(lambda float64) Option {
	return func(r *Ridge) {
		r.lambda = lambda
	}
}

func New(opts ...Option) (*Ridge, error) {
	r := &Ridge{lambda: 1}
	for _, f := range opts {
		f(r)
	}
	if r.lambda < 0 {
		return nil, dataerr.InvalidConfig("lambda", r.lambda, "must be non-negative")
	}
	return r, nil
}

type Ridge struct {
	lambda float64

	mtx sync.RWMutex
	// weights is (nIn*numFeatures+1) x nOut, the last row holds the intercept.
	weights *mat.Dense
	nIn     int
	nf      int
}

func (r *Ridge) Name() string {
	return "ridge"
}

func (r *Ridge) Fit(ctx context.Context, train, val *window.SampleSet) error {
	logger := logging.FromContext(ctx)
	if train.Len() == 0 {
		return fmt.Errorf("ridge fit: %w", dataerr.ErrEmptySampleSet)
	}

	x := design(train)
	y := train.Outputs()
	_, p := x.Dims()

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	a := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			v := xtx.At(i, j)
			if i == j && i != p-1 {
				v += r.lambda
			}
			a.SetSym(i, j, v)
		}
	}

	var xty mat.Dense
	xty.Mul(x.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return fmt.Errorf("ridge fit: normal matrix is not positive definite, increase lambda")
	}
	var w mat.Dense
	if err := chol.SolveTo(&w, &xty); err != nil {
		return fmt.Errorf("ridge fit: solve: %w", err)
	}

	r.mtx.Lock()
	r.weights = &w
	r.nIn, r.nf = train.StepsIn(), train.FeatureCount()
	r.mtx.Unlock()

	if val != nil && val.Len() > 0 {
		pred, err := r.Predict(ctx, val)
		if err != nil {
			return fmt.Errorf("ridge validation: %w", err)
		}
		res, err := evaluate.Evaluate(val, pred, evaluate.WithMetrics(evaluate.MetricMSE), evaluate.WithSlice(evaluate.SliceAll))
		if err != nil {
			return fmt.Errorf("ridge validation: %w", err)
		}
		mse, _ := res.Metric(evaluate.MetricMSE)
		logger.Infof("ridge fitted on %d samples, lambda %g, validation mse %.6f", train.Len(), r.lambda, mse)
	} else {
		logger.Infof("ridge fitted on %d samples, lambda %g", train.Len(), r.lambda)
	}
	return nil
}

func (r *Ridge) Predict(_ context.Context, test *window.SampleSet) (*mat.Dense, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if r.weights == nil {
		return nil, predictor.ErrNotFitted
	}
	if test.Len() == 0 {
		return nil, fmt.Errorf("ridge predict: %w", dataerr.ErrEmptySampleSet)
	}
	_, nOut := r.weights.Dims()
	if test.StepsIn() != r.nIn || test.FeatureCount() != r.nf || test.StepsOut() != nOut {
		return nil, &dataerr.ShapeMismatchError{
			Expected: []int{r.nIn, r.nf, nOut},
			Actual:   []int{test.StepsIn(), test.FeatureCount(), test.StepsOut()},
		}
	}
	var out mat.Dense
	out.Mul(design(test), r.weights)
	return &out, nil
}

// design returns the flattened inputs with a trailing column of ones.
func design(set *window.SampleSet) *mat.Dense {
	flat := set.FlatInputs()
	n, p := flat.Dims()
	x := mat.NewDense(n, p+1, nil)
	x.Slice(0, n, 0, p).(*mat.Dense).Copy(flat)
	for i := 0; i < n; i++ {
		x.Set(i, p, 1)
	}
	return x
}

package evaluate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-sod/seqwin/internal/geom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	MetricMSE               = "mse"
	MetricRMSE              = "rmse"
	MetricMAE               = "mae"
	MetricR2                = "r2"
	MetricExplainedVariance = "explained_variance"
	MetricMaxError          = "max_error"
)

var ErrEmptySequence = errors.New("metric input sequences must be non-empty")

// MetricFn scores predictions against ground truth. Both sequences have the
// same length.
type MetricFn func(yTrue, yPred []float64) (float64, error)

var registry = map[string]MetricFn{
	MetricMSE:               MeanSquaredError,
	MetricRMSE:              RootMeanSquaredError,
	MetricMAE:               MeanAbsoluteError,
	MetricR2:                R2Score,
	MetricExplainedVariance: ExplainedVarianceScore,
	MetricMaxError:          MaxError,
}

// MetricFor looks up a metric by name.
func MetricFor(name string) (MetricFn, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// AvailableMetrics returns the registered metric names, sorted.
func AvailableMetrics() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func MeanSquaredError(yTrue, yPred []float64) (float64, error) {
	if err := checkSequences(yTrue, yPred); err != nil {
		return 0, err
	}
	d, err := geom.SquaredEuclideanDistance(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return d / float64(len(yTrue)), nil
}

func RootMeanSquaredError(yTrue, yPred []float64) (float64, error) {
	mse, err := MeanSquaredError(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

func MeanAbsoluteError(yTrue, yPred []float64) (float64, error) {
	if err := checkSequences(yTrue, yPred); err != nil {
		return 0, err
	}
	d, err := geom.ManhattanDistance(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return d / float64(len(yTrue)), nil
}

func MaxError(yTrue, yPred []float64) (float64, error) {
	if err := checkSequences(yTrue, yPred); err != nil {
		return 0, err
	}
	return geom.ChebyshevDistance(yTrue, yPred)
}

// R2Score is the coefficient of determination. A constant ground truth scores
// 1 on a perfect prediction and 0 otherwise.
func R2Score(yTrue, yPred []float64) (float64, error) {
	if err := checkSequences(yTrue, yPred); err != nil {
		return 0, err
	}
	ssRes, err := geom.SquaredEuclideanDistance(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	mean := stat.Mean(yTrue, nil)
	var ssTot float64
	for _, y := range yTrue {
		ssTot += (y - mean) * (y - mean)
	}
	return finiteScore(ssRes, ssTot), nil
}

// ExplainedVarianceScore is 1 - Var(yTrue-yPred)/Var(yTrue) with population
// variances.
func ExplainedVarianceScore(yTrue, yPred []float64) (float64, error) {
	if err := checkSequences(yTrue, yPred); err != nil {
		return 0, err
	}
	residuals := make([]float64, len(yTrue))
	floats.SubTo(residuals, yTrue, yPred)
	return finiteScore(stat.PopVariance(residuals, nil), stat.PopVariance(yTrue, nil)), nil
}

func finiteScore(numerator, denominator float64) float64 {
	if denominator == 0 {
		if numerator == 0 {
			return 1
		}
		return 0
	}
	return 1 - numerator/denominator
}

func checkSequences(yTrue, yPred []float64) error {
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("%d true values vs %d predicted: %w", len(yTrue), len(yPred), geom.ErrDimNotEqual)
	}
	if len(yTrue) == 0 {
		return ErrEmptySequence
	}
	return nil
}

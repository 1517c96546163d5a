package evaluate

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/table/tabletest"
	"github.com/go-sod/seqwin/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// truthSet has 3 samples with nOut=2; the target of row r is r, so sample i
// holds outputs [i+1, i+2] when nIn=2.
func truthSet(t *testing.T) *window.SampleSet {
	t.Helper()
	set, err := window.Extract(tabletest.Sequential(5, 1), 2, 2)
	require.NoError(t, err)
	require.Equal(t, [2]int{3, 2}, set.OutputShape())
	return set
}

func TestMetrics(t *testing.T) {
	tests := []struct {
		name     string
		fn       MetricFn
		yTrue    []float64
		yPred    []float64
		expected float64
	}{
		{name: "mse", fn: MeanSquaredError, yTrue: []float64{1, 2, 3}, yPred: []float64{1, 2, 5}, expected: 4.0 / 3},
		{name: "rmse", fn: RootMeanSquaredError, yTrue: []float64{0, 0}, yPred: []float64{3, 4}, expected: math.Sqrt(12.5)},
		{name: "mae", fn: MeanAbsoluteError, yTrue: []float64{1, 2, 3, 4}, yPred: []float64{2, 2, 2, 2}, expected: 1},
		{name: "max_error", fn: MaxError, yTrue: []float64{1, 2, 3}, yPred: []float64{1, 5, 2}, expected: 3},
		{name: "r2_perfect", fn: R2Score, yTrue: []float64{1, 2, 3}, yPred: []float64{1, 2, 3}, expected: 1},
		{name: "r2_mean_prediction", fn: R2Score, yTrue: []float64{1, 2, 3}, yPred: []float64{2, 2, 2}, expected: 0},
		{name: "r2_constant_truth_miss", fn: R2Score, yTrue: []float64{2, 2}, yPred: []float64{1, 3}, expected: 0},
		{name: "explained_variance_offset", fn: ExplainedVarianceScore, yTrue: []float64{1, 2, 3}, yPred: []float64{2, 3, 4}, expected: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.fn(test.yTrue, test.yPred)
			if err != nil {
				t.Fatalf("calling metric, err got: %v, expected: nil", err)
			}
			if math.Abs(got-test.expected) > 1e-12 {
				t.Errorf("calling metric, got: %v, expected: %v", got, test.expected)
			}
		})
	}
}

func TestMetricsRejectBadSequences(t *testing.T) {
	_, err := MeanSquaredError(nil, nil)
	assert.True(t, errors.Is(err, ErrEmptySequence))
	_, err = MeanAbsoluteError([]float64{1}, []float64{1, 2})
	assert.Error(t, err)
}

func TestEvaluatePerfectPrediction(t *testing.T) {
	truth := truthSet(t)
	res, err := Evaluate(truth, truth.Outputs(), WithSlice(SliceAll),
		WithMetrics(MetricMSE, MetricMAE, MetricRMSE, MetricMaxError, MetricR2))
	require.NoError(t, err)

	for _, name := range []string{MetricMSE, MetricMAE, MetricRMSE, MetricMaxError} {
		v, ok := res.Metric(name)
		require.True(t, ok, name)
		assert.Equal(t, 0.0, v, name)
	}
	r2, _ := res.Metric(MetricR2)
	assert.Equal(t, 1.0, r2)
	assert.Equal(t, [2]int{3, 2}, res.Shape())
	assert.Equal(t, []string{MetricMAE, MetricMaxError, MetricMSE, MetricR2, MetricRMSE}, res.Names())
}

func TestEvaluateSlices(t *testing.T) {
	truth := truthSet(t)
	// sample 0 off by 1 on both steps, sample 1 exact, sample 2 off by 3 on step 0
	predicted := mat.NewDense(3, 2, []float64{
		2, 3,
		2, 3,
		6, 4,
	})
	tests := []struct {
		name string
		opt  Slice
		mse  float64
		mae  float64
	}{
		{name: "first", opt: SliceFirst, mse: 1, mae: 1},
		{name: "sample_1", opt: SliceSample(1), mse: 0, mae: 0},
		{name: "sample_2", opt: SliceSample(2), mse: 4.5, mae: 1.5},
		{name: "all", opt: SliceAll, mse: 11.0 / 6, mae: 5.0 / 6},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, err := Evaluate(truth, predicted, WithSlice(test.opt))
			require.NoError(t, err)
			mse, _ := res.Metric(MetricMSE)
			mae, _ := res.Metric(MetricMAE)
			assert.InDelta(t, test.mse, mse, 1e-12)
			assert.InDelta(t, test.mae, mae, 1e-12)
			assert.Equal(t, 3, res.Len())
		})
	}
}

func TestEvaluateShapeMismatch(t *testing.T) {
	truth := truthSet(t)
	tests := []struct {
		name      string
		predicted mat.Matrix
		actual    []int
	}{
		{name: "short_rows", predicted: mat.NewDense(2, 2, nil), actual: []int{2, 2}},
		{name: "long_horizon", predicted: mat.NewDense(3, 3, nil), actual: []int{3, 3}},
		{name: "nil", predicted: nil, actual: []int{0, 0}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Evaluate(truth, test.predicted)
			require.True(t, errors.Is(err, dataerr.ErrShapeMismatch))
			var shapeErr *dataerr.ShapeMismatchError
			require.True(t, errors.As(err, &shapeErr))
			assert.Equal(t, []int{3, 2}, shapeErr.Expected)
			assert.Equal(t, test.actual, shapeErr.Actual)
		})
	}
}

func TestEvaluateEmptyMetricListKeepsDefaults(t *testing.T) {
	truth := truthSet(t)
	res, err := Evaluate(truth, truth.Outputs(), WithMetrics())
	require.NoError(t, err)
	assert.Equal(t, []string{MetricMAE, MetricMSE}, res.Names())
}

func TestEvaluateInvalidOptions(t *testing.T) {
	truth := truthSet(t)

	_, err := Evaluate(truth, truth.Outputs(), WithMetrics("mape"))
	assert.True(t, errors.Is(err, dataerr.ErrInvalidConfiguration))

	_, err = Evaluate(truth, truth.Outputs(), WithSlice(SliceSample(3)))
	assert.True(t, errors.Is(err, dataerr.ErrInvalidConfiguration))
}

func TestEvaluateEmptyTruth(t *testing.T) {
	empty, err := window.Extract(tabletest.Sequential(2, 1), 2, 2)
	require.NoError(t, err)
	require.Equal(t, 0, empty.Len())

	tests := []struct {
		name      string
		predicted mat.Matrix
		err       error
		actual    []int
	}{
		{name: "both_empty", predicted: nil, err: dataerr.ErrEmptySampleSet},
		{name: "extra_predictions", predicted: mat.NewDense(5, 2, nil), err: dataerr.ErrShapeMismatch, actual: []int{5, 2}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Evaluate(empty, test.predicted)
			if !errors.Is(err, test.err) {
				t.Fatalf("calling Evaluate, got: %v, expected: %v", err, test.err)
			}
			var shapeErr *dataerr.ShapeMismatchError
			if test.actual == nil {
				assert.False(t, errors.As(err, &shapeErr))
				return
			}
			require.True(t, errors.As(err, &shapeErr))
			assert.Equal(t, []int{0, 2}, shapeErr.Expected)
			assert.Equal(t, test.actual, shapeErr.Actual)
		})
	}
}

func TestResultPairsAndCSV(t *testing.T) {
	truth := truthSet(t)
	predicted := mat.NewDense(3, 2, []float64{1.5, 2, 2, 3, 3, 4})
	res, err := Evaluate(truth, predicted)
	require.NoError(t, err)

	p := res.Pair(0)
	assert.Equal(t, 0, p.Sample)
	assert.Equal(t, 1, p.Start)
	assert.Equal(t, []float64{1, 2}, p.True)
	assert.Equal(t, []float64{1.5, 2}, p.Predicted)

	p.True[0] = 42
	assert.Equal(t, 1.0, res.Pair(0).True[0])

	var buf bytes.Buffer
	require.NoError(t, res.WriteCSV(&buf, 0))
	assert.Equal(t, "step,true,predicted\n0,1,1.5\n1,2,2\n", buf.String())
	assert.Error(t, res.WriteCSV(&buf, 3))

	s := res.Summary()
	assert.Equal(t, "first", s.Slice)
	assert.Len(t, s.Metrics, 2)
}

func TestParseSlice(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected Slice
		err      bool
	}{
		{name: "first", in: "first", expected: SliceFirst},
		{name: "all_upper", in: " ALL ", expected: SliceAll},
		{name: "sample", in: "sample:4", expected: SliceSample(4)},
		{name: "negative", in: "sample:-1", err: true},
		{name: "garbage", in: "last", err: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseSlice(test.in)
			if test.err {
				assert.True(t, errors.Is(err, dataerr.ErrInvalidConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}
}

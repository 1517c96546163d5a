package knn

import (
	"context"
	"errors"
	"testing"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/predictor"
	"github.com/go-sod/seqwin/internal/table/tabletest"
	"github.com/go-sod/seqwin/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKNN(t *testing.T) {
	ctx := context.Background()
	tbl := tabletest.Sequential(10, 1)
	// train outputs [1 2] [2 3] [3 4] [4 5]; test inputs lie beyond the last
	// train window, so neighbours are taken from the end of train.
	train, err := window.Extract(tbl.View(0, 6), 2, 2)
	require.NoError(t, err)

	tests := []struct {
		name     string
		k        int
		expected []float64
	}{
		{name: "one_neighbour", k: 1, expected: []float64{4, 5}},
		{name: "two_neighbours", k: 2, expected: []float64{3.5, 4.5}},
		{name: "k_above_train", k: 10, expected: []float64{2.5, 3.5}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			n, err := New(WithK(test.k))
			require.NoError(t, err)
			require.NoError(t, n.Fit(ctx, train, nil))
			pred, err := n.Predict(ctx, testSet(t))
			require.NoError(t, err)
			r, c := pred.Dims()
			require.Equal(t, 4, r)
			require.Equal(t, 2, c)
			for i := 0; i < r; i++ {
				if pred.At(i, 0) != test.expected[0] || pred.At(i, 1) != test.expected[1] {
					t.Errorf("calling Predict row %d, got: [%v %v], expected: %v", i, pred.At(i, 0), pred.At(i, 1), test.expected)
				}
			}
		})
	}
}

func testSet(t *testing.T) *window.SampleSet {
	t.Helper()
	set, err := window.Extract(tabletest.Sequential(10, 1).View(6, 10), 2, 2)
	require.NoError(t, err)
	return set
}

func TestKNNErrors(t *testing.T) {
	ctx := context.Background()
	_, err := New(WithK(0))
	assert.True(t, errors.Is(err, dataerr.ErrInvalidConfiguration))

	n, err := New()
	require.NoError(t, err)
	_, err = n.Predict(ctx, testSet(t))
	assert.True(t, errors.Is(err, predictor.ErrNotFitted))

	empty, err := window.Extract(tabletest.Sequential(2, 1), 2, 2)
	require.NoError(t, err)
	assert.True(t, errors.Is(n.Fit(ctx, empty, nil), dataerr.ErrEmptySampleSet))

	train, err := window.Extract(tabletest.Sequential(10, 1), 2, 2)
	require.NoError(t, err)
	require.NoError(t, n.Fit(ctx, train, nil))
	other, err := window.Extract(tabletest.Sequential(10, 1), 3, 2)
	require.NoError(t, err)
	_, err = n.Predict(ctx, other)
	assert.True(t, errors.Is(err, dataerr.ErrShapeMismatch))
}

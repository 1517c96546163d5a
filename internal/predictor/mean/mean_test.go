package mean

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

func TestMean(t *testing.T) {
	ctx := context.Background()
	tbl := tabletest.Sequential(10, 2)
	// targets 0..5, nIn=2, nOut=2: outputs [1 2] [2 3] [3 4] [4 5]
	train, err := window.Extract(tbl.View(0, 6), 2, 2)
	require.NoError(t, err)
	test, err := window.Extract(tbl.View(6, 10), 2, 2)
	require.NoError(t, err)

	m := New()
	_, err = m.Predict(ctx, test)
	assert.True(t, errors.Is(err, predictor.ErrNotFitted))

	require.NoError(t, m.Fit(ctx, train, nil))
	assert.Equal(t, []float64{2.5, 3.5}, m.Means())

	pred, err := m.Predict(ctx, test)
	require.NoError(t, err)
	r, c := pred.Dims()
	assert.Equal(t, test.Len(), r)
	assert.Equal(t, 2, c)
	for i := 0; i < r; i++ {
		assert.Equal(t, 2.5, pred.At(i, 0))
		assert.Equal(t, 3.5, pred.At(i, 1))
	}
}

func TestMeanRejectsEmptyTrain(t *testing.T) {
	empty, err := window.Extract(tabletest.Sequential(2, 1), 2, 2)
	require.NoError(t, err)

	err = New().Fit(context.Background(), empty, nil)
	assert.True(t, errors.Is(err, dataerr.ErrEmptySampleSet))
}

func TestMeanHorizonMismatch(t *testing.T) {
	ctx := context.Background()
	tbl := tabletest.Sequential(20, 1)
	train, err := window.Extract(tbl, 2, 2)
	require.NoError(t, err)
	test, err := window.Extract(tbl, 2, 3)
	require.NoError(t, err)

	m := New()
	require.NoError(t, m.Fit(ctx, train, nil))
	_, err = m.Predict(ctx, test)
	assert.True(t, errors.Is(err, dataerr.ErrShapeMismatch))
}

// Package predictor defines the model collaborator consumed by the pipeline.
// A predictor is fitted on the train and validation sample sets and then
// asked for one nOut-step forecast per test sample.
package predictor

import (
	"context"
	"errors"

	"github.com/go-sod/seqwin/internal/window"
	"gonum.org/v1/gonum/mat"
)

type AlgType string

const (
	AlgTypeMean   AlgType = "MEAN"
	AlgTypeRidge  AlgType = "RIDGE"
	AlgTypeRemote AlgType = "REMOTE"
	AlgTypeKNN    AlgType = "KNN"
)

var ErrNotFitted = errors.New("predictor is not fitted")

type Config struct {
	Type AlgType `envconfig:"SEQWIN_PREDICTOR_TYPE" default:"MEAN" toml:"type"`
}

func (c Config) PredictorType() AlgType {
	return c.Type
}

type ProvideFn func() (Predictor, error)

type Predictor interface {
	Name() string
	// Fit trains on train; val may be empty.
	Fit(ctx context.Context, train, val *window.SampleSet) error
	// Predict returns a test.Len() x test.StepsOut() matrix, row i forecasting
	// sample i.
	Predict(ctx context.Context, test *window.SampleSet) (*mat.Dense, error)
}

package pipeline

import (
	"time"

	"github.com/go-sod/seqwin/internal/evaluate"
	"github.com/go-sod/seqwin/internal/window"
	"github.com/google/uuid"
)

// Shape holds a sample set's input (numSamples, nIn, numFeatures) and output
// (numSamples, nOut) shapes.
type Shape struct {
	Input  [3]int `json:"input"`
	Output [2]int `json:"output"`
}

func shapeOf(set *window.SampleSet) Shape {
	return Shape{Input: set.InputShape(), Output: set.OutputShape()}
}

// Report is the serialisable record of one Run.
type Report struct {
	ID         uuid.UUID        `json:"id"`
	Dataset    string           `json:"dataset"`
	Predictor  string           `json:"predictor"`
	Config     Config           `json:"config"`
	Rows       int              `json:"rows"`
	Partitions [3]int           `json:"partitions"`
	Train      Shape            `json:"train"`
	Val        Shape            `json:"val"`
	Test       Shape            `json:"test"`
	Evaluation evaluate.Summary `json:"evaluation"`
	CreatedAt  time.Time        `json:"createdAt"`

	result   *evaluate.Result
	prepared *Prepared
}

// Result is the full evaluation result. It is nil on a decoded report.
func (r *Report) Result() *evaluate.Result {
	return r.result
}

// Prepared returns the sample sets the run used. It is nil on a decoded report.
func (r *Report) Prepared() *Prepared {
	return r.prepared
}

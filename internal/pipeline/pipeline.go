// Package pipeline wires partitioning, window extraction, a predictor and
// evaluation into one run over a table.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/evaluate"
	"github.com/go-sod/seqwin/internal/logging"
	"github.com/go-sod/seqwin/internal/metrics"
	"github.com/go-sod/seqwin/internal/partition"
	"github.com/go-sod/seqwin/internal/predictor"
	"github.com/go-sod/seqwin/internal/table"
	"github.com/go-sod/seqwin/internal/window"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Prepared struct {
	Splits partition.Splits
	Train  *window.SampleSet
	Val    *window.SampleSet
	Test   *window.SampleSet
}

// Sets returns the three sample sets keyed by partition name.
func (p *Prepared) Sets() map[string]*window.SampleSet {
	return map[string]*window.SampleSet{
		partition.NameTrain: p.Train,
		partition.NameVal:   p.Val,
		partition.NameTest:  p.Test,
	}
}

// Prepare validates cfg, splits t chronologically and extracts the three
// partitions concurrently. Partitions too short for a window yield empty sets.
func Prepare(ctx context.Context, t *table.Table, cfg Config) (*Prepared, error) {
	logger := logging.FromContext(ctx)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	splits, err := partition.Split(t, cfg.TrainFraction, cfg.ValFraction)
	if err != nil {
		return nil, err
	}

	p := &Prepared{Splits: splits}
	targets := []struct {
		name string
		view table.View
		dst  **window.SampleSet
	}{
		{name: partition.NameTrain, view: splits.Train, dst: &p.Train},
		{name: partition.NameVal, view: splits.Val, dst: &p.Val},
		{name: partition.NameTest, view: splits.Test, dst: &p.Test},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			set, err := window.Extract(target.view, cfg.StepsIn, cfg.StepsOut)
			if err != nil {
				return fmt.Errorf("extract %s partition: %w", target.name, err)
			}
			*target.dst = set
			metrics.Record(gctx, metrics.KeyPartition, target.name, metrics.SamplesExtracted.M(int64(set.Len())))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, target := range targets {
		set := *target.dst
		logger.Debugf("%s partition %s: X%v y%v", target.name, target.view, set.InputShape(), set.OutputShape())
		if set.Len() == 0 {
			logger.Warnf("%s partition has %d rows, fewer than the %d a window needs",
				target.name, target.view.Len(), cfg.StepsIn+cfg.StepsOut-1)
		}
	}
	return p, nil
}

// Run prepares t, fits p on train and val, predicts test and evaluates the
// predictions. Empty train or test sets fail with dataerr.ErrEmptySampleSet.
func Run(ctx context.Context, dataset string, t *table.Table, cfg Config, p predictor.Predictor, opts ...evaluate.Option) (*Report, error) {
	started := time.Now()
	report, err := run(ctx, dataset, t, cfg, p, opts...)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.Record(ctx, metrics.KeyOutcome, outcome,
		metrics.PipelineRuns.M(1),
		metrics.PipelineLatency.M(float64(time.Since(started))/float64(time.Millisecond)),
	)
	return report, err
}

func run(ctx context.Context, dataset string, t *table.Table, cfg Config, p predictor.Predictor, opts ...evaluate.Option) (*Report, error) {
	logger := logging.FromContext(ctx).With("dataset", dataset, "predictor", p.Name())

	prepared, err := Prepare(ctx, t, cfg)
	if err != nil {
		return nil, err
	}
	if prepared.Train.Len() == 0 {
		return nil, fmt.Errorf("train partition: %w", dataerr.ErrEmptySampleSet)
	}
	if prepared.Test.Len() == 0 {
		return nil, fmt.Errorf("test partition: %w", dataerr.ErrEmptySampleSet)
	}

	if err := p.Fit(ctx, prepared.Train, prepared.Val); err != nil {
		return nil, fmt.Errorf("fit %s: %w", p.Name(), err)
	}
	predicted, err := p.Predict(ctx, prepared.Test)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", p.Name(), err)
	}
	result, err := evaluate.Evaluate(prepared.Test, predicted, opts...)
	if err != nil {
		return nil, err
	}
	if mse, ok := result.Metric(evaluate.MetricMSE); ok {
		metrics.Record(ctx, metrics.KeyDataset, dataset, metrics.EvaluationMSE.M(mse))
	}
	logger.Infof("evaluated %d test samples: %v", result.Len(), result.Metrics())

	return &Report{
		ID:         uuid.New(),
		Dataset:    dataset,
		Predictor:  p.Name(),
		Config:     cfg,
		Rows:       t.RowCount(),
		Partitions: prepared.Splits.Lens(),
		Train:      shapeOf(prepared.Train),
		Val:        shapeOf(prepared.Val),
		Test:       shapeOf(prepared.Test),
		Evaluation: result.Summary(),
		CreatedAt:  time.Now().UTC(),
		result:     result,
		prepared:   prepared,
	}, nil
}

// Package metrics declares the OpenCensus measures recorded by the pipeline
// and exposes them to Prometheus.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const Namespace = "seqwin"

var (
	KeyPartition = tag.MustNewKey("partition")
	KeyDataset   = tag.MustNewKey("dataset")
	KeyOutcome   = tag.MustNewKey("outcome")
)

var (
	SamplesExtracted = stats.Int64("seqwin/samples_extracted", "Samples produced by window extraction", stats.UnitDimensionless)
	PipelineRuns     = stats.Int64("seqwin/pipeline_runs", "Completed or failed pipeline runs", stats.UnitDimensionless)
	PipelineLatency  = stats.Float64("seqwin/pipeline_latency", "Pipeline run duration", stats.UnitMilliseconds)
	EvaluationMSE    = stats.Float64("seqwin/evaluation_mse", "Mean squared error of the last evaluation", stats.UnitDimensionless)
	CollectedRows    = stats.Int64("seqwin/collected_rows", "Observations accepted by the collector", stats.UnitDimensionless)
)

var Views = []*view.View{
	{
		Name:        "seqwin/samples_extracted",
		Measure:     SamplesExtracted,
		Description: "Samples produced per partition",
		TagKeys:     []tag.Key{KeyPartition},
		Aggregation: view.Sum(),
	},
	{
		Name:        "seqwin/pipeline_runs",
		Measure:     PipelineRuns,
		Description: "Pipeline runs by outcome",
		TagKeys:     []tag.Key{KeyOutcome},
		Aggregation: view.Count(),
	},
	{
		Name:        "seqwin/pipeline_latency",
		Measure:     PipelineLatency,
		Description: "Pipeline run latency distribution",
		Aggregation: view.Distribution(1, 5, 10, 50, 100, 500, 1000, 5000, 10000),
	},
	{
		Name:        "seqwin/evaluation_mse",
		Measure:     EvaluationMSE,
		Description: "Last evaluation MSE per dataset",
		TagKeys:     []tag.Key{KeyDataset},
		Aggregation: view.LastValue(),
	},
	{
		Name:        "seqwin/collected_rows",
		Measure:     CollectedRows,
		Description: "Collected observations per dataset",
		TagKeys:     []tag.Key{KeyDataset},
		Aggregation: view.Sum(),
	},
}

var registerOnce sync.Once

// Register registers Views once per process.
func Register() error {
	var err error
	registerOnce.Do(func() {
		err = view.Register(Views...)
	})
	if err != nil {
		return fmt.Errorf("register views: %w", err)
	}
	return nil
}

// NewHandler registers Views and returns the Prometheus scrape handler.
func NewHandler() (http.Handler, error) {
	if err := Register(); err != nil {
		return nil, err
	}
	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: Namespace})
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	view.RegisterExporter(exporter)
	return exporter, nil
}

// Record records ms under a single tag. Recording errors are dropped since
// metrics never fail a pipeline run.
func Record(ctx context.Context, key tag.Key, value string, ms ...stats.Measurement) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(key, value)}, ms...)
}

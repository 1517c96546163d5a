// Command seqwin runs the windowing pipeline once over a CSV file or a
// synthetic series and prints the shapes and the evaluation metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-sod/seqwin/internal/config"
	"github.com/go-sod/seqwin/internal/evaluate"
	"github.com/go-sod/seqwin/internal/ingest"
	"github.com/go-sod/seqwin/internal/integration"
	"github.com/go-sod/seqwin/internal/logging"
	"github.com/go-sod/seqwin/internal/observation/model"
	"github.com/go-sod/seqwin/internal/pipeline"
	"github.com/go-sod/seqwin/internal/run"
	"github.com/go-sod/seqwin/internal/setup"
	"github.com/go-sod/seqwin/internal/shutdown"
	"github.com/go-sod/seqwin/internal/synth"
	"github.com/go-sod/seqwin/internal/table"
	"github.com/go-sod/seqwin/internal/window"
	"github.com/joho/godotenv"
)

type flags struct {
	config     string
	csv        string
	timeCol    string
	timeLayout string
	fields     string
	target     string
	synthetic  int
	seed       uint
	metrics    string
	slice      string
	export     string
	plot       string
	dump       bool
	server     string
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.config, "config", "", "path to a TOML config file")
	flag.StringVar(&f.csv, "csv", "", "CSV file with a timestamp column and numeric value columns")
	flag.StringVar(&f.timeCol, "time-col", ingest.DefaultTimeColumn, "timestamp column name")
	flag.StringVar(&f.timeLayout, "time-layout", "", "time.Parse layout of the timestamp column")
	flag.StringVar(&f.fields, "fields", "", "comma separated value columns, empty for all")
	flag.StringVar(&f.target, "target", "", "target column, empty for the last value column")
	flag.IntVar(&f.synthetic, "synthetic", 0, "generate N synthetic rows instead of reading a CSV")
	flag.UintVar(&f.seed, "seed", 1, "synthetic generator seed, 0 for random")
	flag.StringVar(&f.metrics, "metrics", "mse,mae", "comma separated metric names")
	flag.StringVar(&f.slice, "slice", "first", "samples to score: first, all or sample:<k>")
	flag.StringVar(&f.export, "export", "", "directory receiving the XDR encoded sample sets")
	flag.StringVar(&f.plot, "plot", "", "CSV file receiving true and predicted values of the first sample")
	flag.BoolVar(&f.dump, "dump", false, "dump the first training sample")
	flag.StringVar(&f.server, "server", "", "host:port of a seqwin-srv; push the rows there and run remotely")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	ctx, done := shutdown.New()
	defer done()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(ctx).Fatalf("load .env: %v", err)
	}

	cfg := config.Config{}
	if err := config.Load(f.config, &cfg); err != nil {
		logging.FromContext(ctx).Fatal(err)
	}
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	ctx = logging.WithLogger(ctx, logger)

	if err := execute(ctx, f, &cfg); err != nil {
		logger.Fatal(err)
	}
}

func execute(ctx context.Context, f flags, cfg *config.Config) error {
	t, dataset, err := loadTable(f)
	if err != nil {
		return err
	}

	if f.server != "" {
		return runRemote(ctx, f, cfg, t, dataset)
	}

	provideFn, err := setup.ProvidePredictorFor(cfg)
	if err != nil {
		return err
	}
	p, err := provideFn()
	if err != nil {
		return err
	}

	slice, err := evaluate.ParseSlice(f.slice)
	if err != nil {
		return err
	}
	report, err := pipeline.Run(ctx, dataset, t, cfg.Pipeline, p,
		evaluate.WithMetrics(splitList(f.metrics)...),
		evaluate.WithSlice(slice),
	)
	if err != nil {
		return err
	}

	printReport(report)

	if f.dump {
		spew.Dump(report.Prepared().Train.Sample(0))
	}
	if f.export != "" {
		if err := export(f.export, report.Prepared()); err != nil {
			return err
		}
	}
	if f.plot != "" {
		if err := plot(f.plot, report.Result()); err != nil {
			return err
		}
	}
	return nil
}

// runRemote pushes t to a seqwin-srv as dataset and runs the pipeline there
// with the local pipeline configuration.
func runRemote(ctx context.Context, f flags, cfg *config.Config, t *table.Table, dataset string) error {
	logger := logging.FromContext(ctx)
	client := integration.NewClient(f.server)
	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("server %s: %w", f.server, err)
	}

	batch := model.Batch{Dataset: dataset, Fields: t.Fields()}
	for i := 0; i < t.RowCount(); i++ {
		row := t.Row(i)
		batch.Data = append(batch.Data, model.Row{Time: row.Time, Values: row.Values})
	}
	n, err := client.Collect(ctx, batch)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	logger.Infof("pushed %d rows of %s to %s", n, dataset, f.server)

	pipelineCfg := cfg.Pipeline
	report, err := client.Run(ctx, run.Request{
		Dataset: dataset,
		Target:  t.Target(),
		Config:  &pipelineCfg,
		Metrics: splitList(f.metrics),
		Slice:   f.slice,
	})
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	printReport(report)
	return nil
}

func loadTable(f flags) (*table.Table, string, error) {
	if f.synthetic > 0 {
		t, err := synth.Table(f.synthetic, synth.WithSeed(uint32(f.seed)))
		return t, "synthetic", err
	}
	if f.csv == "" {
		return nil, "", fmt.Errorf("either -csv or -synthetic is required")
	}
	t, err := ingest.LoadCSV(f.csv, ingest.Options{
		TimeColumn: f.timeCol,
		TimeLayout: f.timeLayout,
		Fields:     splitList(f.fields),
		Target:     f.target,
	})
	name := strings.TrimSuffix(filepath.Base(f.csv), filepath.Ext(f.csv))
	return t, name, err
}

func printReport(r *pipeline.Report) {
	fmt.Printf("Rows: %d, partitions: %v\n", r.Rows, r.Partitions)
	fmt.Printf("Train input: %v, output: %v\n", r.Train.Input, r.Train.Output)
	fmt.Printf("Val input: %v, output: %v\n", r.Val.Input, r.Val.Output)
	fmt.Printf("Test input: %v, output: %v\n", r.Test.Input, r.Test.Output)
	printSummary(r)
}

func printSummary(r *pipeline.Report) {
	fmt.Printf("Predictor: %s, slice: %s\n", r.Predictor, r.Evaluation.Slice)
	names := make([]string, 0, len(r.Evaluation.Metrics))
	for name := range r.Evaluation.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s: %.6f\n", strings.ToUpper(name), r.Evaluation.Metrics[name])
	}
}

func export(dir string, prepared *pipeline.Prepared) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	for name, set := range prepared.Sets() {
		path := filepath.Join(dir, name+".xdr")
		if err := writeFile(path, func(file *os.File) error {
			return window.Encode(file, set)
		}); err != nil {
			return err
		}
	}
	return nil
}

func plot(path string, result *evaluate.Result) error {
	return writeFile(path, func(file *os.File) error {
		return result.WriteCSV(file, 0)
	})
}

func writeFile(path string, fn func(*os.File) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(file); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package evaluate

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Pair is one aligned (true, predicted) output window.
type Pair struct {
	Sample int
	// Start is the table row index of the first output step.
	Start     int
	True      []float64
	Predicted []float64
}

func (p Pair) copy() Pair {
	p.True = append([]float64(nil), p.True...)
	p.Predicted = append([]float64(nil), p.Predicted...)
	return p
}

// Result is the immutable outcome of Evaluate. Accessors return copies.
type Result struct {
	slice   Slice
	shape   [2]int
	metrics map[string]float64
	pairs   []Pair
}

// Summary is the serialisable part of a Result.
type Summary struct {
	Slice   string             `json:"slice"`
	Shape   [2]int             `json:"shape"`
	Metrics map[string]float64 `json:"metrics"`
}

func (r *Result) Slice() Slice {
	return r.slice
}

// Shape is the (numSamples, nOut) shape both tensors agreed on.
func (r *Result) Shape() [2]int {
	return r.shape
}

func (r *Result) Metric(name string) (float64, bool) {
	v, ok := r.metrics[name]
	return v, ok
}

func (r *Result) Metrics() map[string]float64 {
	m := make(map[string]float64, len(r.metrics))
	for k, v := range r.metrics {
		m[k] = v
	}
	return m
}

// Names returns the computed metric names, sorted.
func (r *Result) Names() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Result) Len() int {
	return len(r.pairs)
}

func (r *Result) Pair(i int) Pair {
	return r.pairs[i].copy()
}

func (r *Result) Pairs() []Pair {
	pairs := make([]Pair, len(r.pairs))
	for i := range r.pairs {
		pairs[i] = r.pairs[i].copy()
	}
	return pairs
}

func (r *Result) Summary() Summary {
	return Summary{
		Slice:   r.slice.String(),
		Shape:   r.shape,
		Metrics: r.Metrics(),
	}
}

// WriteCSV writes "step,true,predicted" rows for sample i, the input a
// plotting tool needs to draw true vs predicted.
func (r *Result) WriteCSV(w io.Writer, i int) error {
	if i < 0 || i >= len(r.pairs) {
		return fmt.Errorf("sample %d out of range [0:%d)", i, len(r.pairs))
	}
	p := r.pairs[i]
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"step", "true", "predicted"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for step := range p.True {
		record := []string{
			strconv.Itoa(step),
			strconv.FormatFloat(p.True[step], 'g', -1, 64),
			strconv.FormatFloat(p.Predicted[step], 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", step, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

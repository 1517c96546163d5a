package evaluate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sod/seqwin/internal/dataerr"
)

type sliceKind uint8

const (
	sliceSample sliceKind = iota
	sliceAll
)

// Slice selects which samples feed the metrics.
type Slice struct {
	kind  sliceKind
	index int
}

var (
	// SliceFirst scores sample 0 only, a single-horizon inspection.
	SliceFirst = Slice{kind: sliceSample}
	// SliceAll scores every sample, flattened.
	SliceAll = Slice{kind: sliceAll}
)

// SliceSample scores sample k only.
func SliceSample(k int) Slice {
	return Slice{kind: sliceSample, index: k}
}

// ParseSlice accepts "first", "all" or "sample:<k>".
func ParseSlice(s string) (Slice, error) {
	switch s = strings.ToLower(strings.TrimSpace(s)); {
	case s == "first":
		return SliceFirst, nil
	case s == "all":
		return SliceAll, nil
	case strings.HasPrefix(s, "sample:"):
		k, err := strconv.Atoi(strings.TrimPrefix(s, "sample:"))
		if err != nil || k < 0 {
			return Slice{}, dataerr.InvalidConfig("slice", s, "sample index must be a non-negative integer")
		}
		return SliceSample(k), nil
	}
	return Slice{}, dataerr.InvalidConfig("slice", s, "must be first, all or sample:<k>")
}

func (s Slice) String() string {
	switch {
	case s.kind == sliceAll:
		return "all"
	case s.index == 0:
		return "first"
	}
	return fmt.Sprintf("sample:%d", s.index)
}

// bounds returns the sample range [from, to) the slice covers in a set of n samples.
func (s Slice) bounds(n int) (from, to int, err error) {
	if s.kind == sliceAll {
		return 0, n, nil
	}
	if s.index < 0 || s.index >= n {
		return 0, 0, dataerr.InvalidConfig("slice", s.String(), "sample index out of range [0:%d)", n)
	}
	return s.index, s.index + 1, nil
}

type options struct {
	metrics []string
	slice   Slice
}

var defaultOptions = options{
	metrics: []string{MetricMSE, MetricMAE},
	slice:   SliceFirst,
}

type Option func(*options)

// WithMetrics replaces the default metric list (mse, mae). An empty list
// keeps the defaults.
func WithMetrics(names ...string) Option {
	return func(o *options) {
		if len(names) == 0 {
			return
		}
		o.metrics = append([]string(nil), names...)
	}
}

// WithSlice selects the samples that feed the metrics. Default is SliceFirst.
func WithSlice(s Slice) Option {
	return func(o *options) {
		o.slice = s
	}
}

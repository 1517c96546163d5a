package window

import (
	"errors"
	"sync"
	"testing"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/table/tabletest"
)

func TestCount(t *testing.T) {
	tests := []struct {
		name     string
		l        int
		nIn      int
		nOut     int
		expected int
	}{
		{name: "too_short_clamped", l: 30, nIn: 24, nOut: 12, expected: 0},
		{name: "exact_fit", l: 35, nIn: 24, nOut: 12, expected: 1},
		{name: "two_samples", l: 36, nIn: 24, nOut: 12, expected: 2},
		{name: "one_by_one", l: 5, nIn: 1, nOut: 1, expected: 5},
		{name: "one_short_of_fit", l: 34, nIn: 24, nOut: 12, expected: 0},
		{name: "empty_partition", l: 0, nIn: 1, nOut: 1, expected: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Count(test.l, test.nIn, test.nOut); got != test.expected {
				t.Errorf("calling Count, got: %d, expected: %d", got, test.expected)
			}
		})
	}
}

func TestExtractOriginalHorizon(t *testing.T) {
	tbl := tabletest.Sequential(36, 5)
	set, err := Extract(tbl.View(0, 36), 24, 12)
	if err != nil {
		t.Fatalf("calling Extract, err got: %v, expected: nil", err)
	}
	if set.InputShape() != [3]int{2, 24, 5} {
		t.Fatalf("input shape got: %v, expected: [2 24 5]", set.InputShape())
	}
	if set.OutputShape() != [2]int{2, 12} {
		t.Fatalf("output shape got: %v, expected: [2 12]", set.OutputShape())
	}

	tests := []struct {
		name        string
		sample      int
		inputFrom   int
		outputFrom  int
		outputUntil int
	}{
		{name: "sample_0", sample: 0, inputFrom: 0, outputFrom: 23, outputUntil: 35},
		{name: "sample_1", sample: 1, inputFrom: 1, outputFrom: 24, outputUntil: 36},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := set.Sample(test.sample)
			if s.Start != test.inputFrom || len(s.Input) != 24 {
				t.Errorf("input window got: start %d len %d, expected: start %d len 24", s.Start, len(s.Input), test.inputFrom)
			}
			for step, row := range s.Input {
				expected := tbl.ValuesAt(test.inputFrom + step)
				if !expected.Equal(row) {
					t.Errorf("input step %d got: %v, expected: %v", step, row, expected)
				}
			}
			if len(s.Output) != test.outputUntil-test.outputFrom {
				t.Fatalf("output len got: %d, expected: %d", len(s.Output), test.outputUntil-test.outputFrom)
			}
			for step, v := range s.Output {
				// the generated target of row r is r
				if v != float64(test.outputFrom+step) {
					t.Errorf("output step %d got: %v, expected: %v", step, v, test.outputFrom+step)
				}
			}
		})
	}
}

func TestExtractTooShortPartition(t *testing.T) {
	tbl := tabletest.Sequential(30, 5)
	set, err := Extract(tbl.View(0, 30), 24, 12)
	if err != nil {
		t.Fatalf("calling Extract, err got: %v, expected: nil", err)
	}
	if set.Len() != 0 {
		t.Errorf("sample count got: %d, expected: 0", set.Len())
	}
	if set.InputShape() != [3]int{0, 24, 5} || set.OutputShape() != [2]int{0, 12} {
		t.Errorf("empty shapes got: %v %v", set.InputShape(), set.OutputShape())
	}
	if set.Outputs() != nil || set.FlatInputs() != nil {
		t.Errorf("stacked tensors of an empty set must be nil")
	}
}

func TestExtractSampleCount(t *testing.T) {
	for l := 0; l <= 40; l++ {
		for nIn := 1; nIn <= 6; nIn++ {
			for nOut := 1; nOut <= 6; nOut++ {
				set, err := Extract(tabletest.Sequential(l, 2), nIn, nOut)
				if err != nil {
					t.Fatalf("Extract(L=%d, %d, %d) err got: %v", l, nIn, nOut, err)
				}
				expected := 0
				if l >= nIn+nOut-1 {
					expected = l - nIn - nOut + 2
				}
				if set.Len() != expected {
					t.Errorf("Extract(L=%d, %d, %d) count got: %d, expected: %d", l, nIn, nOut, set.Len(), expected)
				}
			}
		}
	}
}

func TestExtractOverlapInvariant(t *testing.T) {
	tbl := tabletest.Sequential(100, 3)
	view := tbl.View(40, 90)
	set, err := Extract(view, 7, 4)
	if err != nil {
		t.Fatalf("calling Extract, err got: %v, expected: nil", err)
	}
	for i := 0; i < set.Len(); i++ {
		if set.OutputIndex(i, 0) != set.InputIndex(i, 6) {
			t.Errorf(
				"sample %d first output index got: %d, expected last input index: %d",
				i, set.OutputIndex(i, 0), set.InputIndex(i, 6),
			)
		}
		if set.InputIndex(i, 0) != view.SourceIndex(i) {
			t.Errorf("sample %d start got: %d, expected: %d", i, set.InputIndex(i, 0), view.SourceIndex(i))
		}
		s := set.Sample(i)
		if s.OutputStart() != s.InputEnd() {
			t.Errorf("sample %d output start %d != input end %d", i, s.OutputStart(), s.InputEnd())
		}
		if s.Output[0] != float64(s.InputEnd()) {
			t.Errorf("sample %d first output got: %v, expected target of row %d", i, s.Output[0], s.InputEnd())
		}
		last := s.Output[len(s.Output)-1]
		if int(last) >= view.End() {
			t.Errorf("sample %d reads row %v past partition end %d", i, last, view.End())
		}
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	view := tabletest.Sequential(64, 4).View(10, 64)
	first, err := Extract(view, 8, 3)
	if err != nil {
		t.Fatalf("calling Extract, err got: %v, expected: nil", err)
	}
	second, err := Extract(view, 8, 3)
	if err != nil {
		t.Fatalf("calling Extract, err got: %v, expected: nil", err)
	}
	if !first.Equal(second) {
		t.Errorf("re-running Extract produced a different sample set")
	}
	if first.Fingerprint() != second.Fingerprint() {
		t.Errorf("re-running Extract produced a different fingerprint")
	}
	other, _ := Extract(view, 8, 2)
	if first.Fingerprint() == other.Fingerprint() {
		t.Errorf("different window lengths must not share a fingerprint")
	}
}

func TestExtractConcurrentPartitions(t *testing.T) {
	tbl := tabletest.Sequential(300, 3)
	views := []struct{ start, end int }{{0, 210}, {210, 240}, {240, 300}}
	sequential := make([]*SampleSet, len(views))
	for i, v := range views {
		set, err := Extract(tbl.View(v.start, v.end), 12, 6)
		if err != nil {
			t.Fatalf("calling Extract, err got: %v", err)
		}
		sequential[i] = set
	}

	concurrent := make([]*SampleSet, len(views))
	var wg sync.WaitGroup
	for i, v := range views {
		wg.Add(1)
		go func(i, start, end int) {
			defer wg.Done()
			set, err := Extract(tbl.View(start, end), 12, 6)
			if err != nil {
				t.Errorf("calling Extract, err got: %v", err)
				return
			}
			concurrent[i] = set
		}(i, v.start, v.end)
	}
	wg.Wait()
	for i := range views {
		if !sequential[i].Equal(concurrent[i]) {
			t.Errorf("partition %d differs between sequential and concurrent extraction", i)
		}
	}
}

func TestExtractInvalidSteps(t *testing.T) {
	tests := []struct {
		name  string
		nIn   int
		nOut  int
		field string
	}{
		{name: "zero_in", nIn: 0, nOut: 1, field: "nStepsIn"},
		{name: "negative_in", nIn: -3, nOut: 1, field: "nStepsIn"},
		{name: "zero_out", nIn: 1, nOut: 0, field: "nStepsOut"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Extract(tabletest.Sequential(10, 1), test.nIn, test.nOut)
			var cfgErr *dataerr.InvalidConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("calling Extract, err got: %v, expected: *dataerr.InvalidConfigurationError", err)
			}
			if cfgErr.Field != test.field {
				t.Errorf("offending field got: %s, expected: %s", cfgErr.Field, test.field)
			}
		})
	}
}

func TestSampleSetAccessorsCopy(t *testing.T) {
	set, err := Extract(tabletest.Sequential(10, 2), 3, 2)
	if err != nil {
		t.Fatalf("calling Extract, err got: %v", err)
	}
	out := set.Output(0)
	out[0] = -1
	if set.Output(0)[0] == -1 {
		t.Errorf("Output must return a copy")
	}
	in := set.Input(0)
	if r, c := in.Dims(); r != 3 || c != 2 {
		t.Errorf("Input dims got: %dx%d, expected: 3x2", r, c)
	}
	in.Set(0, 0, -1)
	if set.Input(0).At(0, 0) == -1 {
		t.Errorf("Input must return a copy")
	}
	flat := set.FlatInputs()
	if r, c := flat.Dims(); r != set.Len() || c != 6 {
		t.Errorf("FlatInputs dims got: %dx%d, expected: %dx6", r, c, set.Len())
	}
	// sample 1, step 2, feature 1 is row 3 feature 1
	if got := flat.At(1, 2*2+1); got != 302 {
		t.Errorf("FlatInputs(1, 5) got: %v, expected: 302", got)
	}
	outs := set.Outputs()
	if got := outs.At(2, 1); got != 5 {
		t.Errorf("Outputs(2, 1) got: %v, expected: 5", got)
	}
}

// Package partition splits an ordered table into chronological train,
// validation and test ranges.
package partition

import (
	"math"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/table"
)

const (
	NameTrain = "train"
	NameVal   = "val"
	NameTest  = "test"
)

// Splits holds three contiguous, disjoint views that cover the whole table in
// order: Train precedes Val, Val precedes Test.
type Splits struct {
	Train table.View
	Val   table.View
	Test  table.View
}

// Lens returns the three partition lengths in chronological order.
func (s Splits) Lens() [3]int {
	return [3]int{s.Train.Len(), s.Val.Len(), s.Test.Len()}
}

// sizes computes floor(n*trainFraction), floor(n*valFraction) and the
// remainder, which always goes to the test partition.
func sizes(n int, trainFraction, valFraction float64) (train, val, test int, err error) {
	if err := ValidateFractions(trainFraction, valFraction); err != nil {
		return 0, 0, 0, err
	}
	train = int(math.Floor(float64(n) * trainFraction))
	val = int(math.Floor(float64(n) * valFraction))
	return train, val, n - train - val, nil
}

// Split partitions t by row-count proportions. No rows are copied; the
// returned views share t's storage.
func Split(t *table.Table, trainFraction, valFraction float64) (Splits, error) {
	n := t.RowCount()
	trainLen, valLen, _, err := sizes(n, trainFraction, valFraction)
	if err != nil {
		return Splits{}, err
	}
	return Splits{
		Train: t.View(0, trainLen),
		Val:   t.View(trainLen, trainLen+valLen),
		Test:  t.View(trainLen+valLen, n),
	}, nil
}

// ValidateFractions checks that both fractions lie in the open interval (0,1)
// and leave room for a test partition.
func ValidateFractions(trainFraction, valFraction float64) error {
	if !inOpenUnit(trainFraction) {
		return dataerr.InvalidConfig("trainFraction", trainFraction, "must be in (0,1)")
	}
	if !inOpenUnit(valFraction) {
		return dataerr.InvalidConfig("valFraction", valFraction, "must be in (0,1)")
	}
	if sum := trainFraction + valFraction; sum >= 1 {
		return dataerr.InvalidConfig("trainFraction+valFraction", sum, "must be < 1")
	}
	return nil
}

// NaN fails both comparisons.
func inOpenUnit(f float64) bool {
	return f > 0 && f < 1
}

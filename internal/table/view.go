package table

import (
	"fmt"
	"time"

	"github.com/go-sod/seqwin/internal/geom"
)

// View is a contiguous, read-only sub-range [start, end) of a Table. Row
// indices passed to a View are relative to its start.
type View struct {
	t          *Table
	start, end int
}

func (v View) Start() int {
	return v.start
}

func (v View) End() int {
	return v.end
}

func (v View) Len() int {
	return v.end - v.start
}

func (v View) FeatureCount() int {
	if v.t == nil {
		return 0
	}
	return v.t.FeatureCount()
}

func (v View) ValuesAt(i int) geom.Point {
	return v.t.ValuesAt(v.abs(i))
}

func (v View) ReadFeatures(i int, dst []float64) []float64 {
	return v.t.ReadFeatures(v.abs(i), dst)
}

func (v View) TargetAt(i int) float64 {
	return v.t.TargetAt(v.abs(i))
}

func (v View) TimeAt(i int) time.Time {
	return v.t.TimeAt(v.abs(i))
}

// SourceIndex returns the table row index behind view row i.
func (v View) SourceIndex(i int) int {
	return v.abs(i)
}

// Table returns the backing table.
func (v View) Table() *Table {
	return v.t
}

func (v View) String() string {
	return fmt.Sprintf("[%d:%d)", v.start, v.end)
}

func (v View) abs(i int) int {
	if i < 0 || i >= v.Len() {
		panic(fmt.Sprintf("table: view row index %d out of range [0:%d)", i, v.Len()))
	}
	return v.start + i
}

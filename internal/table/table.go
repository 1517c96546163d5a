// Package table implements the ordered, read-only multivariate dataset the
// windowing pipeline consumes.
//
// A Table is built once from rows that are already sorted by timestamp and is
// never mutated afterwards. One field is the target; every other field is a
// feature. Rows are kept in a gonum dense matrix (rows x fields).
package table

import (
	"fmt"
	"time"

	"github.com/go-sod/seqwin/internal/dataerr"
	"github.com/go-sod/seqwin/internal/geom"
	"gonum.org/v1/gonum/mat"
)

// Row is one raw observation: a timestamp and one value per declared field.
type Row struct {
	Time   time.Time
	Values []float64
}

// Table is an immutable, time-sorted dataset with a designated target column.
type Table struct {
	fields   []string
	target   int
	features []int
	times    []time.Time
	// nil when the table has no rows; mat.NewDense rejects zero dimensions
	data *mat.Dense
}

// New validates rows against fields and builds a Table.
//
// It fails with *dataerr.MalformedInputError when the field set is empty or
// has duplicates, the target is not a declared field, no feature is left, a
// row width differs from the field count, or timestamps are not strictly
// ascending.
func New(fields []string, target string, rows []Row) (*Table, error) {
	if len(fields) == 0 {
		return nil, dataerr.Malformed(-1, "empty field set")
	}
	targetIdx := -1
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if _, ok := seen[f]; ok {
			return nil, dataerr.Malformed(-1, "duplicate field %q", f)
		}
		seen[f] = struct{}{}
		if f == target {
			targetIdx = i
		}
	}
	if targetIdx < 0 {
		return nil, dataerr.Malformed(-1, "target %q is not one of the fields %v", target, fields)
	}
	if len(fields) < 2 {
		return nil, dataerr.Malformed(-1, "no feature fields besides target %q", target)
	}

	width := len(fields)
	flat := make([]float64, 0, len(rows)*width)
	times := make([]time.Time, len(rows))
	for i, row := range rows {
		if len(row.Values) != width {
			return nil, dataerr.Malformed(i, "row has %d values, expected %d", len(row.Values), width)
		}
		if i > 0 && !row.Time.After(rows[i-1].Time) {
			return nil, dataerr.Malformed(
				i,
				"timestamp %s is not after previous timestamp %s",
				row.Time.Format(time.RFC3339Nano),
				rows[i-1].Time.Format(time.RFC3339Nano),
			)
		}
		times[i] = row.Time
		flat = append(flat, row.Values...)
	}

	t := &Table{
		fields: append([]string(nil), fields...),
		target: targetIdx,
		times:  times,
	}
	for i := range fields {
		if i != targetIdx {
			t.features = append(t.features, i)
		}
	}
	if len(rows) > 0 {
		t.data = mat.NewDense(len(rows), width, flat)
	}
	return t, nil
}

func (t *Table) RowCount() int {
	return len(t.times)
}

// Len is RowCount; it lets a Table be windowed directly.
func (t *Table) Len() int {
	return t.RowCount()
}

func (t *Table) FieldCount() int {
	return len(t.fields)
}

func (t *Table) FeatureCount() int {
	return len(t.features)
}

func (t *Table) Fields() []string {
	return append([]string(nil), t.fields...)
}

// Features returns the feature field names in declaration order.
func (t *Table) Features() []string {
	names := make([]string, len(t.features))
	for i, idx := range t.features {
		names[i] = t.fields[idx]
	}
	return names
}

func (t *Table) Target() string {
	return t.fields[t.target]
}

// ValuesAt returns a copy of the feature vector of row i, target excluded.
func (t *Table) ValuesAt(i int) geom.Point {
	return geom.Point(t.ReadFeatures(i, make([]float64, len(t.features))))
}

// ReadFeatures copies the features of row i into dst, which must hold
// FeatureCount values, and returns it.
func (t *Table) ReadFeatures(i int, dst []float64) []float64 {
	t.check(i)
	raw := t.data.RawRowView(i)
	for j, idx := range t.features {
		dst[j] = raw[idx]
	}
	return dst
}

func (t *Table) TargetAt(i int) float64 {
	t.check(i)
	return t.data.At(i, t.target)
}

// Row returns row i with every field value, target included, in field order.
func (t *Table) Row(i int) Row {
	t.check(i)
	return Row{Time: t.times[i], Values: append([]float64(nil), t.data.RawRowView(i)...)}
}

func (t *Table) TimeAt(i int) time.Time {
	t.check(i)
	return t.times[i]
}

// SourceIndex maps a row index to the table row index; for a Table it is the identity.
func (t *Table) SourceIndex(i int) int {
	return i
}

// View returns a read-only window over rows [start, end) sharing this
// table's storage.
func (t *Table) View(start, end int) View {
	if start < 0 || end > t.RowCount() || start > end {
		panic(fmt.Sprintf("table: view [%d:%d) out of range with %d rows", start, end, t.RowCount()))
	}
	return View{t: t, start: start, end: end}
}

func (t *Table) check(i int) {
	if i < 0 || i >= len(t.times) {
		panic(fmt.Sprintf("table: row index %d out of range [0:%d)", i, len(t.times)))
	}
}

// Package tabletest builds deterministic tables for tests in other packages.
package tabletest

import (
	"fmt"
	"time"

	"github.com/go-sod/seqwin/internal/table"
)

// Epoch is the timestamp of row 0 in every generated table.
var Epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Rows returns n hourly rows with features+1 fields. The target (last field)
// of row i equals i and feature j of row i equals i*100+j+1, so any value read
// back identifies its source row.
func Rows(n, features int) []table.Row {
	rows := make([]table.Row, n)
	for i := range rows {
		values := make([]float64, features+1)
		for j := 0; j < features; j++ {
			values[j] = float64(i*100 + j + 1)
		}
		values[features] = float64(i)
		rows[i] = table.Row{Time: Epoch.Add(time.Duration(i) * time.Hour), Values: values}
	}
	return rows
}

// Fields returns f0..f{features-1} followed by the target field "y".
func Fields(features int) []string {
	fields := make([]string, 0, features+1)
	for j := 0; j < features; j++ {
		fields = append(fields, fmt.Sprintf("f%d", j))
	}
	return append(fields, "y")
}

// Sequential builds a table from Rows and Fields. It panics on error since the
// generated input is always well formed.
func Sequential(n, features int) *table.Table {
	t, err := table.New(Fields(features), "y", Rows(n, features))
	if err != nil {
		panic(err)
	}
	return t
}

package model

import (
	"sort"
	"time"

	"github.com/go-sod/seqwin/internal/dataerr"
)

type Row struct {
	Time   time.Time `json:"time"`
	Values []float64 `json:"values"`
}

// Batch is the wire form of a set of rows pushed to or pulled for a dataset.
type Batch struct {
	Dataset string   `json:"dataset"`
	Fields  []string `json:"fields,omitempty"`
	Data    []Row    `json:"data"`
}

// Observations checks and converts the rows, then sorts them by time. With
// Fields set, every row must carry one value per field; a malformed row is
// reported by its position in Data.
func (b Batch) Observations() ([]Observation, error) {
	if b.Dataset == "" {
		return nil, dataerr.InvalidConfig("dataset", b.Dataset, "is required")
	}
	list := make([]Observation, 0, len(b.Data))
	for i, row := range b.Data {
		if len(b.Fields) > 0 && len(row.Values) != len(b.Fields) {
			return nil, dataerr.Malformed(i, "has %d values, expected %d", len(row.Values), len(b.Fields))
		}
		list = append(list, NewObservation(b.Dataset, row.Time, row.Values))
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Time.Before(list[j].Time)
	})
	return list, nil
}

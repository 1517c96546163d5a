package model

import (
	"time"

	"github.com/google/uuid"
)

func NewObservation(dataset string, at time.Time, values []float64) Observation {
	return Observation{
		ID:        uuid.New(),
		Dataset:   dataset,
		Time:      at.UTC(),
		Values:    append([]float64(nil), values...),
		CreatedAt: time.Now().UTC(),
	}
}

// Observation is one timestamped row of a dataset. Values follow the
// dataset's field order.
type Observation struct {
	ID        uuid.UUID `json:"id"`
	Dataset   string    `json:"dataset"`
	Time      time.Time `json:"time"`
	Values    []float64 `json:"values"`
	CreatedAt time.Time `json:"createdAt"`
}

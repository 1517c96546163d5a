package model

import (
	"time"

	"github.com/go-sod/seqwin/internal/pipeline"
	"github.com/google/uuid"
)

// NewNotification summarises rep for delivery to the target URL.
func NewNotification(target string, rep *pipeline.Report) Notification {
	return Notification{
		ID:        uuid.New(),
		Target:    target,
		ReportID:  rep.ID,
		Dataset:   rep.Dataset,
		Predictor: rep.Predictor,
		Slice:     rep.Evaluation.Slice,
		Metrics:   rep.Evaluation.Metrics,
		CreatedAt: time.Now().UTC(),
	}
}

type Notification struct {
	ID        uuid.UUID          `json:"id"`
	Target    string             `json:"target"`
	ReportID  uuid.UUID          `json:"reportId"`
	Dataset   string             `json:"dataset"`
	Predictor string             `json:"predictor"`
	Slice     string             `json:"slice"`
	Metrics   map[string]float64 `json:"metrics"`
	CreatedAt time.Time          `json:"createdAt"`
}

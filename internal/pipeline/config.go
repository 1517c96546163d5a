package pipeline

import (
	"github.com/go-sod/seqwin/internal/partition"
	"github.com/go-sod/seqwin/internal/window"
)

// Config carries the split fractions and window lengths. The zero value is
// invalid; defaults are applied by the configuration layer only.
type Config struct {
	TrainFraction float64 `envconfig:"SEQWIN_TRAIN_FRACTION" default:"0.7" toml:"train_fraction" json:"trainFraction"`
	ValFraction   float64 `envconfig:"SEQWIN_VAL_FRACTION" default:"0.1" toml:"val_fraction" json:"valFraction"`
	StepsIn       int     `envconfig:"SEQWIN_STEPS_IN" default:"24" toml:"steps_in" json:"stepsIn"`
	StepsOut      int     `envconfig:"SEQWIN_STEPS_OUT" default:"12" toml:"steps_out" json:"stepsOut"`
}

// Validate fails with a *dataerr.InvalidConfigurationError naming the first
// offending field.
func (c Config) Validate() error {
	if err := partition.ValidateFractions(c.TrainFraction, c.ValFraction); err != nil {
		return err
	}
	return window.ValidateSteps(c.StepsIn, c.StepsOut)
}

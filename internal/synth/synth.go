// Package synth generates a deterministic hourly weather and power series
// for demos and tests when no CSV is at hand.
package synth

import (
	"math"
	"time"

	"github.com/go-sod/seqwin/internal/table"
	"github.com/valyala/fastrand"
)

// Fields are pressure, humidity, temperature, wind direction, wind speed and
// power; power is the target.
var Fields = []string{"PS", "QV10M", "Ot", "Wa", "Ws", "P"}

const Target = "P"

var DefaultStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type Option func(*generator)

// WithSeed fixes the generator seed. Zero picks a random one.
func WithSeed(seed uint32) Option {
	return func(g *generator) {
		g.rng.Seed(seed)
	}
}

func WithStart(start time.Time) Option {
	return func(g *generator) {
		g.start = start
	}
}

func WithStep(step time.Duration) Option {
	return func(g *generator) {
		g.step = step
	}
}

// WithNoise scales the uniform noise added to every field. Zero gives a
// smooth series.
func WithNoise(noise float64) Option {
	return func(g *generator) {
		g.noise = noise
	}
}

type generator struct {
	rng   fastrand.RNG
	start time.Time
	step  time.Duration
	noise float64
}

// uniform returns a value in [-1, 1).
func (g *generator) uniform() float64 {
	return float64(g.rng.Uint32n(1<<24))/float64(1<<23) - 1
}

func (g *generator) jitter(scale float64) float64 {
	if g.noise == 0 {
		return 0
	}
	return g.noise * scale * g.uniform()
}

// Rows returns n rows. The same options always give the same rows.
func Rows(n int, opts ...Option) []table.Row {
	g := &generator{start: DefaultStart, step: time.Hour, noise: 1}
	g.rng.Seed(1)
	for _, f := range opts {
		f(g)
	}

	rows := make([]table.Row, n)
	for i := range rows {
		day := 2 * math.Pi * float64(i) / 24
		ps := 101.3 + 0.4*math.Sin(day/7) + g.jitter(0.05)
		qv := 0.008 + 0.002*math.Cos(day) + g.jitter(0.0005)
		ot := 15 + 8*math.Sin(day-math.Pi/2) + g.jitter(0.5)
		wa := math.Mod(180+90*math.Sin(day/3)+g.jitter(10)+360, 360)
		ws := math.Max(0, 6+3*math.Sin(day/2)+g.jitter(0.5))
		p := math.Min(2000, 0.5*ws*ws*ws) * (1 - 0.002*(ot-15))
		rows[i] = table.Row{
			Time:   g.start.Add(time.Duration(i) * g.step),
			Values: []float64{ps, qv, ot, wa, ws, p},
		}
	}
	return rows
}

// Table builds a table of n generated rows targeting P.
func Table(n int, opts ...Option) (*table.Table, error) {
	return table.New(Fields, Target, Rows(n, opts...))
}

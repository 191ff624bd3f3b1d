package dataset

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// Profile is the normal and pre-failure distribution of a sensor.
type Profile struct {
	NormalMean, NormalStd   float64
	FailureMean, FailureStd float64
}

// Profiles hold typical readings for common SCADA sensors. Unknown sensors
// use GenericProfile.
var Profiles = map[string]Profile{
	"temperature":       {75, 5, 95, 10},
	"pressure":          {100, 8, 130, 15},
	"vibration":         {2.5, 0.5, 8.0, 2.0},
	"current":           {15, 2, 25, 5},
	"voltage":           {240, 5, 220, 10},
	"rpm":               {1800, 50, 1600, 100},
	"power_consumption": {5000, 200, 6500, 500},
	"flow_rate":         {50, 5, 35, 8},
}

// GenericProfile is used for sensors missing from Profiles.
var GenericProfile = Profile{50, 10, 80, 15}

// SyntheticConfig describes a generated table.
type SyntheticConfig struct {
	Rows              int
	Seed              uint64
	Start             time.Time
	Interval          time.Duration
	ContinuousColumns []string
	BooleanColumns    []string
	TimestampColumn   string
	TargetColumn      string
	// FailureRate is the trailing share of rows in the failure regime.
	FailureRate float64
	// MissingRate blanks that share of sensor cells at random.
	MissingRate float64
}

func (c SyntheticConfig) withDefaults() SyntheticConfig {
	if c.Start.IsZero() {
		c.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	if c.TimestampColumn == "" {
		c.TimestampColumn = "timestamp"
	}
	if c.TargetColumn == "" {
		c.TargetColumn = "failure_indicator"
	}
	if c.FailureRate <= 0 || c.FailureRate >= 1 {
		c.FailureRate = 0.2
	}
	return c
}

// Synthetic generates a reproducible SCADA table: readings drawn from the
// normal profile followed by a failure regime, a timestamp column and a
// binary target marking the failure regime. Identical configs produce
// identical tables.
func Synthetic(cfg SyntheticConfig) (*table.Table, error) {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	n := cfg.Rows
	failureStart := n - int(float64(n)*cfg.FailureRate)

	times := make([]time.Time, n)
	target := make([]float64, n)
	for i := range times {
		times[i] = cfg.Start.Add(time.Duration(i) * cfg.Interval)
		if i >= failureStart {
			target[i] = 1
		}
	}

	cols := []*table.Column{table.NewTimeColumn(cfg.TimestampColumn, times)}
	for _, name := range cfg.ContinuousColumns {
		p, ok := Profiles[name]
		if !ok {
			p = GenericProfile
		}
		values := make([]float64, n)
		for i := range values {
			if i >= failureStart {
				values[i] = rng.NormFloat64()*p.FailureStd + p.FailureMean
			} else {
				values[i] = rng.NormFloat64()*p.NormalStd + p.NormalMean
			}
		}
		blank(rng, values, cfg.MissingRate)
		cols = append(cols, table.NewFloatColumn(name, values))
	}
	for _, name := range cfg.BooleanColumns {
		values := make([]float64, n)
		for i := range values {
			prob := 0.05
			if i >= failureStart {
				prob = 0.6
			}
			if rng.Float64() < prob {
				values[i] = 1
			}
		}
		blank(rng, values, cfg.MissingRate)
		cols = append(cols, table.NewBoolColumn(name, values))
	}
	cols = append(cols, table.NewBoolColumn(cfg.TargetColumn, target))

	return table.New(cols...)
}

func blank(rng *rand.Rand, values []float64, rate float64) {
	if rate <= 0 {
		return
	}
	for i := range values {
		if rng.Float64() < rate {
			values[i] = math.NaN()
		}
	}
}

package features

import (
	"context"
	"math"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// RateOfChange adds first and second differences and the percentage change
// of every continuous column.
type RateOfChange struct{}

// ID returns the stage identifier.
func (RateOfChange) ID() string { return StageRate }

// Name returns the stage name used in logs and errors.
func (RateOfChange) Name() string { return "Rate of change" }

// Diff returns x[i] - x[i-1]; the first row is missing.
func Diff(x []float64) []float64 {
	out := nanSeries(len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	return out
}

// PctChange returns x[i]/x[i-1] - 1, missing when x[i-1] is zero or missing.
func PctChange(x []float64) []float64 {
	out := nanSeries(len(x))
	for i := 1; i < len(x); i++ {
		prev := x[i-1]
		if prev == 0 || math.IsNaN(prev) {
			continue
		}
		out[i] = x[i]/prev - 1
	}
	return out
}

// Apply appends first differences and percentage changes.
func (RateOfChange) Apply(ctx context.Context, t *table.Table, env Env) (*table.Table, error) {
	env.logger().DebugContext(ctx, "creating rate of change features")

	present, err := env.presentContinuous(t)
	if err != nil {
		return nil, err
	}
	cols, err := forEachColumn(ctx, env, t, present, func(name string, x []float64) []*table.Column {
		roc := Diff(x)
		return []*table.Column{
			table.NewFloatColumn(schema.ROCName(name), roc),
			table.NewFloatColumn(schema.AccelerationName(name), Diff(roc)),
			table.NewFloatColumn(schema.PctChangeName(name), PctChange(x)),
		}
	})
	if err != nil {
		return nil, err
	}
	return appendColumns(t, cols...)
}

package features

import (
	"context"

	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// Lag shifts every continuous column by each configured lag.
type Lag struct{}

// ID returns the stage identifier.
func (Lag) ID() string { return StageLag }

// Name returns the stage name used in logs and errors.
func (Lag) Name() string { return "Lag features" }

// LagPeriod converts a lag in seconds to a row offset, at least one row.
func LagPeriod(lagSeconds, intervalSeconds int) int {
	p := lagSeconds / intervalSeconds
	if p < 1 {
		return 1
	}
	return p
}

// Shift returns x delayed by period rows; the first period rows are missing.
func Shift(x []float64, period int) []float64 {
	out := nanSeries(len(x))
	for i := period; i < len(x); i++ {
		out[i] = x[i-period]
	}
	return out
}

// Apply appends one shifted column per continuous column and configured lag.
func (Lag) Apply(ctx context.Context, t *table.Table, env Env) (*table.Table, error) {
	lags := env.Schema.LagSeconds()
	if len(lags) == 0 {
		return t, nil
	}
	interval := env.Data.SamplingIntervalSeconds()
	if interval <= 0 {
		return nil, ferrors.NewConfigurationError("sampling interval must be positive, got %d minutes", env.Data.SamplingIntervalMinutes)
	}

	env.logger().DebugContext(ctx, "creating lag features", "lags", lags, "interval_seconds", interval)

	present, err := env.presentContinuous(t)
	if err != nil {
		return nil, err
	}
	cols, err := forEachColumn(ctx, env, t, present, func(name string, x []float64) []*table.Column {
		out := make([]*table.Column, 0, len(lags))
		for _, lag := range lags {
			out = append(out, table.NewFloatColumn(schema.LagName(name, lag), Shift(x, LagPeriod(lag, interval))))
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	return appendColumns(t, cols...)
}

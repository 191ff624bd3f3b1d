package features

import (
	"context"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// Rolling computes trailing window statistics for every continuous column.
// Windows count samples and need one valid value; the standard deviation
// needs two.
type Rolling struct{}

// ID returns the stage identifier.
func (Rolling) ID() string { return StageRolling }

// Name returns the stage name used in logs and errors.
func (Rolling) Name() string { return "Rolling window statistics" }

var rollingFuncs = map[string]func([]float64) float64{
	schema.StatMean: windowMean,
	schema.StatStd:  windowStd,
	schema.StatMin:  windowMin,
	schema.StatMax:  windowMax,
}

// Apply appends trailing window statistics per window and continuous column.
func (Rolling) Apply(ctx context.Context, t *table.Table, env Env) (*table.Table, error) {
	windows := env.Schema.RollingWindows()
	if len(windows) == 0 {
		return t, nil
	}

	env.logger().DebugContext(ctx, "creating rolling features", "windows", windows)

	present, err := env.presentContinuous(t)
	if err != nil {
		return nil, err
	}
	cols, err := forEachColumn(ctx, env, t, present, func(name string, x []float64) []*table.Column {
		out := make([]*table.Column, 0, len(windows)*len(schema.RollingStats))
		for _, w := range windows {
			for _, st := range schema.RollingStats {
				out = append(out, table.NewFloatColumn(schema.RollingName(name, st, w), rolling(x, w, rollingFuncs[st])))
			}
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	return appendColumns(t, cols...)
}

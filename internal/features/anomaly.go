package features

import (
	"context"
	"math"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

const (
	// AnomalyThreshold is the absolute z-score above which a reading is flagged.
	AnomalyThreshold = 3.0
	// distanceWindow is the rolling mean window for distance_from_mean.
	distanceWindow = 20
)

// Anomaly adds z-scores over the full series, a threshold flag and the
// distance from a trailing mean for every continuous column.
type Anomaly struct{}

// ID returns the stage identifier.
func (Anomaly) ID() string { return StageAnomaly }

// Name returns the stage name used in logs and errors.
func (Anomaly) Name() string { return "Anomaly indicators" }

// Apply appends z-score, outlier flag and distance-from-mean columns for every
// present continuous column.
func (Anomaly) Apply(ctx context.Context, t *table.Table, env Env) (*table.Table, error) {
	env.logger().DebugContext(ctx, "creating anomaly features")

	present, err := env.presentContinuous(t)
	if err != nil {
		return nil, err
	}
	cols, err := forEachColumn(ctx, env, t, present, func(name string, x []float64) []*table.Column {
		mean, std := MeanStd(x)
		rm := RollingMean(x, distanceWindow)

		z := make([]float64, len(x))
		flag := make([]float64, len(x))
		dist := make([]float64, len(x))
		for i, v := range x {
			z[i] = (v - mean) / (std + epsilon)
			if math.Abs(z[i]) > AnomalyThreshold {
				flag[i] = 1
			}
			dist[i] = math.Abs(v - rm[i])
		}
		return []*table.Column{
			table.NewFloatColumn(schema.ZScoreName(name), z),
			table.NewBoolColumn(schema.AnomalyName(name), flag),
			table.NewFloatColumn(schema.DistanceFromMeanName(name), dist),
		}
	})
	if err != nil {
		return nil, err
	}
	return appendColumns(t, cols...)
}

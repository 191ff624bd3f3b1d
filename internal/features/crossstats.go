package features

import (
	"context"
	"math"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// Cross-variable statistic columns.
const (
	MeanAllContinuous  = "mean_all_continuous"
	StdAllContinuous   = "std_all_continuous"
	MinAllContinuous   = "min_all_continuous"
	MaxAllContinuous   = "max_all_continuous"
	RangeAllContinuous = "range_all_continuous"
	CVAllContinuous    = "cv_all_continuous"
)

// CrossStatNames lists the cross-variable columns in generation order.
var CrossStatNames = []string{
	MeanAllContinuous, StdAllContinuous, MinAllContinuous,
	MaxAllContinuous, RangeAllContinuous, CVAllContinuous,
}

// CrossStatistics computes row-wise statistics across the continuous
// columns. It needs at least two of them.
type CrossStatistics struct{}

// ID returns the stage identifier.
func (CrossStatistics) ID() string { return StageCrossStats }

// Name returns the stage name used in logs and errors.
func (CrossStatistics) Name() string { return "Cross-variable statistics" }

// Apply appends row-wise statistics across the present continuous columns.
// Fewer than two present columns leave t unchanged.
func (CrossStatistics) Apply(ctx context.Context, t *table.Table, env Env) (*table.Table, error) {
	names := env.Schema.ContinuousColumns()
	present, err := env.presentContinuous(t)
	if err != nil {
		return nil, err
	}
	if len(present) < 2 {
		env.logger().DebugContext(ctx, "skipping cross-variable statistics", "present", len(present), "declared", len(names))
		return t, nil
	}

	inputs := make([][]float64, len(present))
	for i, name := range present {
		inputs[i], _ = t.Floats(name)
	}

	n := t.NumRows()
	mean, std, lo, hi, rng, cv := make([]float64, n), make([]float64, n), make([]float64, n),
		make([]float64, n), make([]float64, n), make([]float64, n)
	row := make([]float64, len(inputs))
	for i := 0; i < n; i++ {
		for j, x := range inputs {
			row[j] = x[i]
		}
		mean[i], std[i] = MeanStd(row)
		v := valid(row)
		if len(v) == 0 {
			lo[i], hi[i] = math.NaN(), math.NaN()
		} else {
			lo[i], hi[i] = windowMin(v), windowMax(v)
		}
		rng[i] = hi[i] - lo[i]
		cv[i] = std[i] / (mean[i] + epsilon)
	}

	return appendColumns(t,
		table.NewFloatColumn(MeanAllContinuous, mean),
		table.NewFloatColumn(StdAllContinuous, std),
		table.NewFloatColumn(MinAllContinuous, lo),
		table.NewFloatColumn(MaxAllContinuous, hi),
		table.NewFloatColumn(RangeAllContinuous, rng),
		table.NewFloatColumn(CVAllContinuous, cv),
	)
}

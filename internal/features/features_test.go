package features

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/shared/testutil"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

var nan = math.NaN()

func newEnv(t *testing.T, cfg schema.Config) Env {
	t.Helper()
	s, err := schema.New(cfg)
	require.NoError(t, err)
	logger, _ := testutil.NewTestLogger(t)
	return Env{
		Schema:   s,
		Data:     config.DataConfig{SamplingIntervalMinutes: 1},
		Logger:   logger,
		Parallel: 4,
	}
}

func newTable(t *testing.T, cols ...*table.Column) *table.Table {
	t.Helper()
	tbl, err := table.New(cols...)
	require.NoError(t, err)
	return tbl
}

func floats(t *testing.T, tbl *table.Table, name string) []float64 {
	t.Helper()
	x, ok := tbl.Floats(name)
	require.True(t, ok, "missing column %s", name)
	return x
}

func assertSeries(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "row %d: want missing, got %v", i, got[i])
			continue
		}
		assert.InDelta(t, want[i], got[i], 1e-9, "row %d", i)
	}
}

func TestDefaultRegistry_Order(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{
		StageTimeEncoding, StageLag, StageRolling, StageRate,
		StageInteraction, StageCrossStats, StageAnomaly, StageDomain,
	}, r.ListIDs())
	assert.Equal(t, 8, r.Count())
	assert.True(t, r.Has(StageLag))

	g, err := r.Get(StageDomain)
	require.NoError(t, err)
	assert.Equal(t, "Domain-derived features", g.Name())

	_, err = r.Get("median")
	assert.Error(t, err)
	assert.Error(t, r.Register(Lag{}))
	assert.Error(t, r.Register(nil))
}

func TestLag(t *testing.T) {
	env := newEnv(t, schema.Config{
		ContinuousColumns: []string{"temperature"},
		LagSeconds:        []int{60, 180, 30},
		TargetColumn:      "failure",
	})
	x := []float64{1, 2, 3, 4, 5, 6}
	out, err := Lag{}.Apply(context.Background(), newTable(t, table.NewFloatColumn("temperature", x)), env)
	require.NoError(t, err)

	assertSeries(t, []float64{nan, 1, 2, 3, 4, 5}, floats(t, out, "temperature_lag_60s"))
	assertSeries(t, []float64{nan, nan, nan, 1, 2, 3}, floats(t, out, "temperature_lag_180s"))
	// Offsets below one interval still shift by one row.
	assertSeries(t, []float64{nan, 1, 2, 3, 4, 5}, floats(t, out, "temperature_lag_30s"))
}

func TestContinuousColumnTypes(t *testing.T) {
	env := newEnv(t, schema.Config{
		ContinuousColumns: []string{"temperature", "pressure"},
		LagSeconds:        []int{60},
		RollingWindows:    []int{2},
		TargetColumn:      "failure",
	})
	tbl := newTable(t,
		table.NewTextColumn("temperature", []string{"70.1", "sensor_fault", "70.4"}),
		table.NewFloatColumn("pressure", []float64{1, 2, 3}),
	)

	for _, g := range []Generator{Lag{}, Rolling{}, RateOfChange{}, CrossStatistics{}, Anomaly{}} {
		_, err := g.Apply(context.Background(), tbl, env)
		require.Error(t, err, g.ID())
		assert.True(t, ferrors.IsDataFormat(err), g.ID())
		var fe *ferrors.FeatureError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "temperature", fe.Column)
	}

	// An absent declared column is skipped, not rejected.
	out, err := Lag{}.Apply(context.Background(), newTable(t, table.NewFloatColumn("pressure", []float64{1, 2, 3})), env)
	require.NoError(t, err)
	assert.True(t, out.HasColumn("pressure_lag_60s"))
	assert.False(t, out.HasColumn("temperature_lag_60s"))
}

func TestLag_Identity(t *testing.T) {
	x := []float64{3.5, nan, 7, -2, 0, 11, 4.25, 9}
	for _, period := range []int{1, 2, 5, 8, 12} {
		out := Shift(x, period)
		for i := range x {
			if i < period {
				assert.True(t, math.IsNaN(out[i]))
				continue
			}
			if math.IsNaN(x[i-period]) {
				assert.True(t, math.IsNaN(out[i]))
			} else {
				assert.Equal(t, x[i-period], out[i])
			}
		}
	}

	assert.Equal(t, 1, LagPeriod(10, 300))
	assert.Equal(t, 2, LagPeriod(600, 300))
	assert.Equal(t, 2, LagPeriod(899, 300))
}

func TestLag_InvalidInterval(t *testing.T) {
	env := newEnv(t, schema.Config{ContinuousColumns: []string{"a"}, LagSeconds: []int{60}, TargetColumn: "y"})
	env.Data.SamplingIntervalMinutes = 0
	_, err := Lag{}.Apply(context.Background(), newTable(t, table.NewFloatColumn("a", []float64{1})), env)
	assert.True(t, ferrors.IsConfiguration(err))
}

func TestRolling(t *testing.T) {
	env := newEnv(t, schema.Config{
		ContinuousColumns: []string{"pressure"},
		RollingWindows:    []int{3},
		TargetColumn:      "failure",
	})
	x := []float64{4, 8, nan, 2, 10, nan, nan, nan}
	out, err := Rolling{}.Apply(context.Background(), newTable(t, table.NewFloatColumn("pressure", x)), env)
	require.NoError(t, err)

	assertSeries(t, []float64{4, 6, 6, 5, 6, 6, 10, nan}, floats(t, out, "pressure_rolling_mean_3"))
	assertSeries(t, []float64{nan, math.Sqrt(8), math.Sqrt(8), math.Sqrt(18), math.Sqrt(32), math.Sqrt(32), nan, nan},
		floats(t, out, "pressure_rolling_std_3"))
	assertSeries(t, []float64{4, 4, 4, 2, 2, 2, 10, nan}, floats(t, out, "pressure_rolling_min_3"))
	assertSeries(t, []float64{4, 8, 8, 8, 10, 10, 10, nan}, floats(t, out, "pressure_rolling_max_3"))

	assert.Equal(t, []string{
		"pressure",
		"pressure_rolling_mean_3", "pressure_rolling_std_3",
		"pressure_rolling_min_3", "pressure_rolling_max_3",
	}, out.ColumnNames())
}

func TestRolling_MaxNotBelowMin(t *testing.T) {
	env := newEnv(t, schema.Config{
		ContinuousColumns: []string{"v"},
		RollingWindows:    []int{1, 2, 5, 50},
		TargetColumn:      "failure",
	})
	x := make([]float64, 200)
	for i := range x {
		x[i] = math.Sin(float64(i)*0.7) * float64(i%13)
		if i%17 == 0 {
			x[i] = nan
		}
	}
	out, err := Rolling{}.Apply(context.Background(), newTable(t, table.NewFloatColumn("v", x)), env)
	require.NoError(t, err)

	for _, w := range []int{1, 2, 5, 50} {
		lo := floats(t, out, schema.RollingName("v", schema.StatMin, w))
		hi := floats(t, out, schema.RollingName("v", schema.StatMax, w))
		std := floats(t, out, schema.RollingName("v", schema.StatStd, w))
		for i := range lo {
			if math.IsNaN(lo[i]) {
				continue
			}
			assert.GreaterOrEqual(t, hi[i], lo[i])
		}
		if w == 1 {
			for i := range std {
				assert.True(t, math.IsNaN(std[i]), "window 1 std must be missing at row %d", i)
			}
		}
	}
}

func TestRateOfChange(t *testing.T) {
	env := newEnv(t, schema.Config{ContinuousColumns: []string{"flow"}, TargetColumn: "failure"})
	x := []float64{2, 4, 0, 3, nan, 6}
	out, err := RateOfChange{}.Apply(context.Background(), newTable(t, table.NewFloatColumn("flow", x)), env)
	require.NoError(t, err)

	assertSeries(t, []float64{nan, 2, -4, 3, nan, nan}, floats(t, out, "flow_roc"))
	assertSeries(t, []float64{nan, nan, -6, 7, nan, nan}, floats(t, out, "flow_acceleration"))
	assertSeries(t, []float64{nan, 1, -1, nan, nan, nan}, floats(t, out, "flow_pct_change"))
}

func TestInteraction(t *testing.T) {
	env := newEnv(t, schema.Config{
		ContinuousColumns: []string{"temp_c", "pressure", "rpm"},
		ColumnMapping:     map[string]string{"temp_c": "temperature"},
		TargetColumn:      "failure",
	})
	tbl := newTable(t,
		table.NewFloatColumn("temperature", []float64{10, 20}),
		table.NewFloatColumn("pressure", []float64{2, 0}),
		table.NewFloatColumn("rpm", []float64{1000, 1100}),
	)

	out, err := Interaction{Pairs: DefaultInteractionPairs}.Apply(context.Background(), tbl, env)
	require.NoError(t, err)

	assertSeries(t, []float64{20, 0}, floats(t, out, "temperature_pressure_mult"))
	ratio := floats(t, out, "temperature_pressure_ratio")
	assert.InDelta(t, 5, ratio[0], 1e-6)
	assert.InEpsilon(t, 2e9, ratio[1], 1e-9)
	assertSeries(t, []float64{8, 20}, floats(t, out, "temperature_pressure_diff"))
	// vibration and flow_rate are absent.
	assert.Equal(t, 6, out.NumCols())
}

func TestCrossStatistics(t *testing.T) {
	env := newEnv(t, schema.Config{ContinuousColumns: []string{"a", "b", "c"}, TargetColumn: "failure"})
	tbl := newTable(t,
		table.NewFloatColumn("a", []float64{1, nan, nan}),
		table.NewFloatColumn("b", []float64{2, 4, nan}),
		table.NewFloatColumn("c", []float64{6, 8, nan}),
	)

	out, err := CrossStatistics{}.Apply(context.Background(), tbl, env)
	require.NoError(t, err)

	assertSeries(t, []float64{3, 6, nan}, floats(t, out, MeanAllContinuous))
	assertSeries(t, []float64{math.Sqrt(7), math.Sqrt(8), nan}, floats(t, out, StdAllContinuous))
	assertSeries(t, []float64{1, 4, nan}, floats(t, out, MinAllContinuous))
	assertSeries(t, []float64{6, 8, nan}, floats(t, out, MaxAllContinuous))
	assertSeries(t, []float64{5, 4, nan}, floats(t, out, RangeAllContinuous))
	assertSeries(t, []float64{math.Sqrt(7) / (3 + 1e-8), math.Sqrt(8) / (6 + 1e-8), nan}, floats(t, out, CVAllContinuous))

	single := newTable(t, table.NewFloatColumn("a", []float64{1, 2, 3}))
	same, err := CrossStatistics{}.Apply(context.Background(), single, env)
	require.NoError(t, err)
	assert.Equal(t, 1, same.NumCols())
}

func TestTimeEncoding(t *testing.T) {
	env := newEnv(t, schema.Config{ContinuousColumns: []string{"a"}, TargetColumn: "failure"})
	tbl := newTable(t,
		table.NewTextColumn("timestamp", []string{"2024-01-01 06:00:00", "2023-12-31T18:00:00", "", "2024-04-05"}),
		table.NewFloatColumn("a", []float64{1, 2, 3, 4}),
	)

	out, err := TimeEncoding{}.Apply(context.Background(), tbl, env)
	require.NoError(t, err)

	ts, ok := out.Column("timestamp")
	require.True(t, ok)
	assert.Equal(t, table.KindTime, ts.Kind())
	assert.True(t, ts.IsMissing(2))

	assertSeries(t, []float64{6, 18, nan, 0}, floats(t, out, FeatureHour))
	// 2024-01-01 is a Monday, 2023-12-31 a Sunday, 2024-04-05 a Friday.
	assertSeries(t, []float64{0, 6, nan, 4}, floats(t, out, FeatureDayOfWeek))
	assertSeries(t, []float64{1, 31, nan, 5}, floats(t, out, FeatureDayOfMonth))
	assertSeries(t, []float64{1, 12, nan, 4}, floats(t, out, FeatureMonth))
	assertSeries(t, []float64{1, 4, nan, 2}, floats(t, out, FeatureQuarter))
	assertSeries(t, []float64{1, -1, nan, 0}, floats(t, out, FeatureHourSin))
	assertSeries(t, []float64{12 * 3600, 0, nan, (95*24 + 6) * 3600}, floats(t, out, FeatureTimeSinceStart))

	for _, name := range TimeFeatureNames {
		assert.True(t, out.HasColumn(name), name)
	}
}

func TestTimeEncoding_Errors(t *testing.T) {
	env := newEnv(t, schema.Config{ContinuousColumns: []string{"a"}, TargetColumn: "failure"})

	numeric := newTable(t, table.NewFloatColumn("timestamp", []float64{1700000000}))
	_, err := TimeEncoding{}.Apply(context.Background(), numeric, env)
	require.Error(t, err)
	assert.True(t, ferrors.IsDataFormat(err))
	assert.Contains(t, err.Error(), "timestamp")

	garbage := newTable(t, table.NewTextColumn("timestamp", []string{"yesterday"}))
	_, err = TimeEncoding{}.Apply(context.Background(), garbage, env)
	assert.True(t, ferrors.IsDataFormat(err))

	absent := newTable(t, table.NewFloatColumn("a", []float64{1}))
	out, err := TimeEncoding{}.Apply(context.Background(), absent, env)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, out.ColumnNames())

	typed := newTable(t, table.NewTimeColumn("timestamp", []time.Time{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}))
	out, err = TimeEncoding{}.Apply(context.Background(), typed, env)
	require.NoError(t, err)
	assertSeries(t, []float64{0}, floats(t, out, FeatureTimeSinceStart))
}

func TestAnomaly(t *testing.T) {
	env := newEnv(t, schema.Config{ContinuousColumns: []string{"vibration"}, TargetColumn: "failure"})
	x := make([]float64, 30)
	for i := range x {
		x[i] = float64(i % 2)
	}
	x[20] = 100
	x[5] = nan

	out, err := Anomaly{}.Apply(context.Background(), newTable(t, table.NewFloatColumn("vibration", x)), env)
	require.NoError(t, err)

	flags, ok := out.Column("vibration_anomaly")
	require.True(t, ok)
	assert.Equal(t, table.KindBool, flags.Kind())
	assert.Equal(t, true, flags.Value(20))
	assert.Equal(t, false, flags.Value(5))
	assert.Equal(t, false, flags.Value(0))

	z := floats(t, out, "vibration_z_score")
	assert.True(t, math.IsNaN(z[5]))
	assert.Greater(t, z[20], AnomalyThreshold)

	dist := floats(t, out, "vibration_distance_from_mean")
	assert.InDelta(t, 0, dist[0], 1e-12)
	assert.InDelta(t, 0.5, dist[1], 1e-12)
}

func TestDomain(t *testing.T) {
	env := newEnv(t, schema.Config{
		ContinuousColumns: []string{"amps", "voltage", "temperature", "vibration"},
		ColumnMapping:     map[string]string{"amps": "current"},
		TargetColumn:      "failure",
	})
	n := 12
	cur, volt, temp, vib := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		cur[i] = 2
		volt[i] = 220
		temp[i] = float64(60 + i)
		vib[i] = 0.5 * float64(i)
	}
	vib[11] = nan

	tbl := newTable(t,
		table.NewFloatColumn("current", cur),
		table.NewFloatColumn("voltage", volt),
		table.NewFloatColumn("temperature", temp),
		table.NewFloatColumn("vibration", vib),
	)
	out, err := Domain{Recipes: DefaultRecipes}.Apply(context.Background(), tbl, env)
	require.NoError(t, err)

	assert.InDelta(t, 440, floats(t, out, "power")[0], 1e-9)
	assert.InDelta(t, 1, floats(t, out, "power_factor")[0], 1e-9)
	assert.InDelta(t, 1.0/60, floats(t, out, "temp_efficiency")[0], 1e-9)

	stress := floats(t, out, "temp_stress")
	assert.Equal(t, 0.0, stress[0])
	assert.InDelta(t, 71-65.5, stress[11], 1e-9)

	trend := floats(t, out, "vibration_trend")
	for i := 0; i < 9; i++ {
		assert.True(t, math.IsNaN(trend[i]), "row %d", i)
	}
	assert.InDelta(t, 0.5, trend[9], 1e-9)
	assert.InDelta(t, 0.5, trend[10], 1e-9)
	assert.True(t, math.IsNaN(trend[11]))

	assert.False(t, out.HasColumn("flow_efficiency"))
	assert.False(t, out.HasColumn("hydraulic_power"))
}

func TestGenerators_AbsentInputsAreNoOps(t *testing.T) {
	env := newEnv(t, schema.Config{
		ContinuousColumns: []string{"temperature", "pressure"},
		BooleanColumns:    []string{"alarm"},
		LagSeconds:        []int{60},
		RollingWindows:    []int{5},
		TargetColumn:      "failure",
	})
	tbl := newTable(t, table.NewFloatColumn("failure", []float64{0, 1, 0}))

	for _, g := range NewDefaultRegistry().List() {
		out, err := g.Apply(context.Background(), tbl, env)
		require.NoError(t, err, g.ID())
		assert.Equal(t, []string{"failure"}, out.ColumnNames(), g.ID())
	}
}

func TestGenerators_NameCollision(t *testing.T) {
	env := newEnv(t, schema.Config{
		ContinuousColumns: []string{"temperature"},
		LagSeconds:        []int{60},
		TargetColumn:      "failure",
	})
	tbl := newTable(t,
		table.NewFloatColumn("temperature", []float64{1, 2}),
		table.NewFloatColumn("temperature_lag_60s", []float64{0, 0}),
	)

	_, err := Lag{}.Apply(context.Background(), tbl, env)
	require.Error(t, err)
	assert.True(t, ferrors.IsConfiguration(err))
}

func TestGenerators_DoNotMutateInput(t *testing.T) {
	env := newEnv(t, schema.Config{
		ContinuousColumns: []string{"a", "b"},
		LagSeconds:        []int{60},
		RollingWindows:    []int{2},
		TargetColumn:      "failure",
	})
	tbl := newTable(t,
		table.NewFloatColumn("a", []float64{1, 2, 3}),
		table.NewFloatColumn("b", []float64{3, 2, 1}),
	)
	before := tbl.Clone()

	for _, g := range NewDefaultRegistry().List() {
		_, err := g.Apply(context.Background(), tbl, env)
		require.NoError(t, err)
	}
	assert.True(t, before.Equal(tbl))
}

func TestForEachColumn_Cancelled(t *testing.T) {
	env := newEnv(t, schema.Config{ContinuousColumns: []string{"a"}, LagSeconds: []int{60}, TargetColumn: "failure"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Lag{}.Apply(ctx, newTable(t, table.NewFloatColumn("a", []float64{1, 2})), env)
	assert.ErrorIs(t, err, context.Canceled)
}

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/dataset"
	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/features"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/infrastructure"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/selection"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/shared/testutil"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

const target = "failure_indicator"

var fiveMinutes = config.DataConfig{SamplingIntervalMinutes: 5, MinSamples: 1, MaxSamples: 100000}

func newEngineer(t *testing.T, cfg schema.Config, opts ...Option) *Engineer {
	t.Helper()
	s, err := schema.New(cfg)
	require.NoError(t, err)
	logger, _ := testutil.NewTestLogger(t)
	eng, err := New(s, fiveMinutes, append([]Option{WithLogger(logger), WithParallel(4)}, opts...)...)
	require.NoError(t, err)
	return eng
}

func synthetic(t *testing.T, rows int, seed uint64, columns ...string) *table.Table {
	t.Helper()
	tbl, err := dataset.Synthetic(dataset.SyntheticConfig{
		Rows:              rows,
		Seed:              seed,
		ContinuousColumns: columns,
		TargetColumn:      target,
	})
	require.NoError(t, err)
	return tbl
}

func TestScenarioA_LagAndRolling(t *testing.T) {
	eng := newEngineer(t, schema.Config{
		ContinuousColumns: []string{"temperature"},
		LagSeconds:        []int{300},
		RollingWindows:    []int{5},
		TargetColumn:      target,
	})
	raw := synthetic(t, 100, 1, "temperature")

	out, names, err := eng.EngineerFeatures(context.Background(), raw, false, 0)
	require.NoError(t, err)

	for _, name := range []string{
		"temperature", "temperature_lag_300s",
		"temperature_rolling_mean_5", "temperature_rolling_std_5",
		"temperature_rolling_min_5", "temperature_rolling_max_5",
	} {
		assert.Contains(t, names, name)
	}
	assert.NotContains(t, names, target)
	assert.NotContains(t, names, "timestamp")
	require.Equal(t, 100, out.NumRows())

	temp, _ := out.Floats("temperature")
	lag, _ := out.Floats("temperature_lag_300s")
	for i := 1; i < len(temp); i++ {
		assert.Equal(t, temp[i-1], lag[i], "row %d", i)
	}
	// The missing first lag is backward filled by the cleaner.
	assert.Equal(t, temp[0], lag[0])

	rawLag, err := features.Lag{}.Apply(context.Background(), raw, features.Env{Schema: eng.Schema(), Data: fiveMinutes})
	require.NoError(t, err)
	first, _ := rawLag.Column("temperature_lag_300s")
	assert.True(t, first.IsMissing(0))
}

func TestScenarioB_AbsentDeclaredColumn(t *testing.T) {
	eng := newEngineer(t, schema.Config{
		ContinuousColumns: []string{"temperature", "pressure"},
		LagSeconds:        []int{300, 600},
		RollingWindows:    []int{3},
		TargetColumn:      target,
	})
	raw := synthetic(t, 60, 2, "temperature")

	out, err := eng.Run(context.Background(), raw, RunOptions{})
	require.NoError(t, err)

	for _, name := range out.Features {
		assert.False(t, strings.HasPrefix(name, "pressure"), "unexpected %s", name)
	}
	assert.Contains(t, out.Features, "temperature_lag_600s")
	assert.NotContains(t, out.Features, features.MeanAllContinuous)
	assert.NotContains(t, out.Features, "temperature_pressure_mult")
	assert.Nil(t, out.Selection)
}

func TestRun_NonNumericContinuousColumn(t *testing.T) {
	eng := newEngineer(t, schema.Config{
		ContinuousColumns: []string{"temperature", "pressure"},
		LagSeconds:        []int{300},
		RollingWindows:    []int{3},
		TimestampColumn:   "timestamp",
		TargetColumn:      target,
	})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]map[string]any, 20)
	for i := range records {
		records[i] = map[string]any{
			"timestamp":   start.Add(time.Duration(i) * 5 * time.Minute).Format(time.RFC3339),
			"temperature": 70 + float64(i)*0.1,
			"pressure":    100 + float64(i%3),
			target:        0.0,
		}
		if i >= 15 {
			records[i][target] = 1.0
		}
	}
	records[5]["temperature"] = "sensor_fault"
	raw, err := dataset.FromRecords(records, dataset.OptionsFor(eng.Schema(), 0))
	require.NoError(t, err)

	_, _, err = eng.EngineerFeatures(context.Background(), raw, false, 100)
	require.Error(t, err)
	assert.True(t, ferrors.IsDataFormat(err))
	var fe *ferrors.FeatureError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "temperature", fe.Column)
}

func TestScenarioC_Selection(t *testing.T) {
	eng := newEngineer(t, schema.Config{
		ContinuousColumns: []string{"s1", "s2"},
		LagSeconds:        []int{300, 600, 900},
		RollingWindows:    []int{3, 6, 12},
		TargetColumn:      target,
	})
	raw, err := synthetic(t, 300, 3, "s1", "s2").Select("s1", "s2", target)
	require.NoError(t, err)

	all, err := eng.Run(context.Background(), raw, RunOptions{})
	require.NoError(t, err)
	require.Len(t, all.Features, 50)

	for _, method := range []selection.Method{selection.FClassifMethod, selection.MutualInfoMethod} {
		t.Run(string(method), func(t *testing.T) {
			out, err := eng.Run(context.Background(), raw, RunOptions{IncludeSelection: true, MaxFeatures: 10, Method: method})
			require.NoError(t, err)

			assert.Len(t, out.Features, 10)
			assert.Subset(t, all.Features, out.Features)
			assert.NotContains(t, out.Features, target)
			require.NotNil(t, out.Selection)
			assert.Equal(t, eng.Fingerprint(), out.Selection.Fingerprint)
			assert.Equal(t, method, out.Selection.Method)
			assert.Equal(t, append(append([]string{}, out.Features...), target), out.Table.ColumnNames())
		})
	}

	// Fewer candidates than the limit skips selection.
	out, err := eng.Run(context.Background(), raw, RunOptions{IncludeSelection: true, MaxFeatures: 50})
	require.NoError(t, err)
	assert.Nil(t, out.Selection)
	assert.Len(t, out.Features, 50)
}

func TestAllFeatureNamesMatchGeneratedColumns(t *testing.T) {
	cfg := schema.Config{
		ContinuousColumns: []string{"temp_c", "vibration"},
		BooleanColumns:    []string{"door_open"},
		ColumnMapping:     map[string]string{"temp_c": "temperature"},
		LagSeconds:        []int{300, 3600},
		RollingWindows:    []int{4, 12},
		TargetColumn:      target,
	}
	eng := newEngineer(t, cfg)

	synth, err := dataset.Synthetic(dataset.SyntheticConfig{
		Rows:              120,
		Seed:              4,
		ContinuousColumns: []string{"temperature", "vibration"},
		BooleanColumns:    []string{"door_open"},
		TargetColumn:      target,
	})
	require.NoError(t, err)
	raw, err := synth.Rename(map[string]string{"temperature": "temp_c"})
	require.NoError(t, err)

	out, err := eng.Run(context.Background(), raw, RunOptions{})
	require.NoError(t, err)

	expected := eng.Schema().AllFeatureNames()
	assert.Subset(t, out.Features, expected)

	var lagRolling, expectedLagRolling []string
	for _, name := range out.Features {
		if fam := Family(name); fam == FamilyLag || fam == FamilyRolling {
			lagRolling = append(lagRolling, name)
		}
	}
	for _, name := range expected {
		if fam := Family(name); fam == FamilyLag || fam == FamilyRolling {
			expectedLagRolling = append(expectedLagRolling, name)
		}
	}
	assert.ElementsMatch(t, expectedLagRolling, lagRolling)
}

func TestRun_Errors(t *testing.T) {
	eng := newEngineer(t, schema.Config{ContinuousColumns: []string{"temperature"}, TargetColumn: target})

	_, err := eng.Run(context.Background(), synthetic(t, 10, 5, "temperature"), RunOptions{IncludeSelection: true, Method: "chi2"})
	assert.True(t, ferrors.IsConfiguration(err))

	empty := synthetic(t, 0, 5, "temperature")
	_, err = eng.Run(context.Background(), empty, RunOptions{})
	assert.True(t, ferrors.IsInsufficientData(err))

	bad, err := table.New(
		table.NewFloatColumn("timestamp", []float64{1, 2}),
		table.NewFloatColumn("temperature", []float64{1, 2}),
	)
	require.NoError(t, err)
	_, err = eng.Run(context.Background(), bad, RunOptions{})
	var fe *ferrors.FeatureError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ferrors.ErrorTypeDataFormat, fe.Type)
	assert.Equal(t, "timestamp", fe.Column)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Run(ctx, synthetic(t, 10, 5, "temperature"), RunOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Deterministic(t *testing.T) {
	cfg := schema.Config{
		ContinuousColumns: []string{"temperature", "pressure", "vibration"},
		LagSeconds:        []int{300},
		RollingWindows:    []int{6},
		TargetColumn:      target,
	}
	raw := synthetic(t, 150, 6, "temperature", "pressure", "vibration")

	a, err := newEngineer(t, cfg).Run(context.Background(), raw, RunOptions{IncludeSelection: true, MaxFeatures: 15})
	require.NoError(t, err)
	b, err := newEngineer(t, cfg, WithParallel(1)).Run(context.Background(), raw, RunOptions{IncludeSelection: true, MaxFeatures: 15})
	require.NoError(t, err)

	assert.Equal(t, a.Features, b.Features)
	assert.True(t, a.Table.Equal(b.Table))
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
}

func TestRun_Telemetry(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	metrics, err := infrastructure.NewPipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	defer tp.Shutdown(context.Background())

	eng := newEngineer(t, schema.Config{ContinuousColumns: []string{"temperature"}, LagSeconds: []int{300}, TargetColumn: target},
		WithMetrics(metrics), WithTracer(tp.Tracer("test")), WithOrganization("plant-1"))

	_, err = eng.Run(context.Background(), synthetic(t, 30, 7, "temperature"), RunOptions{})
	require.NoError(t, err)

	names := map[string]bool{}
	for _, s := range spans.Ended() {
		names[s.Name()] = true
	}
	assert.True(t, names["pipeline.run"])
	assert.True(t, names["pipeline.stage."+features.StageLag])
	assert.True(t, names["pipeline.stage."+StageClean])
	assert.False(t, names["pipeline.stage."+StageSelection])

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
		}
	}
	assert.True(t, found["pipeline_runs_total"])
	assert.True(t, found["pipeline_stage_duration_seconds"])
	assert.True(t, found["pipeline_features_generated"])
}

func TestNewFromOrganization(t *testing.T) {
	org := config.DefaultOrganization("plant-9", config.IndustryPowerGeneration)
	logger, logs := testutil.NewTestLogger(t)
	eng, err := NewFromOrganization(org, WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, target, eng.Schema().TargetColumn())

	raw, err := dataset.Synthetic(dataset.SyntheticConfig{
		Rows:              80,
		Seed:              8,
		Interval:          time.Duration(org.Data.SamplingIntervalMinutes) * time.Minute,
		ContinuousColumns: eng.Schema().ContinuousColumns(),
		BooleanColumns:    eng.Schema().BooleanColumns(),
		TargetColumn:      target,
	})
	require.NoError(t, err)

	out, err := eng.Run(context.Background(), raw, RunOptions{IncludeSelection: true, MaxFeatures: 20})
	require.NoError(t, err)
	assert.Len(t, out.Features, 20)
	testutil.AssertLogAttr(t, logs, "organization", "plant-9")

	org.Schema.TargetColumn = ""
	_, err = NewFromOrganization(org)
	assert.True(t, ferrors.IsConfiguration(err))
}

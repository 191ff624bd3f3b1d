package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

func TestFamily(t *testing.T) {
	tests := map[string]string{
		"temperature":                FamilyBase,
		"temperature_lag_300s":       FamilyLag,
		"temperature_rolling_std_12": FamilyRolling,
		"temperature_roc":            FamilyRate,
		"temperature_pct_change":     FamilyRate,
		"current_voltage_ratio":      FamilyInteraction,
		"range_all_continuous":       FamilyStatistics,
		"hour_sin":                   FamilyTime,
		"time_since_start":           FamilyTime,
		"vibration_z_score":          FamilyAnomaly,
		"vibration_anomaly":          FamilyAnomaly,
		"vibration_trend":            FamilyDomain,
		"power_factor":               FamilyDomain,
	}
	for name, want := range tests {
		assert.Equal(t, want, Family(name), name)
	}
}

func TestSummarize(t *testing.T) {
	tbl, err := table.New(
		table.NewFloatColumn("temperature", []float64{1, 2, 3, 4}),
		table.NewFloatColumn("temperature_lag_300s", []float64{math.NaN(), 1, 2, 3}),
		table.NewFloatColumn("hour", []float64{0, 0, 1, 1}),
		table.NewBoolColumn(target, []float64{0, 0, 0, 1}),
	)
	require.NoError(t, err)

	s := Summarize(tbl, []string{"temperature", "temperature_lag_300s", "hour"}, target)
	assert.Equal(t, 3, s.TotalFeatures)
	assert.Equal(t, 4, s.TotalSamples)
	assert.Equal(t, 1, s.FeatureTypes[FamilyBase])
	assert.Equal(t, 1, s.FeatureTypes[FamilyLag])
	assert.Equal(t, 1, s.FeatureTypes[FamilyTime])
	assert.Equal(t, 0, s.FeatureTypes[FamilyDomain])
	assert.Equal(t, map[string]float64{"temperature_lag_300s": 25}, s.MissingPercent)
	assert.Equal(t, map[string]int{"0": 3, "1": 1}, s.TargetDistribution)
	assert.Equal(t, []string{FamilyBase, FamilyLag, FamilyTime}, s.Families())
}

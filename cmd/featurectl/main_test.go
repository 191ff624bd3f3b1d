package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/dataset"
	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/exporter"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/pipeline"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/scaling"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/selection"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FEATURES_TELEMETRY_METRIC_EXPORTER", "none")
	var stdout bytes.Buffer
	err := run(context.Background(), args, &stdout, io.Discard)
	return stdout.String(), err
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestRun_Synthetic(t *testing.T) {
	base := t.TempDir()
	out := filepath.Join(base, "out")

	stdout, err := runCLI(t,
		"-base", base,
		"-org", "plant_a",
		"-industry", config.IndustryWaterTreatment,
		"-rows", "300",
		"-seed", "7",
		"-max-features", "15",
		"-scaler", "standard",
		"-out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "plant_a: 15 features")

	for _, name := range []string{
		config.FeaturesCSVFile, config.FeaturesXLSXFile, config.SummaryJSONFile,
		config.SelectionJSONFile, config.ScalerJSONFile,
	} {
		assert.FileExists(t, filepath.Join(out, name))
	}

	// The industry template is persisted for later runs.
	assert.FileExists(t, filepath.Join(base, "configs", "organizations", "plant_a.yaml"))

	var summary pipeline.Summary
	readJSON(t, filepath.Join(out, config.SummaryJSONFile), &summary)
	assert.Equal(t, 15, summary.TotalFeatures)
	assert.Positive(t, summary.TotalSamples)
	assert.Len(t, summary.TargetDistribution, 2)

	var result selection.Result
	readJSON(t, filepath.Join(out, config.SelectionJSONFile), &result)
	assert.Equal(t, selection.FClassifMethod, result.Method)
	assert.Len(t, result.Features, 15)
	assert.NotEmpty(t, result.Fingerprint)

	f, err := os.Open(filepath.Join(out, config.ScalerJSONFile))
	require.NoError(t, err)
	defer f.Close()
	scaler, err := scaling.Load(f)
	require.NoError(t, err)
	assert.Equal(t, scaling.Standard, scaler.Kind)
	assert.NotEmpty(t, scaler.Columns)
}

func TestRun_Deterministic(t *testing.T) {
	base := t.TempDir()
	args := func(out string) []string {
		return []string{"-base", base, "-org", "plant_a", "-rows", "200", "-seed", "3", "-no-xlsx", "-out", out}
	}

	_, err := runCLI(t, args(filepath.Join(base, "one"))...)
	require.NoError(t, err)
	_, err = runCLI(t, args(filepath.Join(base, "two"))...)
	require.NoError(t, err)

	one, err := os.ReadFile(filepath.Join(base, "one", config.FeaturesCSVFile))
	require.NoError(t, err)
	two, err := os.ReadFile(filepath.Join(base, "two", config.FeaturesCSVFile))
	require.NoError(t, err)
	assert.Equal(t, one, two)
	assert.NoFileExists(t, filepath.Join(base, "one", config.FeaturesXLSXFile))
}

func TestRun_Ledger(t *testing.T) {
	base := t.TempDir()
	out := filepath.Join(base, "out")
	args := []string{"-base", base, "-org", "plant_a", "-rows", "200", "-seed", "5", "-no-xlsx", "-out", out}

	for i := 0; i < 2; i++ {
		stdout, err := runCLI(t, args...)
		require.NoError(t, err)
		assert.Contains(t, stdout, config.RunsCSVFile)
	}

	f, err := os.Open(filepath.Join(out, config.RunsCSVFile))
	require.NoError(t, err)
	defer f.Close()
	ledger, err := dataset.LoadCSV(f, dataset.LoadOptions{TimestampColumn: "time"})
	require.NoError(t, err)
	assert.Equal(t, exporter.RunHeaders, ledger.ColumnNames())
	assert.Equal(t, 2, ledger.NumRows())

	fingerprints, ok := ledger.Column("fingerprint")
	require.True(t, ok)
	assert.NotNil(t, fingerprints.Value(0))
	assert.Equal(t, fingerprints.Value(0), fingerprints.Value(1))
	features, ok := ledger.Floats("features")
	require.True(t, ok)
	assert.Equal(t, float64(config.DefaultMaxFeatures), features[0])
}

func TestRun_CSVInput(t *testing.T) {
	base := t.TempDir()
	org := config.DefaultOrganization("plant_b", config.IndustryManufacturing)
	raw, err := dataset.Synthetic(dataset.SyntheticConfig{
		Rows:              150,
		Seed:              11,
		ContinuousColumns: org.Schema.ContinuousColumns,
		BooleanColumns:    org.Schema.BooleanColumns,
		MissingRate:       0.02,
	})
	require.NoError(t, err)

	input := filepath.Join(base, "raw.csv")
	f, err := os.Create(input)
	require.NoError(t, err)
	require.NoError(t, exporter.EncodeTable(f, raw))
	require.NoError(t, f.Close())

	out := filepath.Join(base, "out")
	stdout, err := runCLI(t,
		"-base", base,
		"-org", "plant_b",
		"-in", input,
		"-select=false",
		"-scaler", "robust",
		"-no-xlsx",
		"-out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "plant_b:")

	assert.FileExists(t, filepath.Join(out, config.FeaturesCSVFile))
	assert.FileExists(t, filepath.Join(out, config.ScalerJSONFile))
	assert.NoFileExists(t, filepath.Join(out, config.SelectionJSONFile))

	var summary pipeline.Summary
	readJSON(t, filepath.Join(out, config.SummaryJSONFile), &summary)
	assert.Greater(t, summary.TotalFeatures, config.DefaultMaxFeatures)
	assert.Positive(t, summary.FeatureTypes[pipeline.FamilyLag])

	// Without -industry the configuration is not persisted.
	assert.NoFileExists(t, filepath.Join(base, "configs", "organizations", "plant_b.yaml"))
}

func TestRun_Errors(t *testing.T) {
	base := t.TempDir()

	_, err := runCLI(t, "-base", base)
	assert.ErrorContains(t, err, "-org is required")

	_, err = runCLI(t, "-base", base, "-org", "plant_a", "extra")
	assert.ErrorContains(t, err, "unexpected arguments")

	_, err = runCLI(t, "-base", base, "-org", "plant_a", "-rows", "100", "-method", "chi2")
	assert.True(t, ferrors.IsConfiguration(err), "got %v", err)

	_, err = runCLI(t, "-base", base, "-org", "plant_a", "-rows", "100", "-scaler", "log")
	assert.True(t, ferrors.IsConfiguration(err), "got %v", err)

	_, err = runCLI(t, "-base", base, "-org", "plant_a", "-in", filepath.Join(base, "missing.csv"))
	assert.Error(t, err)

	_, err = runCLI(t, "-base", base, "-org", "bad id")
	assert.ErrorIs(t, err, config.ErrOrganizationNotFound)
}

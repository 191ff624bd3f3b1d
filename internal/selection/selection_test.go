package selection

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mathext"

	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/shared/testutil"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

var candidates = []string{"noise", "strong", "medium", "constant"}

func fixture(t *testing.T) *table.Table {
	t.Helper()
	times := make([]time.Time, 8)
	for i := range times {
		times[i] = time.Date(2024, 1, 1, i, 0, 0, 0, time.UTC)
	}
	tbl, err := table.New(
		table.NewTimeColumn("timestamp", times),
		table.NewFloatColumn("noise", []float64{1, 2, 3, 4, 4, 3, 2, 1}),
		table.NewFloatColumn("strong", []float64{1, 2, 1, 2, 10, 11, 10, 11}),
		table.NewFloatColumn("medium", []float64{1, 5, 3, 7, 4, 8, 6, 10}),
		table.NewFloatColumn("constant", []float64{5, 5, 5, 5, 5, 5, 5, 5}),
		table.NewBoolColumn("failure", []float64{0, 0, 0, 0, 1, 1, 1, 1}),
	)
	require.NoError(t, err)
	return tbl
}

func TestFClassif(t *testing.T) {
	y := []float64{0, 0, 0, 1, 1, 1}
	assert.InDelta(t, 54, FClassif([]float64{1, 2, 3, 7, 8, 9}, y), 1e-9)
	assert.True(t, math.IsInf(FClassif([]float64{1, 1, 1, 2, 2, 2}, y), 1))
	assert.True(t, math.IsNaN(FClassif([]float64{1, 2, 3}, []float64{0, 0, 0})))
	assert.True(t, math.IsNaN(FClassif([]float64{4, 4, 4, 4, 4, 4}, y)))
}

func TestMutualInfo(t *testing.T) {
	x := make([]float64, 20)
	y := make([]float64, 20)
	for i := 0; i < 10; i++ {
		x[i] = float64(i)
		x[10+i] = float64(100 + i)
		y[10+i] = 1
	}
	assert.InDelta(t, mathext.Digamma(20)-mathext.Digamma(10), MutualInfo(x, y), 1e-9)

	mixed := make([]float64, 20)
	for i := range mixed {
		mixed[i] = float64(i%10) + 0.001*float64(i)
	}
	assert.GreaterOrEqual(t, MutualInfo(mixed, y), 0.0)
	assert.Less(t, MutualInfo(mixed, y), MutualInfo(x, y))

	// A class seen once is ignored rather than breaking the estimate.
	assert.GreaterOrEqual(t, MutualInfo([]float64{1, 2, 3, 9}, []float64{0, 0, 0, 1}), 0.0)
}

func TestSelect(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	s := New("timestamp", logger)

	out, result, err := s.Select(context.Background(), fixture(t), "failure", candidates, 2, FClassifMethod)
	require.NoError(t, err)

	assert.Equal(t, []string{"strong", "medium"}, result.Features)
	assert.Equal(t, []string{"timestamp", "strong", "medium", "failure"}, out.ColumnNames())
	assert.Equal(t, 2, result.K)
	assert.Equal(t, FClassifMethod, result.Method)
	assert.Equal(t, "timestamp", result.TimestampColumn)

	ranked := make([]string, len(result.Scores))
	for i, fs := range result.Scores {
		ranked[i] = fs.Feature
		assert.Equal(t, i+1, fs.Rank)
		assert.Equal(t, i < 2, fs.Selected)
	}
	assert.Equal(t, []string{"strong", "medium", "noise", "constant"}, ranked)
	assert.InDelta(t, 486, float64(result.Scores[0].Score), 1e-9)
	assert.True(t, math.IsNaN(float64(result.Scores[3].Score)))

	testutil.AssertLogAttr(t, logs, "component", "selector")
}

func TestSelect_IdenticalCandidatesKeepOrder(t *testing.T) {
	const rows = 500
	power := make([]float64, rows)
	y := make([]float64, rows)
	for i := range power {
		power[i] = math.Sin(float64(i)*0.37)*50 + float64(i%7)*3.1
		y[i] = float64(i % 5)
	}
	tbl, err := table.New(
		table.NewFloatColumn("power", power),
		table.NewFloatColumn("current_voltage_mult", append([]float64(nil), power...)),
		table.NewFloatColumn("failure", y),
	)
	require.NoError(t, err)

	first := FClassif(power, y)
	for i := 0; i < 200; i++ {
		require.Equal(t, math.Float64bits(first), math.Float64bits(FClassif(power, y)))
	}

	logger, _ := testutil.NewTestLogger(t)
	s := New("", logger)
	for _, method := range []Method{FClassifMethod, MutualInfoMethod} {
		for i := 0; i < 100; i++ {
			_, result, err := s.Select(context.Background(), tbl, "failure",
				[]string{"power", "current_voltage_mult"}, 1, method)
			require.NoError(t, err)
			require.Equal(t, []string{"power"}, result.Features, "method %s run %d", method, i)
		}
	}
}

func TestSelect_KBounds(t *testing.T) {
	s := New("timestamp", nil)

	t.Run("k at least candidates keeps all", func(t *testing.T) {
		for _, k := range []int{4, 10} {
			out, result, err := s.Select(context.Background(), fixture(t), "failure", candidates, k, MutualInfoMethod)
			require.NoError(t, err)
			assert.Equal(t, candidates, result.Features)
			assert.Equal(t, 4, result.K)
			assert.Equal(t, 6, out.NumCols())
		}
	})

	t.Run("k zero keeps none", func(t *testing.T) {
		out, result, err := s.Select(context.Background(), fixture(t), "failure", candidates, 0, FClassifMethod)
		require.NoError(t, err)
		assert.Empty(t, result.Features)
		assert.Equal(t, []string{"timestamp", "failure"}, out.ColumnNames())
		assert.Len(t, result.Scores, 4)
	})

	t.Run("negative k", func(t *testing.T) {
		_, _, err := s.Select(context.Background(), fixture(t), "failure", candidates, -1, FClassifMethod)
		assert.True(t, ferrors.IsConfiguration(err))
	})

	t.Run("unknown method", func(t *testing.T) {
		_, _, err := s.Select(context.Background(), fixture(t), "failure", candidates, 1, Method("chi2"))
		assert.True(t, ferrors.IsConfiguration(err))
		_, err = ParseMethod("chi2")
		assert.True(t, ferrors.IsConfiguration(err))
	})
}

func TestSelect_MissingRows(t *testing.T) {
	s := New("", nil)
	tbl, err := table.New(
		table.NewFloatColumn("a", []float64{1, math.NaN(), 3, 4, 5}),
		table.NewFloatColumn("y", []float64{0, 1, math.NaN(), 1, 0}),
	)
	require.NoError(t, err)

	out, result, err := s.Select(context.Background(), tbl, "y", []string{"a"}, 1, FClassifMethod)
	require.NoError(t, err)
	assert.Equal(t, 3, out.NumRows())
	assert.Equal(t, 2, result.RowsDropped)

	empty, err := table.New(
		table.NewFloatColumn("a", []float64{math.NaN(), 1}),
		table.NewFloatColumn("y", []float64{0, math.NaN()}),
	)
	require.NoError(t, err)
	_, _, err = s.Select(context.Background(), empty, "y", []string{"a"}, 1, FClassifMethod)
	assert.True(t, ferrors.IsInsufficientData(err))

	_, _, err = s.Select(context.Background(), tbl, "label", []string{"a"}, 1, FClassifMethod)
	assert.True(t, ferrors.IsDataFormat(err))
}

func TestResult_JSONAndApply(t *testing.T) {
	s := New("timestamp", nil)
	_, result, err := s.Select(context.Background(), fixture(t), "failure", candidates, 1, FClassifMethod)
	require.NoError(t, err)

	fp, err := Fingerprint(schema.Config{ContinuousColumns: []string{"strong"}, TargetColumn: "failure"}, []string{"lag"})
	require.NoError(t, err)
	result.Fingerprint = fp

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"score":null`)

	var loaded Result
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, result.Features, loaded.Features)
	assert.True(t, math.IsNaN(float64(loaded.Scores[3].Score)))

	out, err := loaded.Apply(fixture(t), fp)
	require.NoError(t, err)
	assert.Equal(t, []string{"timestamp", "strong", "failure"}, out.ColumnNames())

	_, err = loaded.Apply(fixture(t), "other")
	assert.True(t, ferrors.IsConfiguration(err))
}

func TestFingerprint(t *testing.T) {
	cfg := schema.Config{ContinuousColumns: []string{"a"}, LagSeconds: []int{60}, TargetColumn: "y"}
	a, err := Fingerprint(cfg, []string{"lag", "rolling"})
	require.NoError(t, err)
	b, err := Fingerprint(cfg, []string{"lag", "rolling"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := Fingerprint(cfg, []string{"rolling", "lag"})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	cfg.LagSeconds = []int{120}
	d, err := Fingerprint(cfg, []string{"lag", "rolling"})
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}

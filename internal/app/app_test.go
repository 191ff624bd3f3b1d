package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/shared/testutil"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Security.RateLimit.Enabled = false

	logger, _ := testutil.NewTestLogger(t)
	app, err := NewApplication(cfg, logger)
	require.NoError(t, err)
	return app
}

func serve(app *Application, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// featureRows renders n readings of the manufacturing template as JSON.
func featureRows(n int) string {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]map[string]any, n)
	for i := range rows {
		failure := 0
		if i >= n*4/5 {
			failure = 1
		}
		rows[i] = map[string]any{
			"timestamp":         start.Add(time.Duration(i) * 5 * time.Minute).Format(time.RFC3339),
			"temperature":       75 + float64(i%9) + 15*float64(failure),
			"pressure":          100 + float64(i%4),
			"vibration":         2.5 + 0.1*float64(i%3) + 4*float64(failure),
			"pump_status":       i%2 == 0,
			"failure_indicator": failure,
		}
	}
	out, _ := json.Marshal(map[string]any{"rows": rows})
	return string(out)
}

func TestApplication_Health(t *testing.T) {
	app := newTestApplication(t)

	rec := serve(app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = serve(app, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(app, http.MethodGet, "/api/v1/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), config.AppVersion)
}

func TestApplication_FeatureFlow(t *testing.T) {
	app := newTestApplication(t)

	rec := serve(app, http.MethodPost, "/api/v1/organizations", `{"organization_id":"plant_a","industry":"manufacturing"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(app, http.MethodPost, "/api/v1/organizations", `{"organization_id":"plant_a"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(app, http.MethodGet, "/api/v1/organizations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"organizations":["plant_a"],"count":1}`, rec.Body.String())

	rec = serve(app, http.MethodGet, "/api/v1/organizations/plant_a/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var schemaResp struct {
		FeatureNames []string `json:"feature_names"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schemaResp))
	assert.Contains(t, schemaResp.FeatureNames, "temperature_lag_300s")

	rec = serve(app, http.MethodPost, "/api/v1/organizations/plant_a/features?limit=5", featureRows(120))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		RunID    string           `json:"run_id"`
		Features []string         `json:"features"`
		Rows     []map[string]any `json:"rows"`
		Summary  struct {
			TotalSamples int `json:"total_samples"`
		} `json:"summary"`
		Selection *struct {
			K int `json:"k"`
		} `json:"selection"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Len(t, resp.Rows, 5)
	assert.Greater(t, resp.Summary.TotalSamples, 5)
	assert.NotContains(t, resp.Features, "flow_rate_lag_60s", "absent sensors yield no features")
	if resp.Selection != nil {
		assert.Len(t, resp.Features, resp.Selection.K)
	}

	rec = serve(app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pipeline_runs_total")
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestApplication_Errors(t *testing.T) {
	app := newTestApplication(t)

	rec := serve(app, http.MethodGet, "/api/v1/organizations/bad%20id/schema", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", strings.Split(rec.Header().Get("Content-Type"), ";")[0])

	rec = serve(app, http.MethodPost, "/api/v1/organizations/plant_z/features", `{"rows":[{"timestamp":"yesterday"}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	app.Config.Server.MaxBodyBytes = 64
	app.setupRouter()
	rec = serve(app, http.MethodPost, "/api/v1/organizations/plant_z/features", featureRows(10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, fmt.Sprintf("body: %s", rec.Body.String()))
}

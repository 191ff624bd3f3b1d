package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		fileContent string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars and no file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "prometheus", cfg.Telemetry.MetricExporter)
				assert.Equal(t, "configs/organizations", cfg.Paths.ConfigDir)
				assert.Equal(t, 4, cfg.Pipeline.Parallel)
				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
			},
		},
		{
			name: "env vars override defaults",
			env: map[string]string{
				"FEATURES_SERVER_PORT":    "9090",
				"FEATURES_LOGGING_LEVEL":  "debug",
				"FEATURES_PIPELINE_TIMEOUT": "30s",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 30*time.Second, cfg.Pipeline.Timeout)
			},
		},
		{
			name: "file overrides defaults",
			fileContent: `
server:
  port: 7070
logging:
  level: warn
pipeline:
  max_rows: 500
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.Equal(t, 500, cfg.Pipeline.MaxRows)
			},
		},
		{
			name: "explicit env wins over file",
			env:  map[string]string{"FEATURES_SERVER_PORT": "6060"},
			fileContent: `
server:
  port: 7070
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6060, cfg.Server.Port)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"FEATURES_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "invalid exporter",
			env:     map[string]string{"FEATURES_TELEMETRY_TRACE_EXPORTER": "jaeger"},
			wantErr: true,
		},
		{
			name:        "malformed file",
			fileContent: "server: [",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			// Load falls back to searching the working directory when no
			// file is given, so always pass an explicit path.
			path := filepath.Join(t.TempDir(), "config.yaml")
			if tt.fileContent != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.fileContent), 0644))
			} else {
				require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.validate())
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(t.TempDir(), "out")

	paths, err := ResolvePaths(PathsConfig{
		BaseDir:   base,
		ConfigDir: "configs/organizations",
		DataDir:   "data",
		OutputDir: abs,
		LogsDir:   "logs",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "configs/organizations"), paths.ConfigDir)
	assert.Equal(t, abs, paths.OutputDir)
	assert.Equal(t, filepath.Join(abs, "features.csv"), paths.OutputPath(FeaturesCSVFile))

	require.NoError(t, paths.EnsureDirectories())
	assert.True(t, FileExists(paths.LogsDir))
}

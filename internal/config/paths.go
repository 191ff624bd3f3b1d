package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the resolved, absolute directories used by the pipeline.
type Paths struct {
	BaseDir   string
	ConfigDir string
	DataDir   string
	OutputDir string
	LogsDir   string
}

// ResolvePaths turns the configured directories into absolute paths. An empty
// BaseDir resolves to the directory of the running executable.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		exe, err = filepath.EvalSymlinks(exe)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
		}
		base = filepath.Dir(exe)
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base dir: %w", err)
	}

	join := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	return &Paths{
		BaseDir:   base,
		ConfigDir: join(cfg.ConfigDir),
		DataDir:   join(cfg.DataDir),
		OutputDir: join(cfg.OutputDir),
		LogsDir:   join(cfg.LogsDir),
	}, nil
}

// EnsureDirectories creates all directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.OutputDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// OutputPath returns a file path inside the output directory
func (p *Paths) OutputPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// LogPathResolution logs the resolved directories
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("config", p.ConfigDir),
			slog.String("data", p.DataDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

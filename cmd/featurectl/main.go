// Command featurectl runs the feature pipeline for one organization over a
// CSV export or a synthetic dataset and writes the feature matrix and its
// artifacts to disk.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/dataset"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/exporter"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/files"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/infrastructure"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/pipeline"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/scaling"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/selection"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("featurectl failed", "error", err)
		os.Exit(1)
	}
}

// options are the parsed command line flags.
type options struct {
	configFile  string
	baseDir     string
	org         string
	industry    string
	input       string
	outDir      string
	rows        int
	seed        uint64
	missingRate float64
	failureRate float64
	selectFlag  bool
	maxFeatures int
	method      string
	scaler      string
	noXLSX      bool

	// set records which flags were given explicitly.
	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("featurectl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	o := &options{}
	fs.StringVar(&o.configFile, "config", "", "application config file (defaults to config.yaml or configs/config.yaml)")
	fs.StringVar(&o.baseDir, "base", "", "base directory for configs, data and output (defaults to the executable directory)")
	fs.StringVar(&o.org, "org", "", "organization ID (required)")
	fs.StringVar(&o.industry, "industry", "", "create the organization from this industry template when it has no config")
	fs.StringVar(&o.input, "in", "", "raw CSV export, or a directory whose newest CSV is used; relative paths also resolve under <data_dir>. A synthetic dataset is generated when empty")
	fs.StringVar(&o.outDir, "out", "", "output directory (defaults to <output_dir>/<org>)")
	fs.IntVar(&o.rows, "rows", 2000, "synthetic rows")
	fs.Uint64Var(&o.seed, "seed", 42, "synthetic random seed")
	fs.Float64Var(&o.missingRate, "missing-rate", 0, "share of synthetic sensor cells left empty")
	fs.Float64Var(&o.failureRate, "failure-rate", 0.2, "trailing share of synthetic rows in the failure regime")
	fs.BoolVar(&o.selectFlag, "select", true, "run feature selection (overrides the organization setting)")
	fs.IntVar(&o.maxFeatures, "max-features", config.DefaultMaxFeatures, "features kept by selection (overrides the organization setting)")
	fs.StringVar(&o.method, "method", "", "selection method: f_classif or mutual_info")
	fs.StringVar(&o.scaler, "scaler", "", "scale continuous features: standard, minmax or robust")
	fs.BoolVar(&o.noXLSX, "no-xlsx", false, "skip the XLSX workbook")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.org == "" {
		fs.Usage()
		return nil, fmt.Errorf("-org is required")
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// run executes one pipeline run. Logs go to stderr, the artifact report to
// stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if opts.baseDir != "" {
		cfg.Paths.BaseDir = opts.baseDir
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()
	logger = infrastructure.WithComponent(logger, "featurectl")
	ctx = infrastructure.EnsureTraceID(ctx)

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}
	paths.LogPathResolution(logger)

	manager, err := config.NewManager(paths.ConfigDir, logger)
	if err != nil {
		return err
	}
	org, err := loadOrganization(manager, opts.org, opts.industry)
	if err != nil {
		return err
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := otelProviders.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()
	metrics, err := infrastructure.NewPipelineMetrics(otelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	eng, err := pipeline.NewFromOrganization(org,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
		pipeline.WithParallel(cfg.Pipeline.Parallel))
	if err != nil {
		return err
	}

	validator := files.NewFileValidator(logger)
	outDir := opts.outDir
	if outDir == "" {
		outDir = paths.OutputPath(org.ID)
	}
	if err := validator.ValidateOutputDirectory(outDir); err != nil {
		return err
	}

	source := "synthetic"
	if opts.input != "" {
		source, err = files.NewDiscovery(paths.DataDir).ResolveInput(opts.input)
		if err != nil {
			return err
		}
		if err := validator.ValidateCSVFile(source); err != nil {
			return err
		}
	}

	raw, err := loadRaw(opts, source, org, eng, cfg.Pipeline.MaxRows)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "raw data loaded",
		slog.String("source", source),
		slog.Int("rows", raw.NumRows()),
		slog.Int("columns", raw.NumCols()))

	if cfg.Pipeline.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Pipeline.Timeout)
		defer cancel()
	}

	runOpts, err := runOptions(opts, org)
	if err != nil {
		return err
	}
	out, err := eng.Run(ctx, raw, runOpts)
	if err != nil {
		return err
	}

	result := out.Table
	kind := org.Features.Scaler
	if opts.set["scaler"] {
		kind = opts.scaler
	}
	var scaler *scaling.Scaler
	if kind != "" {
		k, err := scaling.ParseKind(kind)
		if err != nil {
			return err
		}
		if cols := scaling.ContinuousColumns(result, out.Features); len(cols) > 0 {
			result, scaler, err = scaling.FitTransform(k, result, cols)
			if err != nil {
				return err
			}
		} else {
			logger.Warn("no continuous features to scale", slog.String("scaler", kind))
		}
	}

	summary := pipeline.Summarize(result, out.Features, eng.Schema().TargetColumn())

	written, err := writeArtifacts(outDir, result, out, &summary, scaler, !opts.noXLSX, logger)
	if err != nil {
		return err
	}

	entry := exporter.RunRecord{
		Time:         time.Now(),
		Organization: org.ID,
		Fingerprint:  out.Fingerprint,
		Source:       source,
		RowsIn:       raw.NumRows(),
		RowsOut:      summary.TotalSamples,
		Features:     summary.TotalFeatures,
	}
	if out.Selection != nil {
		entry.Method = string(out.Selection.Method)
	}
	ledger := filepath.Join(outDir, config.RunsCSVFile)
	if err := exporter.NewCSVWriter(nil, logger).AppendRun(ledger, entry); err != nil {
		return err
	}
	written = append(written, ledger)

	fmt.Fprintf(stdout, "%s: %d features x %d rows (fingerprint %s)\n",
		org.ID, summary.TotalFeatures, summary.TotalSamples, out.Fingerprint)
	for _, path := range written {
		fmt.Fprintf(stdout, "  %s\n", path)
	}
	return nil
}

// loadOrganization loads id from manager. With an industry, a missing
// configuration is created from that template and saved; without one the
// manufacturing template is used in memory.
func loadOrganization(manager *config.Manager, id, industry string) (*config.Organization, error) {
	if industry == "" {
		return manager.LoadOrDefault(id)
	}
	org, err := manager.Load(id)
	if errors.Is(err, config.ErrOrganizationNotFound) && config.ValidOrganizationID(id) {
		return manager.CreateDefault(id, industry)
	}
	return org, err
}

// loadRaw reads the input CSV, or synthesizes readings for the schema's
// sensors at the organization's sampling interval.
func loadRaw(opts *options, input string, org *config.Organization, eng *pipeline.Engineer, maxRows int) (*table.Table, error) {
	s := eng.Schema()
	if opts.input != "" {
		return dataset.LoadCSVFile(input, dataset.OptionsFor(s, maxRows))
	}
	if maxRows > 0 && opts.rows > maxRows {
		return nil, fmt.Errorf("-rows %d exceeds the configured maximum of %d", opts.rows, maxRows)
	}
	return dataset.Synthetic(dataset.SyntheticConfig{
		Rows:              opts.rows,
		Seed:              opts.seed,
		Interval:          time.Duration(org.Data.SamplingIntervalSeconds()) * time.Second,
		ContinuousColumns: s.ContinuousColumns(),
		BooleanColumns:    s.BooleanColumns(),
		TimestampColumn:   s.TimestampColumn(),
		TargetColumn:      s.TargetColumn(),
		FailureRate:       opts.failureRate,
		MissingRate:       opts.missingRate,
	})
}

// runOptions starts from the organization's feature settings and applies
// explicitly given flags.
func runOptions(opts *options, org *config.Organization) (pipeline.RunOptions, error) {
	ro := pipeline.RunOptions{
		IncludeSelection: org.Features.IncludeSelection,
		MaxFeatures:      org.Features.MaxFeatures,
		Method:           selection.Method(org.Features.Method()),
	}
	if opts.set["select"] {
		ro.IncludeSelection = opts.selectFlag
	}
	if opts.set["max-features"] {
		if opts.maxFeatures < 0 {
			return ro, fmt.Errorf("-max-features must not be negative")
		}
		ro.MaxFeatures = opts.maxFeatures
	}
	if opts.set["method"] {
		m, err := selection.ParseMethod(opts.method)
		if err != nil {
			return ro, err
		}
		ro.Method = m
	}
	return ro, nil
}

// writeArtifacts writes the feature matrix and its JSON companions into dir
// and returns the written paths.
func writeArtifacts(dir string, t *table.Table, out *pipeline.Output, summary *pipeline.Summary, scaler *scaling.Scaler, xlsx bool, logger *slog.Logger) ([]string, error) {
	var written []string

	csvPath := filepath.Join(dir, config.FeaturesCSVFile)
	if err := exporter.NewCSVWriter(nil, logger).WriteTable(csvPath, t); err != nil {
		return nil, err
	}
	written = append(written, csvPath)

	if xlsx {
		xlsxPath := filepath.Join(dir, config.FeaturesXLSXFile)
		if err := exporter.WriteWorkbook(xlsxPath, t, exporter.WorkbookOptions{
			Summary:   summary,
			Selection: out.Selection,
		}); err != nil {
			return nil, err
		}
		written = append(written, xlsxPath)
	}

	summaryPath := filepath.Join(dir, config.SummaryJSONFile)
	if err := writeJSON(summaryPath, summary); err != nil {
		return nil, err
	}
	written = append(written, summaryPath)

	if out.Selection != nil {
		selectionPath := filepath.Join(dir, config.SelectionJSONFile)
		if err := writeJSON(selectionPath, out.Selection); err != nil {
			return nil, err
		}
		written = append(written, selectionPath)
	}

	if scaler != nil {
		scalerPath := filepath.Join(dir, config.ScalerJSONFile)
		f, err := os.Create(scalerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", scalerPath, err)
		}
		if err := scaler.Save(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write scaler: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		written = append(written, scalerPath)
	}

	logger.Info("artifacts written", slog.String("dir", dir), slog.Int("files", len(written)))
	return written, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

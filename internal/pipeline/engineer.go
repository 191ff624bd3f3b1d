package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/cleaner"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/features"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/infrastructure"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/selection"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// Stage identifiers outside the generator registry.
const (
	StageRename    = "rename"
	StageClean     = "clean"
	StageSelection = "selection"
)

// RunOptions controls feature selection for a single run.
type RunOptions struct {
	IncludeSelection bool
	MaxFeatures      int
	// Method defaults to f_classif.
	Method selection.Method
}

// Output is the result of a run.
type Output struct {
	Table *table.Table
	// Features are the columns of Table other than target and timestamp.
	Features    []string
	Selection   *selection.Result
	Cleaning    cleaner.Report
	Fingerprint string
}

// Engineer runs the feature pipeline for one schema.
type Engineer struct {
	organization string
	schema       *schema.Schema
	data         config.DataConfig
	registry     *features.Registry
	cleaner      *cleaner.Cleaner
	selector     *selection.Selector
	tracer       *stageTracer
	logger       *slog.Logger
	parallel     int
	fingerprint  string
}

// Option configures an Engineer.
type Option func(*Engineer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engineer) { e.logger = logger }
}

// WithMetrics records runs and stages into m.
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(e *Engineer) { e.tracer.metrics = m }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engineer) { e.tracer.tracer = t }
}

// WithRegistry replaces the default generator registry.
func WithRegistry(r *features.Registry) Option {
	return func(e *Engineer) { e.registry = r }
}

// WithParallel bounds per-column concurrency inside generators.
func WithParallel(n int) Option {
	return func(e *Engineer) { e.parallel = n }
}

// WithOrganization labels logs and metrics with an organization ID.
func WithOrganization(id string) Option {
	return func(e *Engineer) { e.organization = id }
}

// New creates an Engineer for s sampled as described by data.
func New(s *schema.Schema, data config.DataConfig, opts ...Option) (*Engineer, error) {
	if s == nil {
		return nil, fmt.Errorf("pipeline: nil schema")
	}

	e := &Engineer{
		schema:   s,
		data:     data,
		registry: features.NewDefaultRegistry(),
		tracer:   &stageTracer{tracer: otel.Tracer(infrastructure.InstrumentationName)},
		parallel: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("component", "feature_engineer")
	if e.organization != "" {
		e.logger = e.logger.With("organization", e.organization)
	}

	e.cleaner = cleaner.New(e.logger)
	e.selector = selection.New(s.TimestampColumn(), e.logger)

	fp, err := selection.Fingerprint(s.Config(), e.registry.ListIDs())
	if err != nil {
		return nil, err
	}
	e.fingerprint = fp

	e.logger.Debug("initialized feature engineer",
		slog.String("schema", s.String()),
		slog.Any("stages", e.registry.ListIDs()))
	return e, nil
}

// NewFromOrganization validates org and creates an Engineer for it.
func NewFromOrganization(org *config.Organization, opts ...Option) (*Engineer, error) {
	if err := org.Validate(); err != nil {
		return nil, err
	}
	s, err := org.BuildSchema()
	if err != nil {
		return nil, err
	}
	return New(s, org.Data, append([]Option{WithOrganization(org.ID)}, opts...)...)
}

// Schema returns the schema the engineer was built with.
func (e *Engineer) Schema() *schema.Schema { return e.schema }

// Fingerprint identifies the schema and stage order of this engineer.
func (e *Engineer) Fingerprint() string { return e.fingerprint }

// EngineerFeatures runs the pipeline and returns the final table and the
// feature columns it holds. Selection keeps maxFeatures columns when
// includeSelection is set and more candidates than that exist.
func (e *Engineer) EngineerFeatures(ctx context.Context, t *table.Table, includeSelection bool, maxFeatures int) (*table.Table, []string, error) {
	out, err := e.Run(ctx, t, RunOptions{IncludeSelection: includeSelection, MaxFeatures: maxFeatures})
	if err != nil {
		return nil, nil, err
	}
	return out.Table, out.Features, nil
}

// Run executes every stage on t. Any stage error aborts the run.
func (e *Engineer) Run(ctx context.Context, t *table.Table, opts RunOptions) (out *Output, err error) {
	method := opts.Method
	if method == "" {
		method = selection.FClassifMethod
	}
	if _, err := selection.ParseMethod(string(method)); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := e.tracer.startRun(ctx, e.organization, t.NumRows(), t.NumCols())
	featureCount := 0
	defer func() {
		e.tracer.finishRun(ctx, span, e.organization, start, featureCount, err)
		if err != nil {
			e.logger.ErrorContext(ctx, "feature engineering failed",
				slog.String("error", err.Error()),
				slog.Duration("duration", time.Since(start)))
		}
	}()

	e.logger.InfoContext(ctx, "starting feature engineering",
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumCols()))

	current := t
	if err := e.tracer.stage(ctx, StageRename, func(ctx context.Context) error {
		renamed, err := current.Rename(e.schema.ColumnMapping())
		if err != nil {
			return err
		}
		current = renamed
		return nil
	}); err != nil {
		return nil, err
	}

	env := features.Env{
		Schema:   e.schema,
		Data:     e.data,
		Logger:   e.logger,
		Parallel: e.parallel,
	}
	for _, g := range e.registry.List() {
		if err := e.tracer.stage(ctx, g.ID(), func(ctx context.Context) error {
			next, err := g.Apply(ctx, current, env)
			if err != nil {
				return fmt.Errorf("%s: %w", g.Name(), err)
			}
			e.logger.DebugContext(ctx, "stage complete",
				slog.String("stage", g.ID()),
				slog.Int("columns_added", next.NumCols()-current.NumCols()))
			current = next
			return nil
		}); err != nil {
			return nil, err
		}
	}

	var report cleaner.Report
	if err := e.tracer.stage(ctx, StageClean, func(ctx context.Context) error {
		cleaned, r, err := e.cleaner.Clean(ctx, current)
		report = r
		e.tracer.metrics.RecordRowsDropped(ctx, "sparse", r.SparseRowsDropped)
		e.tracer.metrics.RecordRowsDropped(ctx, "residual", r.ResidualRowsDropped)
		if err != nil {
			return err
		}
		current = cleaned
		return nil
	}); err != nil {
		return nil, err
	}

	candidates := e.featureColumns(current)
	var result *selection.Result
	if opts.IncludeSelection && len(candidates) > opts.MaxFeatures {
		if err := e.tracer.stage(ctx, StageSelection, func(ctx context.Context) error {
			selected, r, err := e.selector.Select(ctx, current, e.schema.TargetColumn(), candidates, opts.MaxFeatures, method)
			if err != nil {
				return err
			}
			r.Fingerprint = e.fingerprint
			e.tracer.metrics.RecordRowsDropped(ctx, "selection", r.RowsDropped)
			current, result = selected, r
			return nil
		}); err != nil {
			return nil, err
		}
	}

	names := e.featureColumns(current)
	featureCount = len(names)

	e.logger.InfoContext(ctx, "feature engineering complete",
		slog.Int("rows", current.NumRows()),
		slog.Int("features", featureCount),
		slog.Bool("selection_applied", result != nil),
		slog.Duration("duration", time.Since(start)))

	return &Output{
		Table:       current,
		Features:    names,
		Selection:   result,
		Cleaning:    report,
		Fingerprint: e.fingerprint,
	}, nil
}

// featureColumns lists every column except target and timestamp.
func (e *Engineer) featureColumns(t *table.Table) []string {
	target, ts := e.schema.TargetColumn(), e.schema.TimestampColumn()
	var out []string
	for _, name := range t.ColumnNames() {
		if name != target && name != ts {
			out = append(out, name)
		}
	}
	return out
}

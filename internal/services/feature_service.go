package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/cleaner"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/dataset"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/infrastructure"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/pipeline"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/scaling"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/selection"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// OrganizationStore is the subset of config.Manager the feature service uses.
type OrganizationStore interface {
	List() ([]string, error)
	Load(orgID string) (*config.Organization, error)
	LoadOrDefault(orgID string) (*config.Organization, error)
	CreateDefault(orgID, industry string) (*config.Organization, error)
}

// FeatureRequest is the body of a feature engineering call. Unset options
// fall back to the organization's feature configuration.
type FeatureRequest struct {
	Rows             []map[string]any `json:"rows" validate:"required,min=1"`
	IncludeSelection *bool            `json:"include_selection,omitempty"`
	MaxFeatures      *int             `json:"max_features,omitempty" validate:"omitempty,min=0,max=1000"`
	Method           string           `json:"method,omitempty" validate:"omitempty,oneof=f_classif mutual_info"`
	Scaler           string           `json:"scaler,omitempty" validate:"omitempty,oneof=standard minmax robust"`
}

// FeatureResponse is the result of a feature engineering call.
type FeatureResponse struct {
	RunID        string            `json:"run_id"`
	Organization string            `json:"organization"`
	Features     []string          `json:"features"`
	Rows         []map[string]any  `json:"rows"`
	Summary      pipeline.Summary  `json:"summary"`
	Selection    *selection.Result `json:"selection,omitempty"`
	Cleaning     cleaner.Report    `json:"cleaning"`
	Scaler       *scaling.Scaler   `json:"scaler,omitempty"`
	Fingerprint  string            `json:"fingerprint"`
	DurationMS   int64             `json:"duration_ms"`
}

// SchemaResponse describes the features an organization produces before
// selection.
type SchemaResponse struct {
	Organization *config.Organization `json:"organization"`
	FeatureNames []string             `json:"feature_names"`
	Fingerprint  string               `json:"fingerprint"`
}

// CreateOrganizationRequest creates an organization from an industry template.
type CreateOrganizationRequest struct {
	ID       string `json:"organization_id" validate:"required,orgid"`
	Industry string `json:"industry" validate:"omitempty,oneof=manufacturing power_generation water_treatment"`
}

// FeatureService runs the feature pipeline on behalf of the HTTP API.
type FeatureService struct {
	store   OrganizationStore
	limits  config.PipelineConfig
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewFeatureService creates a feature service. metrics may be nil.
func NewFeatureService(store OrganizationStore, limits config.PipelineConfig, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *FeatureService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeatureService{
		store:   store,
		limits:  limits,
		metrics: metrics,
		logger:  logger.With(slog.String("service", "feature")),
	}
}

// ListOrganizations returns the IDs of the stored organizations.
func (s *FeatureService) ListOrganizations(ctx context.Context) ([]string, error) {
	ids, err := s.store.List()
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// CreateOrganization writes a default configuration for a new organization.
func (s *FeatureService) CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*config.Organization, error) {
	if _, err := s.store.Load(req.ID); err == nil {
		return nil, fmt.Errorf("%s: %w", req.ID, ErrOrganizationExists)
	} else if !errors.Is(err, ErrOrganizationNotFound) {
		return nil, err
	}
	industry := req.Industry
	if industry == "" {
		industry = config.IndustryManufacturing
	}
	org, err := s.store.CreateDefault(req.ID, industry)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "organization created",
		slog.String("organization", org.ID),
		slog.String("industry", org.Industry))
	return org, nil
}

// GetSchema returns an organization's configuration and the feature names
// its schema generates.
func (s *FeatureService) GetSchema(ctx context.Context, orgID string) (*SchemaResponse, error) {
	org, err := s.store.LoadOrDefault(orgID)
	if err != nil {
		return nil, err
	}
	eng, err := pipeline.NewFromOrganization(org, pipeline.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	return &SchemaResponse{
		Organization: org,
		FeatureNames: eng.Schema().AllFeatureNames(),
		Fingerprint:  eng.Fingerprint(),
	}, nil
}

// Engineer runs the pipeline for orgID on the submitted rows, bounded by the
// configured timeout and row limit.
func (s *FeatureService) Engineer(ctx context.Context, orgID string, req FeatureRequest) (*FeatureResponse, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With(slog.String("organization", orgID), slog.String("run_id", runID))

	org, err := s.store.LoadOrDefault(orgID)
	if err != nil {
		return nil, err
	}

	eng, err := pipeline.NewFromOrganization(org,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(s.metrics),
		pipeline.WithParallel(s.limits.Parallel))
	if err != nil {
		return nil, err
	}

	raw, err := dataset.FromRecords(req.Rows, dataset.OptionsFor(eng.Schema(), s.limits.MaxRows))
	if err != nil {
		return nil, err
	}

	opts := pipeline.RunOptions{
		IncludeSelection: org.Features.IncludeSelection,
		MaxFeatures:      org.Features.MaxFeatures,
		Method:           selection.Method(org.Features.Method()),
	}
	if req.IncludeSelection != nil {
		opts.IncludeSelection = *req.IncludeSelection
	}
	if req.MaxFeatures != nil {
		opts.MaxFeatures = *req.MaxFeatures
	}
	if req.Method != "" {
		opts.Method = selection.Method(req.Method)
	}

	runCtx := ctx
	if s.limits.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.limits.Timeout)
		defer cancel()
	}

	out, err := eng.Run(runCtx, raw, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s: %w", ErrPipelineTimeout, s.limits.Timeout, err)
		}
		return nil, err
	}

	result := out.Table
	var scaler *scaling.Scaler
	kind := req.Scaler
	if kind == "" {
		kind = org.Features.Scaler
	}
	if kind != "" {
		k, err := scaling.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		if cols := scaling.ContinuousColumns(result, out.Features); len(cols) > 0 {
			result, scaler, err = scaling.FitTransform(k, result, cols)
			if err != nil {
				return nil, err
			}
		} else {
			logger.WarnContext(ctx, "no continuous features to scale", slog.String("scaler", kind))
		}
	}

	resp := &FeatureResponse{
		RunID:        runID,
		Organization: org.ID,
		Features:     out.Features,
		Rows:         jsonRows(result),
		Summary:      pipeline.Summarize(result, out.Features, eng.Schema().TargetColumn()),
		Selection:    out.Selection,
		Cleaning:     out.Cleaning,
		Scaler:       scaler,
		Fingerprint:  out.Fingerprint,
		DurationMS:   time.Since(start).Milliseconds(),
	}
	logger.InfoContext(ctx, "feature request complete",
		slog.Int("rows", len(resp.Rows)),
		slog.Int("features", len(resp.Features)),
		slog.Int64("duration_ms", resp.DurationMS))
	return resp, nil
}

// jsonRows converts t to rows JSON can encode. Non-finite floats become null.
func jsonRows(t *table.Table) []map[string]any {
	rows := make([]map[string]any, t.NumRows())
	for i := range rows {
		row := t.Row(i)
		for k, v := range row {
			if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
				row[k] = nil
			}
		}
		rows[i] = row
	}
	return rows
}

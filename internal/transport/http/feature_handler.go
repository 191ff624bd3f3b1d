package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
	apierrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/middleware"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/services"
)

// MaxResponseRows bounds the limit query parameter of the features endpoint.
const MaxResponseRows = 1_000_000

// FeatureHandler handles organization and feature engineering requests with
// RFC 7807 errors
type FeatureHandler struct {
	service      FeatureServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewFeatureHandler creates a new feature handler
func NewFeatureHandler(service FeatureServiceInterface, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *FeatureHandler {
	return &FeatureHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "feature_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the feature routes, mounted under /api/v1
func (h *FeatureHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(middleware.ContentTypeValidator(h.errorHandler, "application/json"))

	r.Get("/industries", h.ListIndustries)
	r.Get("/organizations", h.ListOrganizations)
	r.Post("/organizations", h.CreateOrganization)

	r.Route("/organizations/{org}", func(r chi.Router) {
		r.Use(h.OrganizationCtx)
		r.Get("/schema", h.GetSchema)
		r.Post("/features", h.EngineerFeatures)
	})
	return r
}

// OrganizationCtx rejects malformed organization IDs before any lookup
func (h *FeatureHandler) OrganizationCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		org := chi.URLParam(r, "org")
		if !config.ValidOrganizationID(org) {
			h.errorHandler.HandleError(w, r, apierrors.NewRequestError(http.StatusNotFound,
				fmt.Sprintf("organization %q not found", org)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListIndustries handles GET /industries
func (h *FeatureHandler) ListIndustries(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"industries": config.Industries(),
	})
}

// ListOrganizations handles GET /organizations
func (h *FeatureHandler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListOrganizations(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"organizations": ids,
		"count":         len(ids),
	})
}

// CreateOrganization handles POST /organizations
func (h *FeatureHandler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req services.CreateOrganizationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewRequestError(http.StatusBadRequest, "invalid JSON body"))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	org, err := h.service.CreateOrganization(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, org)
}

// GetSchema handles GET /organizations/{org}/schema
func (h *FeatureHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetSchema(r.Context(), chi.URLParam(r, "org"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// EngineerFeatures handles POST /organizations/{org}/features. The optional
// limit query parameter truncates the returned rows; the summary still
// covers every row.
func (h *FeatureHandler) EngineerFeatures(w http.ResponseWriter, r *http.Request) {
	limit, err := middleware.QueryInt(r, "limit", 0, MaxResponseRows, 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var req services.FeatureRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.NewRequestError(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.NewRequestError(http.StatusBadRequest, "invalid JSON body"))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	org := chi.URLParam(r, "org")
	resp, err := h.service.Engineer(r.Context(), org, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if limit > 0 && len(resp.Rows) > limit {
		resp.Rows = resp.Rows[:limit]
	}

	h.logger.InfoContext(r.Context(), "features engineered",
		slog.String("organization", org),
		slog.String("run_id", resp.RunID),
		slog.Int("features", len(resp.Features)))
	render.JSON(w, r, resp)
}

// handleServiceError maps service sentinels to request errors; everything
// else goes to the error handler unchanged.
func (h *FeatureHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrOrganizationNotFound):
		err = apierrors.NewRequestError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrOrganizationExists):
		err = apierrors.NewRequestError(http.StatusConflict, err.Error())
	}
	h.errorHandler.HandleError(w, r, err)
}

package errors

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Problem types following RFC 7807
const (
	TypeValidation       = "/errors/validation"
	TypeNotFound         = "/errors/not-found"
	TypeConflict         = "/errors/conflict"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeTimeout          = "/errors/timeout"
	TypeConfiguration    = "/errors/features/configuration"
	TypeDataFormat       = "/errors/features/data-format"
	TypeInsufficientData = "/errors/features/insufficient-data"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem := h.ErrorToProblem(err, r)
	if reqID != "" {
		problem.WithExtension("trace_id", reqID)
	}
	if h.includeStack {
		problem.WithExtension("stack", string(debug.Stack()))
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	var reqErr *RequestError
	if stderrors.As(err, &reqErr) {
		problemType := TypeValidation
		switch reqErr.Status {
		case http.StatusNotFound:
			problemType = TypeNotFound
		case http.StatusConflict:
			problemType = TypeConflict
		}
		problem := NewProblemDetails(reqErr.Status, problemType, http.StatusText(reqErr.Status), reqErr.Message, r.URL.Path)
		if len(reqErr.Fields) > 0 {
			problem.WithExtension("errors", reqErr.Fields)
		}
		return problem
	}

	var fe *FeatureError
	if stderrors.As(err, &fe) {
		return featureErrorToProblem(fe, r)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

func featureErrorToProblem(fe *FeatureError, r *http.Request) *ProblemDetails {
	var problem *ProblemDetails
	switch fe.Type {
	case ErrorTypeConfiguration:
		problem = NewProblemDetails(http.StatusBadRequest, TypeConfiguration, "Invalid Feature Configuration", fe.Message, r.URL.Path)
	case ErrorTypeDataFormat:
		problem = NewProblemDetails(http.StatusUnprocessableEntity, TypeDataFormat, "Invalid Data Format", fe.Message, r.URL.Path)
	case ErrorTypeInsufficientData:
		problem = NewProblemDetails(http.StatusUnprocessableEntity, TypeInsufficientData, "Insufficient Data", fe.Message, r.URL.Path)
	default:
		problem = NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error", fe.Message, r.URL.Path)
	}
	problem.WithExtension("error_type", string(fe.Type))
	if fe.Column != "" {
		problem.WithExtension("column", fe.Column)
	}
	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	)
	if reqID != "" {
		problem.WithExtension("trace_id", reqID)
	}
	render.Render(w, r, problem)
}

// Recoverer returns middleware that turns panics into RFC 7807 responses
func (h *ErrorHandler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.HandlePanic(w, r, rec)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

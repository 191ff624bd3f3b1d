package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
)

// Validator validates request structs using struct tags
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a validator reporting JSON field names
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New()
	_ = v.RegisterValidation("orgid", func(fl validator.FieldLevel) bool {
		return config.ValidOrganizationID(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate: v,
		logger:   logger.With(slog.String("component", "request_validator")),
	}
}

// ValidateStruct returns a 400 request error listing every invalid field
func (m *Validator) ValidateStruct(v interface{}) error {
	err := m.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ferrors.NewRequestError(http.StatusBadRequest, err.Error())
	}

	fields := make([]ferrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, ferrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	m.logger.Debug("request validation failed", slog.Int("fields", len(fields)))
	return ferrors.NewRequestError(http.StatusBadRequest, "request validation failed", fields...)
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "orgid":
		return fmt.Sprintf("%s must be a valid organization ID", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// ContentTypeValidator ensures requests with a body use one of contentTypes
func ContentTypeValidator(errorHandler *ferrors.ErrorHandler, contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			for _, allowed := range contentTypes {
				if strings.HasPrefix(contentType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			errorHandler.HandleError(w, r, ferrors.NewRequestError(http.StatusUnsupportedMediaType,
				fmt.Sprintf("unsupported content type %q", contentType)))
		})
	}
}

// QueryInt parses an integer query parameter within [min, max]
func QueryInt(r *http.Request, param string, min, max, defaultValue int) (int, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, ferrors.NewRequestError(http.StatusBadRequest, "invalid query parameter",
			ferrors.ValidationError{Field: param, Message: fmt.Sprintf("%s must be a valid integer", param)})
	}
	if n < min || n > max {
		return 0, ferrors.NewRequestError(http.StatusBadRequest, "invalid query parameter",
			ferrors.ValidationError{Field: param, Message: fmt.Sprintf("%s must be between %d and %d", param, min, max)})
	}
	return n, nil
}

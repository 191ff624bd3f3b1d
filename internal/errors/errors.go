package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies a feature pipeline failure.
type ErrorType string

const (
	// ErrorTypeConfiguration marks invalid or contradictory schema or selection parameters.
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeDataFormat marks an unparsable value or an incompatible column type.
	ErrorTypeDataFormat ErrorType = "data_format"
	// ErrorTypeInsufficientData marks a stage that would produce an empty result.
	ErrorTypeInsufficientData ErrorType = "insufficient_data"
)

// FeatureError is the error returned by every stage of the feature pipeline.
// None of the types are retryable: the same input always fails the same way.
type FeatureError struct {
	Type    ErrorType              `json:"type"`
	Column  string                 `json:"column,omitempty"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *FeatureError) Error() string {
	if e == nil {
		return "unknown feature error"
	}
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Column != "" {
		msg = fmt.Sprintf("[%s] column %q: %s", e.Type, e.Column, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *FeatureError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// WithContext attaches a diagnostic key/value pair and returns the error.
func (e *FeatureError) WithContext(key string, value interface{}) *FeatureError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(format string, args ...interface{}) *FeatureError {
	return &FeatureError{
		Type:    ErrorTypeConfiguration,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewDataFormatError creates a data format error for the offending column
func NewDataFormatError(column string, cause error, format string, args ...interface{}) *FeatureError {
	return &FeatureError{
		Type:    ErrorTypeDataFormat,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// NewInsufficientDataError creates an insufficient data error
func NewInsufficientDataError(format string, args ...interface{}) *FeatureError {
	return &FeatureError{
		Type:    ErrorTypeInsufficientData,
		Message: fmt.Sprintf(format, args...),
	}
}

// TypeOf returns the ErrorType of the first FeatureError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var fe *FeatureError
	if stderrors.As(err, &fe) {
		return fe.Type, true
	}
	return "", false
}

// IsConfiguration reports whether err is a configuration error
func IsConfiguration(err error) bool {
	t, ok := TypeOf(err)
	return ok && t == ErrorTypeConfiguration
}

// IsDataFormat reports whether err is a data format error
func IsDataFormat(err error) bool {
	t, ok := TypeOf(err)
	return ok && t == ErrorTypeDataFormat
}

// IsInsufficientData reports whether err is an insufficient data error
func IsInsufficientData(err error) bool {
	t, ok := TypeOf(err)
	return ok && t == ErrorTypeInsufficientData
}

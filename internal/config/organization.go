package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
)

// Organization is the complete feature pipeline configuration of one tenant.
type Organization struct {
	ID       string        `yaml:"organization_id" json:"organization_id" validate:"required,orgid"`
	Industry string        `yaml:"industry" json:"industry" validate:"omitempty,oneof=manufacturing power_generation water_treatment"`
	Schema   schema.Config `yaml:"schema" json:"schema"`
	Data     DataConfig    `yaml:"data" json:"data"`
	Features FeatureConfig `yaml:"features" json:"features"`
}

// DataConfig describes how raw readings are sampled and extracted.
type DataConfig struct {
	SamplingIntervalMinutes int       `yaml:"sampling_interval_minutes" json:"sampling_interval_minutes" validate:"min=1"`
	MinSamples              int       `yaml:"min_samples" json:"min_samples" validate:"min=1"`
	MaxSamples              int       `yaml:"max_samples" json:"max_samples" validate:"gtefield=MinSamples"`
	StartDate               time.Time `yaml:"start_date" json:"start_date"`
	EndDate                 time.Time `yaml:"end_date" json:"end_date"`
	FailureLookbackMinutes  int       `yaml:"failure_lookback_minutes" json:"failure_lookback_minutes" validate:"min=0"`
	FailureLookaheadMinutes int       `yaml:"failure_lookahead_minutes" json:"failure_lookahead_minutes" validate:"min=0"`
}

// SamplingIntervalSeconds returns the sampling interval in seconds.
func (d DataConfig) SamplingIntervalSeconds() int {
	return d.SamplingIntervalMinutes * 60
}

// FeatureConfig controls selection and scaling of the generated features.
type FeatureConfig struct {
	IncludeSelection bool   `yaml:"include_selection" json:"include_selection"`
	MaxFeatures      int    `yaml:"max_features" json:"max_features" validate:"min=0"`
	SelectionMethod  string `yaml:"selection_method" json:"selection_method" validate:"omitempty,oneof=f_classif mutual_info"`
	Scaler           string `yaml:"scaler" json:"scaler" validate:"omitempty,oneof=standard minmax robust"`
}

// Method returns the selection method, defaulting to f_classif.
func (f FeatureConfig) Method() string {
	if f.SelectionMethod == "" {
		return DefaultSelectionMethod
	}
	return f.SelectionMethod
}

var orgValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("orgid", func(fl validator.FieldLevel) bool {
		return ValidOrganizationID(fl.Field().String())
	})
	return v
}

// ValidOrganizationID reports whether id is safe to use as a file name.
func ValidOrganizationID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// Validate checks the organization configuration, including the schema
// invariants. Every failure is a configuration error.
func (o *Organization) Validate() error {
	if err := orgValidator.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return ferrors.NewConfigurationError("organization %q: %s", o.ID, strings.Join(msgs, "; "))
		}
		return ferrors.NewConfigurationError("organization %q: %v", o.ID, err)
	}
	if !o.Data.StartDate.IsZero() && !o.Data.EndDate.IsZero() && !o.Data.StartDate.Before(o.Data.EndDate) {
		return ferrors.NewConfigurationError("organization %q: start date must be before end date", o.ID)
	}
	if _, err := schema.New(o.Schema); err != nil {
		return err
	}
	return nil
}

// BuildSchema validates the schema section and returns the immutable Schema.
func (o *Organization) BuildSchema() (*schema.Schema, error) {
	return schema.New(o.Schema)
}

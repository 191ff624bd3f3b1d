// Package scaling fits per-column scalers on a feature table and applies
// them at inference time. Fitted parameters serialize to JSON.
package scaling

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/features"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// Kind names a scaling strategy.
type Kind string

const (
	// Standard removes the mean and divides by the population standard deviation.
	Standard Kind = "standard"
	// MinMax maps the observed range onto [0, 1].
	MinMax Kind = "minmax"
	// Robust removes the median and divides by the interquartile range.
	Robust Kind = "robust"
)

// ParseKind validates a scaler name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Standard, MinMax, Robust:
		return k, nil
	default:
		return "", ferrors.NewConfigurationError("unknown scaler type %q", s)
	}
}

// Scaler holds fitted parameters: value' = (value - Center) / Scale.
type Scaler struct {
	Kind    Kind      `json:"kind"`
	Columns []string  `json:"columns"`
	Center  []float64 `json:"center"`
	Scale   []float64 `json:"scale"`
}

// New returns an unfitted scaler of the given kind.
func New(kind Kind) (*Scaler, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	return &Scaler{Kind: kind}, nil
}

// Fitted reports whether Fit has been called.
func (s *Scaler) Fitted() bool { return len(s.Columns) > 0 }

// Fit computes parameters for columns of t from their non-missing values.
// Columns without spread get scale 1.
func (s *Scaler) Fit(t *table.Table, columns []string) error {
	if len(columns) == 0 {
		return ferrors.NewConfigurationError("no columns to scale")
	}
	center := make([]float64, len(columns))
	scale := make([]float64, len(columns))
	for i, name := range columns {
		x, err := numeric(t, name)
		if err != nil {
			return err
		}
		v := make([]float64, 0, len(x))
		for _, f := range x {
			if !math.IsNaN(f) {
				v = append(v, f)
			}
		}
		if len(v) == 0 {
			return ferrors.NewInsufficientDataError("column %s has no values to fit", name).WithContext("column", name)
		}
		center[i], scale[i] = s.params(v)
		if scale[i] == 0 || math.IsNaN(scale[i]) {
			scale[i] = 1
		}
	}
	s.Columns = append([]string(nil), columns...)
	s.Center, s.Scale = center, scale
	return nil
}

func (s *Scaler) params(v []float64) (center, scale float64) {
	switch s.Kind {
	case MinMax:
		lo, hi := floats.Min(v), floats.Max(v)
		return lo, hi - lo
	case Robust:
		return features.Percentile(v, 50), features.Percentile(v, 75) - features.Percentile(v, 25)
	default:
		return stat.PopMeanStdDev(v, nil)
	}
}

// Transform returns a copy of t with the fitted columns scaled. Missing
// values stay missing.
func (s *Scaler) Transform(t *table.Table) (*table.Table, error) {
	if !s.Fitted() {
		return nil, ferrors.NewConfigurationError("scaler %s has not been fitted", s.Kind)
	}
	if len(s.Center) != len(s.Columns) || len(s.Scale) != len(s.Columns) {
		return nil, ferrors.NewConfigurationError("scaler parameters do not match %d columns", len(s.Columns))
	}

	out := t.Clone()
	for i, name := range s.Columns {
		x, err := numeric(t, name)
		if err != nil {
			return nil, err
		}
		scaled := make([]float64, len(x))
		for r, v := range x {
			scaled[r] = (v - s.Center[i]) / s.Scale[i]
		}
		if err := out.ReplaceColumn(table.NewFloatColumn(name, scaled)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FitTransform fits a new scaler of kind on columns and applies it to t.
func FitTransform(kind Kind, t *table.Table, columns []string) (*table.Table, *Scaler, error) {
	s, err := New(kind)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Fit(t, columns); err != nil {
		return nil, nil, err
	}
	scaled, err := s.Transform(t)
	if err != nil {
		return nil, nil, err
	}
	return scaled, s, nil
}

// ContinuousColumns returns the float columns among names. Boolean,
// time and text columns are left out.
func ContinuousColumns(t *table.Table, names []string) []string {
	var out []string
	for _, name := range names {
		if c, ok := t.Column(name); ok && c.Kind() == table.KindFloat {
			out = append(out, name)
		}
	}
	return out
}

// Save writes the fitted parameters as JSON.
func (s *Scaler) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Load reads parameters written by Save.
func Load(r io.Reader) (*Scaler, error) {
	var s Scaler
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode scaler: %w", err)
	}
	if _, err := ParseKind(string(s.Kind)); err != nil {
		return nil, err
	}
	return &s, nil
}

func numeric(t *table.Table, name string) ([]float64, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, ferrors.NewConfigurationError("column %s not in table", name).WithContext("column", name)
	}
	if !c.Kind().Numeric() {
		return nil, ferrors.NewDataFormatError(name, nil, "cannot scale %s column", c.Kind())
	}
	return c.Floats(), nil
}

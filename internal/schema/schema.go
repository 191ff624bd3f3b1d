package schema

import (
	"fmt"
	"sort"

	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
)

// DefaultTimestampColumn is used when Config.TimestampColumn is empty.
const DefaultTimestampColumn = "timestamp"

// Config holds the raw, unvalidated schema values of one organization.
type Config struct {
	ContinuousColumns []string          `yaml:"continuous_columns" json:"continuous_columns"`
	BooleanColumns    []string          `yaml:"boolean_columns" json:"boolean_columns"`
	ColumnMapping     map[string]string `yaml:"column_mapping" json:"column_mapping,omitempty"`
	LagSeconds        []int             `yaml:"lag_seconds" json:"lag_seconds"`
	RollingWindows    []int             `yaml:"rolling_windows" json:"rolling_windows"`
	TargetColumn      string            `yaml:"target_column" json:"target_column"`
	TimestampColumn   string            `yaml:"timestamp_column" json:"timestamp_column"`
}

// Schema is the validated, immutable column description of one organization.
// It is safe for concurrent use.
type Schema struct {
	continuous []string
	boolean    []string
	mapping    map[string]string
	lags       []int
	windows    []int
	target     string
	timestamp  string
	features   []string
}

// New validates cfg and returns an immutable Schema.
func New(cfg Config) (*Schema, error) {
	s := &Schema{
		continuous: copyStrings(cfg.ContinuousColumns),
		boolean:    copyStrings(cfg.BooleanColumns),
		mapping:    make(map[string]string, len(cfg.ColumnMapping)),
		lags:       copyInts(cfg.LagSeconds),
		windows:    copyInts(cfg.RollingWindows),
		target:     cfg.TargetColumn,
		timestamp:  cfg.TimestampColumn,
	}
	for k, v := range cfg.ColumnMapping {
		s.mapping[k] = v
	}
	if s.timestamp == "" {
		s.timestamp = DefaultTimestampColumn
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	s.features = s.buildFeatureNames()
	if dup := firstDuplicate(s.features); dup != "" {
		return nil, ferrors.NewConfigurationError("feature name %q would be generated more than once", dup).
			WithContext("feature", dup)
	}
	return s, nil
}

func (s *Schema) validate() error {
	if s.target == "" {
		return ferrors.NewConfigurationError("target column is required")
	}
	if len(s.continuous) == 0 && len(s.boolean) == 0 {
		return ferrors.NewConfigurationError("at least one continuous or boolean column must be specified")
	}

	for _, col := range s.continuous {
		if err := s.checkDeclared(col, "continuous"); err != nil {
			return err
		}
	}
	for _, col := range s.boolean {
		if err := s.checkDeclared(col, "boolean"); err != nil {
			return err
		}
	}

	for _, lag := range s.lags {
		if lag <= 0 {
			return ferrors.NewConfigurationError("lag seconds must be positive, got %d", lag)
		}
	}
	for _, w := range s.windows {
		if w <= 0 {
			return ferrors.NewConfigurationError("rolling window must be positive, got %d", w)
		}
	}

	return s.validateMapping()
}

func (s *Schema) checkDeclared(col, kind string) error {
	if col == "" {
		return ferrors.NewConfigurationError("%s column names must not be empty", kind)
	}
	resolved := s.Resolve(col)
	for _, reserved := range []string{s.target, s.timestamp} {
		if col == reserved || resolved == reserved {
			return ferrors.NewConfigurationError("%s column %q collides with reserved column %q", kind, col, reserved)
		}
	}
	return nil
}

// validateMapping enforces that renaming is idempotent and injective.
func (s *Schema) validateMapping() error {
	keys := make([]string, 0, len(s.mapping))
	for k := range s.mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]string, len(s.mapping))
	for _, raw := range keys {
		mapped := s.mapping[raw]
		if mapped == "" {
			return ferrors.NewConfigurationError("column mapping for %q has an empty target", raw)
		}
		if mapped == raw {
			continue
		}
		if _, isKey := s.mapping[mapped]; isKey {
			return ferrors.NewConfigurationError("column mapping is not idempotent: %q maps to %q which is itself mapped", raw, mapped)
		}
		if prev, ok := seen[mapped]; ok {
			return ferrors.NewConfigurationError("columns %q and %q both map to %q", prev, raw, mapped)
		}
		seen[mapped] = raw
	}
	return nil
}

func (s *Schema) buildFeatureNames() []string {
	names := make([]string, 0, len(s.continuous)*(1+len(s.lags)+4*len(s.windows))+len(s.boolean))
	for _, col := range s.continuous {
		mapped := s.Resolve(col)
		names = append(names, mapped)
		for _, lag := range s.lags {
			names = append(names, LagName(mapped, lag))
		}
		for _, w := range s.windows {
			for _, stat := range RollingStats {
				names = append(names, RollingName(mapped, stat, w))
			}
		}
	}
	for _, col := range s.boolean {
		names = append(names, s.Resolve(col))
	}
	return names
}

// Resolve returns the mapped name of raw, or raw itself when it has no mapping.
func (s *Schema) Resolve(raw string) string {
	if mapped, ok := s.mapping[raw]; ok {
		return mapped
	}
	return raw
}

// AllFeatureNames returns the canonical base, lag and rolling feature names in
// declaration order, followed by the boolean columns.
func (s *Schema) AllFeatureNames() []string {
	return copyStrings(s.features)
}

// ContinuousColumns returns the declared (raw) continuous columns.
func (s *Schema) ContinuousColumns() []string { return copyStrings(s.continuous) }

// BooleanColumns returns the declared (raw) boolean columns.
func (s *Schema) BooleanColumns() []string { return copyStrings(s.boolean) }

// ColumnMapping returns a copy of the rename table.
func (s *Schema) ColumnMapping() map[string]string {
	out := make(map[string]string, len(s.mapping))
	for k, v := range s.mapping {
		out[k] = v
	}
	return out
}

// LagSeconds returns the configured lag offsets.
func (s *Schema) LagSeconds() []int { return copyInts(s.lags) }

// RollingWindows returns the configured rolling window sizes.
func (s *Schema) RollingWindows() []int { return copyInts(s.windows) }

// TargetColumn returns the label column name.
func (s *Schema) TargetColumn() string { return s.target }

// TimestampColumn returns the timestamp column name.
func (s *Schema) TimestampColumn() string { return s.timestamp }

// Config returns the schema as a Config value, suitable for serialization.
func (s *Schema) Config() Config {
	return Config{
		ContinuousColumns: s.ContinuousColumns(),
		BooleanColumns:    s.BooleanColumns(),
		ColumnMapping:     s.ColumnMapping(),
		LagSeconds:        s.LagSeconds(),
		RollingWindows:    s.RollingWindows(),
		TargetColumn:      s.target,
		TimestampColumn:   s.timestamp,
	}
}

// String implements fmt.Stringer
func (s *Schema) String() string {
	return fmt.Sprintf("schema(target=%s, continuous=%d, boolean=%d, lags=%v, windows=%v)",
		s.target, len(s.continuous), len(s.boolean), s.lags, s.windows)
}

func firstDuplicate(names []string) string {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return n
		}
		seen[n] = struct{}{}
	}
	return ""
}

func copyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyInts(in []int) []int {
	if in == nil {
		return []int{}
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}

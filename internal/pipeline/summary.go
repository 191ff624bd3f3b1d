package pipeline

import (
	"sort"
	"strconv"
	"strings"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/features"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// Feature families reported by Summarize.
const (
	FamilyBase        = "base"
	FamilyLag         = "lag"
	FamilyRolling     = "rolling"
	FamilyRate        = "rate_of_change"
	FamilyInteraction = "interaction"
	FamilyStatistics  = "statistics"
	FamilyTime        = "time"
	FamilyAnomaly     = "anomaly"
	FamilyDomain      = "domain"
)

// Summary describes a feature table.
type Summary struct {
	TotalFeatures int            `json:"total_features"`
	TotalSamples  int            `json:"total_samples"`
	FeatureTypes  map[string]int `json:"feature_types"`
	// MissingPercent lists features with at least one missing value.
	MissingPercent     map[string]float64 `json:"missing_values"`
	TargetDistribution map[string]int     `json:"target_distribution"`
}

var (
	timeNames   = setOf(features.TimeFeatureNames)
	statNames   = setOf(features.CrossStatNames)
	domainNames = setOf(features.DomainFeatureNames())
)

func setOf(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// Family classifies a generated column name.
func Family(name string) string {
	if _, ok := timeNames[name]; ok {
		return FamilyTime
	}
	if _, ok := statNames[name]; ok {
		return FamilyStatistics
	}
	if _, ok := domainNames[name]; ok {
		return FamilyDomain
	}
	switch {
	case strings.Contains(name, "_lag_"):
		return FamilyLag
	case strings.Contains(name, "_rolling_"):
		return FamilyRolling
	case hasSuffix(name, "_roc", "_acceleration", "_pct_change"):
		return FamilyRate
	case hasSuffix(name, "_"+features.OpMult, "_"+features.OpRatio, "_"+features.OpDiff):
		return FamilyInteraction
	case hasSuffix(name, "_z_score", "_anomaly", "_distance_from_mean"):
		return FamilyAnomaly
	default:
		return FamilyBase
	}
}

func hasSuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

// Summarize counts features by family, reports missing cells and the
// distribution of the target column.
func Summarize(t *table.Table, featureNames []string, target string) Summary {
	s := Summary{
		TotalFeatures:      len(featureNames),
		TotalSamples:       t.NumRows(),
		FeatureTypes:       make(map[string]int),
		MissingPercent:     make(map[string]float64),
		TargetDistribution: make(map[string]int),
	}
	for _, fam := range []string{FamilyBase, FamilyLag, FamilyRolling, FamilyRate, FamilyInteraction,
		FamilyStatistics, FamilyTime, FamilyAnomaly, FamilyDomain} {
		s.FeatureTypes[fam] = 0
	}

	for _, name := range featureNames {
		s.FeatureTypes[Family(name)]++

		col, ok := t.Column(name)
		if !ok || t.NumRows() == 0 {
			continue
		}
		missing := 0
		for i := 0; i < col.Len(); i++ {
			if col.IsMissing(i) {
				missing++
			}
		}
		if missing > 0 {
			s.MissingPercent[name] = float64(missing) / float64(t.NumRows()) * 100
		}
	}

	if col, ok := t.Column(target); ok {
		for i := 0; i < col.Len(); i++ {
			if col.IsMissing(i) {
				continue
			}
			s.TargetDistribution[targetLabel(col, i)]++
		}
	}
	return s
}

func targetLabel(col *table.Column, i int) string {
	switch col.Kind() {
	case table.KindBool, table.KindFloat:
		return strconv.FormatFloat(col.Floats()[i], 'g', -1, 64)
	case table.KindText:
		return col.Texts()[i]
	default:
		return col.Times()[i].String()
	}
}

// Families returns the family names present in s, sorted.
func (s Summary) Families() []string {
	var out []string
	for fam, n := range s.FeatureTypes {
		if n > 0 {
			out = append(out, fam)
		}
	}
	sort.Strings(out)
	return out
}

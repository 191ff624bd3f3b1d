package selection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"

	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// Method is a univariate scoring function.
type Method string

const (
	FClassifMethod   Method = "f_classif"
	MutualInfoMethod Method = "mutual_info"
)

var scorers = map[Method]func(x, y []float64) float64{
	FClassifMethod:   FClassif,
	MutualInfoMethod: MutualInfo,
}

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if _, ok := scorers[m]; !ok {
		return "", ferrors.NewConfigurationError("unknown feature selection method %q", s)
	}
	return m, nil
}

// Score is a feature score. Non-finite scores encode as JSON null and
// decode as NaN.
type Score float64

// MarshalJSON implements json.Marshaler
func (s Score) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Score(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Score(f)
	return nil
}

// FeatureScore is the score and rank of one candidate.
type FeatureScore struct {
	Feature  string `json:"feature"`
	Score    Score  `json:"score"`
	Rank     int    `json:"rank"`
	Selected bool   `json:"selected"`
}

// Result is a persisted feature selection.
type Result struct {
	Method Method `json:"method"`
	K      int    `json:"k"`
	// Features are the selected names in candidate order.
	Features []string `json:"features"`
	// Scores hold every candidate, best first.
	Scores          []FeatureScore `json:"scores"`
	TargetColumn    string         `json:"target_column"`
	TimestampColumn string         `json:"timestamp_column,omitempty"`
	RowsDropped     int            `json:"rows_dropped"`
	Fingerprint     string         `json:"fingerprint"`
}

// Apply reduces an inference table to the selected features, keeping the
// target and timestamp columns when present. A fingerprint other than the
// one the selection was made under is a configuration error.
func (r *Result) Apply(t *table.Table, fingerprint string) (*table.Table, error) {
	if fingerprint != r.Fingerprint {
		return nil, ferrors.NewConfigurationError("selection was made under configuration %s, table was built under %s",
			short(r.Fingerprint), short(fingerprint))
	}
	return reduce(t, r.Features, r.TargetColumn, r.TimestampColumn)
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

// Fingerprint identifies the configuration a feature table was built with:
// the schema and the ordered generator stages.
func Fingerprint(cfg schema.Config, stages []string) (string, error) {
	payload, err := json.Marshal(struct {
		Schema schema.Config `json:"schema"`
		Stages []string      `json:"stages"`
	}{cfg, stages})
	if err != nil {
		return "", fmt.Errorf("marshal fingerprint payload: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// Selector scores candidate columns and keeps the best k.
type Selector struct {
	// TimestampColumn is carried into the reduced table when present.
	TimestampColumn string
	logger          *slog.Logger
}

// New creates a selector.
func New(timestampColumn string, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		TimestampColumn: timestampColumn,
		logger:          logger.With("component", "selector"),
	}
}

// Select scores every candidate against target and keeps the top k, all of
// them when k is at least the number of candidates. Rows missing the target
// or any candidate are dropped first.
func (s *Selector) Select(ctx context.Context, t *table.Table, target string, candidates []string, k int, method Method) (*table.Table, *Result, error) {
	score, ok := scorers[method]
	if !ok {
		return nil, nil, ferrors.NewConfigurationError("unknown feature selection method %q", method)
	}
	if k < 0 {
		return nil, nil, ferrors.NewConfigurationError("number of features to select must not be negative, got %d", k)
	}

	y, ok := t.Floats(target)
	if !ok {
		return nil, nil, ferrors.NewDataFormatError(target, nil, "target column is missing or not numeric")
	}
	inputs := make([][]float64, len(candidates))
	for i, name := range candidates {
		x, ok := t.Floats(name)
		if !ok {
			return nil, nil, ferrors.NewDataFormatError(name, nil, "candidate feature is missing or not numeric")
		}
		inputs[i] = x
	}

	keep := make([]bool, t.NumRows())
	dropped := 0
	for i := range keep {
		keep[i] = !math.IsNaN(y[i])
		for _, x := range inputs {
			if !keep[i] {
				break
			}
			keep[i] = !math.IsNaN(x[i])
		}
		if !keep[i] {
			dropped++
		}
	}
	if dropped == len(keep) {
		return nil, nil, ferrors.NewInsufficientDataError("no complete rows to score %d candidate features", len(candidates))
	}
	work := t
	if dropped > 0 {
		work = t.FilterRows(keep)
		y, _ = work.Floats(target)
		for i, name := range candidates {
			inputs[i], _ = work.Floats(name)
		}
	}

	scores := make([]float64, len(candidates))
	for i, x := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		scores[i] = score(x, y)
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := scores[order[a]], scores[order[b]]
		if math.IsNaN(sa) {
			return false
		}
		if math.IsNaN(sb) {
			return true
		}
		return sa > sb
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	selected := make([]bool, len(candidates))
	ranked := make([]FeatureScore, len(candidates))
	for rank, idx := range order {
		selected[idx] = rank < k
		ranked[rank] = FeatureScore{
			Feature:  candidates[idx],
			Score:    Score(scores[idx]),
			Rank:     rank + 1,
			Selected: rank < k,
		}
	}
	features := make([]string, 0, k)
	for i, name := range candidates {
		if selected[i] {
			features = append(features, name)
		}
	}

	result := &Result{
		Method:       method,
		K:            k,
		Features:     features,
		Scores:       ranked,
		TargetColumn: target,
		RowsDropped:  dropped,
	}
	if s.TimestampColumn != "" && work.HasColumn(s.TimestampColumn) {
		result.TimestampColumn = s.TimestampColumn
	}

	out, err := reduce(work, features, target, result.TimestampColumn)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "selected features",
		slog.String("method", string(method)),
		slog.Int("candidates", len(candidates)),
		slog.Int("selected", len(features)),
		slog.Int("rows_dropped", dropped))

	return out, result, nil
}

func reduce(t *table.Table, features []string, target, timestamp string) (*table.Table, error) {
	names := make([]string, 0, len(features)+2)
	if timestamp != "" && t.HasColumn(timestamp) {
		names = append(names, timestamp)
	}
	names = append(names, features...)
	if t.HasColumn(target) {
		names = append(names, target)
	}
	return t.Select(names...)
}

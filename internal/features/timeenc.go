package features

import (
	"context"
	"math"
	"strings"
	"time"

	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// Calendar feature columns.
const (
	FeatureHour           = "hour"
	FeatureDayOfWeek      = "day_of_week"
	FeatureDayOfMonth     = "day_of_month"
	FeatureMonth          = "month"
	FeatureQuarter        = "quarter"
	FeatureHourSin        = "hour_sin"
	FeatureHourCos        = "hour_cos"
	FeatureDaySin         = "day_sin"
	FeatureDayCos         = "day_cos"
	FeatureMonthSin       = "month_sin"
	FeatureMonthCos       = "month_cos"
	FeatureTimeSinceStart = "time_since_start"
)

// TimeFeatureNames lists the calendar columns in generation order.
var TimeFeatureNames = []string{
	FeatureHour, FeatureDayOfWeek, FeatureDayOfMonth, FeatureMonth, FeatureQuarter,
	FeatureHourSin, FeatureHourCos, FeatureDaySin, FeatureDayCos,
	FeatureMonthSin, FeatureMonthCos, FeatureTimeSinceStart,
}

// TimestampLayouts are the accepted text timestamp formats, tried in order.
var TimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s with the first matching layout.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range TimestampLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ParseTimestampColumn converts a time or text column to a time column.
// Numeric columns and unparsable text are data format errors.
func ParseTimestampColumn(c *table.Column) (*table.Column, error) {
	switch c.Kind() {
	case table.KindTime:
		return c, nil
	case table.KindText:
		texts := c.Texts()
		times := make([]time.Time, len(texts))
		for i, s := range texts {
			if s == "" {
				continue
			}
			ts, err := ParseTimestamp(s)
			if err != nil {
				return nil, ferrors.NewDataFormatError(c.Name(), err, "row %d: cannot parse timestamp %q", i, s)
			}
			times[i] = ts
		}
		return table.NewTimeColumn(c.Name(), times), nil
	default:
		return nil, ferrors.NewDataFormatError(c.Name(), nil, "timestamp column has %s values", c.Kind())
	}
}

// TimeEncoding derives calendar features from the timestamp column and
// replaces the column with its parsed form.
type TimeEncoding struct{}

// ID returns the stage identifier.
func (TimeEncoding) ID() string { return StageTimeEncoding }

// Name returns the stage name used in logs and errors.
func (TimeEncoding) Name() string { return "Time encoding" }

// Apply derives calendar and cyclical columns from the timestamp column.
func (TimeEncoding) Apply(ctx context.Context, t *table.Table, env Env) (*table.Table, error) {
	name := env.Schema.TimestampColumn()
	col, ok := t.Column(name)
	if !ok {
		env.logger().DebugContext(ctx, "timestamp column absent, skipping time encoding", "column", name)
		return t, nil
	}

	parsed, err := ParseTimestampColumn(col)
	if err != nil {
		return nil, err
	}
	times := parsed.Times()

	var start time.Time
	for _, ts := range times {
		if !ts.IsZero() && (start.IsZero() || ts.Before(start)) {
			start = ts
		}
	}

	n := len(times)
	out := make(map[string][]float64, len(TimeFeatureNames))
	for _, f := range TimeFeatureNames {
		out[f] = make([]float64, n)
	}
	for i, ts := range times {
		if ts.IsZero() {
			for _, f := range TimeFeatureNames {
				out[f][i] = math.NaN()
			}
			continue
		}
		hour := float64(ts.Hour())
		// Monday is 0.
		dow := float64((int(ts.Weekday()) + 6) % 7)
		month := float64(ts.Month())

		out[FeatureHour][i] = hour
		out[FeatureDayOfWeek][i] = dow
		out[FeatureDayOfMonth][i] = float64(ts.Day())
		out[FeatureMonth][i] = month
		out[FeatureQuarter][i] = float64((int(ts.Month())-1)/3 + 1)
		out[FeatureHourSin][i] = math.Sin(2 * math.Pi * hour / 24)
		out[FeatureHourCos][i] = math.Cos(2 * math.Pi * hour / 24)
		out[FeatureDaySin][i] = math.Sin(2 * math.Pi * dow / 7)
		out[FeatureDayCos][i] = math.Cos(2 * math.Pi * dow / 7)
		out[FeatureMonthSin][i] = math.Sin(2 * math.Pi * month / 12)
		out[FeatureMonthCos][i] = math.Cos(2 * math.Pi * month / 12)
		out[FeatureTimeSinceStart][i] = ts.Sub(start).Seconds()
	}

	result := t.Clone()
	if err := result.ReplaceColumn(parsed); err != nil {
		return nil, err
	}
	cols := make([]*table.Column, 0, len(TimeFeatureNames))
	for _, f := range TimeFeatureNames {
		cols = append(cols, table.NewFloatColumn(f, out[f]))
	}
	return appendColumns(result, cols...)
}

// Package cleaner removes sparse rows and fills the gaps left by feature
// generation so that the final feature matrix holds no missing cells.
package cleaner

import (
	"context"
	"log/slog"
	"math"
	"time"

	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// DefaultMinFilledFraction is the share of columns a row must fill to
// survive the sparse-row pass.
const DefaultMinFilledFraction = 0.7

// Report describes what a cleaning pass did.
type Report struct {
	InputRows           int `json:"input_rows"`
	SparseRowsDropped   int `json:"sparse_rows_dropped"`
	CellsForwardFilled  int `json:"cells_forward_filled"`
	CellsBackwardFilled int `json:"cells_backward_filled"`
	ResidualRowsDropped int `json:"residual_rows_dropped"`
	OutputRows          int `json:"output_rows"`
}

// Cleaner drops sparse rows, then forward fills, backward fills and drops
// whatever is still incomplete.
type Cleaner struct {
	MinFilledFraction float64
	logger            *slog.Logger
}

// New creates a cleaner with the default threshold.
func New(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		MinFilledFraction: DefaultMinFilledFraction,
		logger:            logger.With("component", "cleaner"),
	}
}

// Threshold returns the minimum non-missing cells a row of a table with
// ncols columns must hold.
func (c *Cleaner) Threshold(ncols int) int {
	return int(c.MinFilledFraction * float64(ncols))
}

// Clean returns the cleaned table. A table left without rows is an
// insufficient data error.
func (c *Cleaner) Clean(ctx context.Context, t *table.Table) (*table.Table, Report, error) {
	report := Report{InputRows: t.NumRows()}
	if t.NumRows() == 0 {
		return nil, report, ferrors.NewInsufficientDataError("no rows to clean")
	}

	cols := t.Columns()
	thresh := c.Threshold(len(cols))

	keep := make([]bool, t.NumRows())
	for i := range keep {
		filled := 0
		for _, col := range cols {
			if !col.IsMissing(i) {
				filled++
			}
		}
		keep[i] = filled >= thresh
		if !keep[i] {
			report.SparseRowsDropped++
		}
	}
	out := t
	if report.SparseRowsDropped > 0 {
		out = t.FilterRows(keep)
	}

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	filled := out.Clone()
	for _, col := range out.Columns() {
		ff, bf, replaced := fill(col)
		if ff+bf == 0 {
			continue
		}
		report.CellsForwardFilled += ff
		report.CellsBackwardFilled += bf
		if err := filled.ReplaceColumn(replaced); err != nil {
			return nil, report, err
		}
	}

	keep = make([]bool, filled.NumRows())
	cols = filled.Columns()
	for i := range keep {
		keep[i] = true
		for _, col := range cols {
			if col.IsMissing(i) {
				keep[i] = false
				report.ResidualRowsDropped++
				break
			}
		}
	}
	if report.ResidualRowsDropped > 0 {
		filled = filled.FilterRows(keep)
	}
	report.OutputRows = filled.NumRows()

	c.logger.InfoContext(ctx, "cleaned feature table",
		slog.Int("input_rows", report.InputRows),
		slog.Int("sparse_rows_dropped", report.SparseRowsDropped),
		slog.Int("cells_forward_filled", report.CellsForwardFilled),
		slog.Int("cells_backward_filled", report.CellsBackwardFilled),
		slog.Int("residual_rows_dropped", report.ResidualRowsDropped),
		slog.Int("output_rows", report.OutputRows))

	if report.OutputRows == 0 {
		return nil, report, ferrors.NewInsufficientDataError("no rows left after cleaning %d input rows", report.InputRows).
			WithContext("report", report)
	}
	return filled, report, nil
}

// fill forward fills then backward fills col and reports the cells each
// pass filled.
func fill(col *table.Column) (forward, backward int, out *table.Column) {
	n := col.Len()
	switch col.Kind() {
	case table.KindTime:
		v := append([]time.Time(nil), col.Times()...)
		forward, backward = fillSlice(n, func(i int) bool { return v[i].IsZero() }, func(dst, src int) { v[dst] = v[src] })
		return forward, backward, table.NewTimeColumn(col.Name(), v)
	case table.KindText:
		v := append([]string(nil), col.Texts()...)
		forward, backward = fillSlice(n, func(i int) bool { return v[i] == "" }, func(dst, src int) { v[dst] = v[src] })
		return forward, backward, table.NewTextColumn(col.Name(), v)
	default:
		v := append([]float64(nil), col.Floats()...)
		forward, backward = fillSlice(n, func(i int) bool { return math.IsNaN(v[i]) }, func(dst, src int) { v[dst] = v[src] })
		if col.Kind() == table.KindBool {
			return forward, backward, table.NewBoolColumn(col.Name(), v)
		}
		return forward, backward, table.NewFloatColumn(col.Name(), v)
	}
}

func fillSlice(n int, missing func(int) bool, set func(dst, src int)) (forward, backward int) {
	last := -1
	for i := 0; i < n; i++ {
		if !missing(i) {
			last = i
			continue
		}
		if last >= 0 {
			set(i, last)
			forward++
		}
	}
	next := -1
	for i := n - 1; i >= 0; i-- {
		if !missing(i) {
			next = i
			continue
		}
		if next >= 0 {
			set(i, next)
			backward++
		}
	}
	return forward, backward
}

package exporter

import (
	"math"
	"strconv"
	"time"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// formatFloat formats with the shortest representation that round-trips.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatBool formats a 0/1 flag.
func formatBool(f float64) string {
	if f != 0 {
		return "1"
	}
	return "0"
}

// formatCell renders row i of c. Missing values are empty strings.
func formatCell(c *table.Column, i int) string {
	if c.IsMissing(i) {
		return ""
	}
	switch c.Kind() {
	case table.KindBool:
		return formatBool(c.Floats()[i])
	case table.KindTime:
		return c.Times()[i].UTC().Format(time.RFC3339Nano)
	case table.KindText:
		return c.Texts()[i]
	default:
		return formatFloat(c.Floats()[i])
	}
}

// cellValue returns row i of c as a spreadsheet value; nil leaves the cell blank.
func cellValue(c *table.Column, i int) interface{} {
	if c.IsMissing(i) {
		return nil
	}
	switch c.Kind() {
	case table.KindBool:
		if c.Floats()[i] != 0 {
			return 1
		}
		return 0
	case table.KindTime:
		return c.Times()[i].UTC().Format(time.RFC3339Nano)
	case table.KindText:
		return c.Texts()[i]
	default:
		return spreadsheetFloat(c.Floats()[i])
	}
}

// spreadsheetFloat keeps finite values numeric and writes the rest as text.
func spreadsheetFloat(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return formatFloat(f)
	}
	return f
}

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/features"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/schema"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// LoadOptions describes how CSV columns are typed.
type LoadOptions struct {
	// TimestampColumn is parsed as time when present.
	TimestampColumn string
	// BooleanColumns accept true/false, yes/no and 1/0.
	BooleanColumns []string
	// MaxRows rejects larger inputs when positive.
	MaxRows int
}

// OptionsFor types the timestamp and boolean columns declared by s, under
// both their raw and mapped names.
func OptionsFor(s *schema.Schema, maxRows int) LoadOptions {
	opts := LoadOptions{TimestampColumn: s.TimestampColumn(), MaxRows: maxRows}
	for _, b := range s.BooleanColumns() {
		opts.BooleanColumns = append(opts.BooleanColumns, b)
		if mapped := s.Resolve(b); mapped != b {
			opts.BooleanColumns = append(opts.BooleanColumns, mapped)
		}
	}
	return opts
}

// LoadCSVFile loads a CSV file with a header row.
func LoadCSVFile(path string, opts LoadOptions) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return LoadCSV(f, opts)
}

// LoadCSV reads a header row followed by records. Empty cells are missing.
// Columns whose non-empty cells all parse as numbers become float columns,
// others stay text.
func LoadCSV(r io.Reader, opts LoadOptions) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ferrors.NewInsufficientDataError("CSV input is empty")
	}
	if err != nil {
		return nil, ferrors.NewDataFormatError("", err, "read CSV header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cells := make([][]string, len(header))
	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ferrors.NewDataFormatError("", err, "read CSV record %d", rows+1)
		}
		for i := range header {
			cells[i] = append(cells[i], strings.TrimSpace(record[i]))
		}
		rows++
		if opts.MaxRows > 0 && rows > opts.MaxRows {
			return nil, ferrors.NewDataFormatError("", nil, "CSV input exceeds %d rows", opts.MaxRows)
		}
	}

	return buildTable(header, cells, opts)
}

// buildTable types each column of cells according to opts.
func buildTable(header []string, cells [][]string, opts LoadOptions) (*table.Table, error) {
	booleans := make(map[string]bool, len(opts.BooleanColumns))
	for _, b := range opts.BooleanColumns {
		booleans[b] = true
	}

	cols := make([]*table.Column, 0, len(header))
	for i, name := range header {
		var (
			col *table.Column
			err error
		)
		switch {
		case name == opts.TimestampColumn && name != "":
			col, err = timeColumn(name, cells[i])
		case booleans[name]:
			col, err = boolColumn(name, cells[i])
		default:
			col = numericOrText(name, cells[i])
		}
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return table.New(cols...)
}

func timeColumn(name string, values []string) (*table.Column, error) {
	times := make([]time.Time, len(values))
	for i, v := range values {
		if v == "" {
			continue
		}
		ts, err := features.ParseTimestamp(v)
		if err != nil {
			return nil, ferrors.NewDataFormatError(name, err, "row %d: cannot parse timestamp %q", i+1, v)
		}
		times[i] = ts
	}
	return table.NewTimeColumn(name, times), nil
}

// ParseBool parses the boolean spellings accepted in CSV input.
func ParseBool(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "":
		return math.NaN(), nil
	case "1", "true", "t", "yes", "y":
		return 1, nil
	case "0", "false", "f", "no", "n":
		return 0, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f == 0 {
			return 0, nil
		}
		return 1, nil
	}
	return 0, fmt.Errorf("invalid boolean %q", s)
}

func boolColumn(name string, values []string) (*table.Column, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		b, err := ParseBool(v)
		if err != nil {
			return nil, ferrors.NewDataFormatError(name, err, "row %d", i+1)
		}
		out[i] = b
	}
	return table.NewBoolColumn(name, out), nil
}

func numericOrText(name string, values []string) *table.Column {
	out := make([]float64, len(values))
	for i, v := range values {
		switch strings.ToLower(v) {
		case "", "nan", "null", "na":
			out[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return table.NewTextColumn(name, values)
		}
		out[i] = f
	}
	return table.NewFloatColumn(name, out)
}

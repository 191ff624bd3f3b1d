package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	ferrors "github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/errors"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// FromRecords builds a table from decoded JSON rows. Columns are typed the
// same way LoadCSV types them. The timestamp column comes first, the rest
// follow in name order. Keys absent from a row are missing cells.
func FromRecords(records []map[string]any, opts LoadOptions) (*table.Table, error) {
	if len(records) == 0 {
		return nil, ferrors.NewInsufficientDataError("no records supplied")
	}
	if opts.MaxRows > 0 && len(records) > opts.MaxRows {
		return nil, ferrors.NewDataFormatError("", nil, "input exceeds %d rows", opts.MaxRows)
	}

	seen := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			seen[k] = true
		}
	}
	header := make([]string, 0, len(seen))
	for k := range seen {
		if k != opts.TimestampColumn {
			header = append(header, k)
		}
	}
	sort.Strings(header)
	if opts.TimestampColumn != "" && seen[opts.TimestampColumn] {
		header = append([]string{opts.TimestampColumn}, header...)
	}

	cells := make([][]string, len(header))
	for c, name := range header {
		cells[c] = make([]string, len(records))
		for i, rec := range records {
			s, err := cellString(rec[name])
			if err != nil {
				return nil, ferrors.NewDataFormatError(name, err, "row %d", i+1)
			}
			cells[c][i] = s
		}
	}
	return buildTable(header, cells, opts)
}

func cellString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		if math.IsNaN(x) {
			return "", nil
		}
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case json.Number:
		return x.String(), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}

package exporter

import (
	"strconv"
	"time"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/config"
)

// RunRecord is one line of an organization's run ledger.
type RunRecord struct {
	Time         time.Time
	Organization string
	Fingerprint  string
	Source       string
	RowsIn       int
	RowsOut      int
	Features     int
	// Method is empty when selection did not run.
	Method string
}

// RunHeaders are the ledger columns.
var RunHeaders = []string{
	"time", "organization", "fingerprint", "source",
	"rows_in", "rows_out", "features", "selection",
}

func (r RunRecord) fields() []string {
	return []string{
		r.Time.UTC().Format(time.RFC3339),
		r.Organization,
		r.Fingerprint,
		r.Source,
		strconv.Itoa(r.RowsIn),
		strconv.Itoa(r.RowsOut),
		strconv.Itoa(r.Features),
		r.Method,
	}
}

// AppendRun adds r to the ledger at filePath. A new ledger starts with a BOM
// and the header row.
func (w *CSVWriter) AppendRun(filePath string, r RunRecord) error {
	if !config.FileExists(w.resolvePath(filePath)) {
		return w.WriteCSV(filePath, WriteOptions{
			Headers:   RunHeaders,
			Records:   [][]string{r.fields()},
			BOMPrefix: true,
		})
	}
	return w.AppendToCSV(filePath, [][]string{r.fields()})
}

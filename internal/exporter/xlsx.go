package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/pipeline"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/selection"
	"github.com/CHIRANJEEVICHETAN/Eagle-Notifier/internal/table"
)

// Sheet names used in exported workbooks.
const (
	FeaturesSheet  = "features"
	SummarySheet   = "summary"
	SelectionSheet = "selection"
)

// WorkbookOptions adds optional sheets to an exported workbook.
type WorkbookOptions struct {
	Summary   *pipeline.Summary
	Selection *selection.Result
}

// WriteWorkbook writes t to an XLSX file at path. The feature sheet is
// streamed; summary and selection sheets are added when provided.
func WriteWorkbook(path string, t *table.Table, opts WorkbookOptions) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", FeaturesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeFeatureSheet(f, t); err != nil {
		return err
	}
	if opts.Summary != nil {
		if err := writeSummarySheet(f, opts.Summary); err != nil {
			return err
		}
	}
	if opts.Selection != nil {
		if err := writeSelectionSheet(f, opts.Selection); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeFeatureSheet(f *excelize.File, t *table.Table) error {
	sw, err := f.NewStreamWriter(FeaturesSheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	names := t.ColumnNames()
	header := make([]interface{}, len(names))
	for i, n := range names {
		header[i] = n
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	cols := t.Columns()
	for i := 0; i < t.NumRows(); i++ {
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			row[j] = cellValue(c, i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return sw.Flush()
}

// sheetWriter appends rows to a regular sheet.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) add(values ...interface{}) {
	if w.err != nil {
		return
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &values)
}

func newSheet(f *excelize.File, name string) (*sheetWriter, error) {
	if _, err := f.NewSheet(name); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return &sheetWriter{f: f, sheet: name}, nil
}

func writeSummarySheet(f *excelize.File, s *pipeline.Summary) error {
	w, err := newSheet(f, SummarySheet)
	if err != nil {
		return err
	}

	w.add("metric", "value")
	w.add("total_features", s.TotalFeatures)
	w.add("total_samples", s.TotalSamples)

	w.add()
	w.add("family", "count")
	for _, fam := range sortedKeys(s.FeatureTypes) {
		w.add(fam, s.FeatureTypes[fam])
	}

	w.add()
	w.add("target", "count")
	for _, label := range sortedKeys(s.TargetDistribution) {
		w.add(label, s.TargetDistribution[label])
	}

	if len(s.MissingPercent) > 0 {
		w.add()
		w.add("feature", "missing_percent")
		names := make([]string, 0, len(s.MissingPercent))
		for n := range s.MissingPercent {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			w.add(n, s.MissingPercent[n])
		}
	}
	return w.err
}

func writeSelectionSheet(f *excelize.File, r *selection.Result) error {
	w, err := newSheet(f, SelectionSheet)
	if err != nil {
		return err
	}
	w.add("method", string(r.Method))
	w.add("k", r.K)
	w.add("target", r.TargetColumn)
	w.add()
	w.add("feature", "score", "rank", "selected")
	for _, s := range r.Scores {
		w.add(s.Feature, spreadsheetFloat(float64(s.Score)), s.Rank, s.Selected)
	}
	return w.err
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

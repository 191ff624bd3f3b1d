// Package exporter writes feature tables to disk.
//
// CSVWriter handles CSV output with an optional UTF-8 BOM for Excel, either
// all at once or streamed row by row. WriteWorkbook produces an XLSX file
// with the feature matrix plus summary and selection sheets.
//
// Example usage:
//
//	w := exporter.NewCSVWriter(paths, logger)
//	if err := w.WriteTable(config.FeaturesCSVFile, out.Table); err != nil {
//		return err
//	}
//	err := exporter.WriteWorkbook(paths.OutputPath(config.FeaturesXLSXFile), out.Table, exporter.WorkbookOptions{
//		Summary:   &summary,
//		Selection: out.Selection,
//	})
package exporter

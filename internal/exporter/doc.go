// Package exporter writes correlation analysis reports to files.
//
// This package contains two main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility.
//
// Exporter: Renders pair, matrix, and combined correlation reports as
// ticker-labelled grid CSVs, top-pair ranking CSVs, indented JSON, and
// plain-text summaries. Undefined statistics appear as NA in text output
// and null in JSON.
//
// Example usage:
//
//	exp := exporter.NewExporter("reports", metrics, logger)
//
//	files, err := exp.ExportMatrix(ctx, report)
//	if err != nil {
//		return err
//	}
//	for _, f := range files {
//		fmt.Println("wrote", f)
//	}
package exporter

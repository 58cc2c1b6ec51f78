package dataservice

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/xuri/excelize/v2"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Rows are generic export records. Column order is the first-seen order of
// keys across rows, with each row's keys visited alphabetically so output is
// deterministic.
type Rows []map[string]any

// RowsOf converts a slice of records into export rows via their JSON form.
func RowsOf(v any) (Rows, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal records: %w", err)
	}
	var rows Rows
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("records are not exportable as rows: %w", err)
	}
	return rows, nil
}

// Export writes rows to path in the given format.
func Export(format string, rows Rows, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()
	return ExportTo(format, rows, f)
}

// ExportTo writes rows to w in the given format.
func ExportTo(format string, rows Rows, w io.Writer) error {
	switch format {
	case FormatCSV:
		return writeCSV(rows, w)
	case FormatJSON:
		return writeJSON(rows, w)
	case FormatXLSX:
		return writeXLSX(rows, w)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// header returns the union of keys across rows in first-seen order.
func header(rows Rows) []string {
	var columns []string
	seen := make(map[string]bool)
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	return columns
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; keep integers unpadded.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func writeCSV(rows Rows, w io.Writer) error {
	if len(rows) == 0 {
		return nil
	}
	columns := header(rows)

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = cellString(row[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(rows Rows, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeXLSX(rows Rows, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	columns := header(rows)
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for i, col := range columns {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellString(row[col])); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

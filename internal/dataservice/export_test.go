package dataservice

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/bonkai/bonkai/internal/models"
)

func sampleRows() Rows {
	return Rows{
		{"a": 1, "b": "x,y"},
		{"a": 2, "c": 3},
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportTo(FormatCSV, sampleRows(), &buf); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %v", records)
	}
	if strings.Join(records[0], "|") != "a|b|c" {
		t.Errorf("header = %v", records[0])
	}
	// The comma-bearing field survives quoting.
	if records[1][1] != "x,y" {
		t.Errorf("row 1 = %v", records[1])
	}
	// Missing keys produce empty cells.
	if records[1][2] != "" || records[2][1] != "" {
		t.Errorf("rows = %v", records[1:])
	}
	if records[2][0] != "2" || records[2][2] != "3" {
		t.Errorf("row 2 = %v", records[2])
	}
}

func TestExportCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportTo(FormatCSV, nil, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want empty", buf.String())
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportTo(FormatJSON, sampleRows(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("output is not indented")
	}
	var back Rows
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 || back[0]["b"] != "x,y" {
		t.Errorf("round-trip = %v", back)
	}
}

func TestExportXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportTo(FormatXLSX, sampleRows(), &buf); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a valid workbook: %v", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)

	header, err := f.GetCellValue(sheet, "A1")
	if err != nil {
		t.Fatal(err)
	}
	if header != "a" {
		t.Errorf("A1 = %q", header)
	}
	cell, err := f.GetCellValue(sheet, "B2")
	if err != nil {
		t.Fatal(err)
	}
	if cell != "x,y" {
		t.Errorf("B2 = %q", cell)
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	if err := ExportTo("yaml", sampleRows(), &bytes.Buffer{}); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestRowsOf(t *testing.T) {
	alerts := []*models.Alert{
		{ID: "a1", Condition: models.ConditionAbove, Threshold: 0.00003, IsActive: true},
	}
	rows, err := RowsOf(alerts)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["id"] != "a1" || rows[0]["condition"] != "above" {
		t.Errorf("rows = %v", rows)
	}

	if _, err := RowsOf(42); err == nil {
		t.Error("expected an error for a non-slice value")
	}
}

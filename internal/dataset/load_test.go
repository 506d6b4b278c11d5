package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

const header = "date,co,no,no2,o3,so2,pm2_5,pm10,nh3"

func writeCSV(t *testing.T, name string, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadCSV(t *testing.T) {
	p := writeCSV(t, "delhi_aqi.csv",
		header,
		"2023-01-01 00:00:00,1655.58,1.66,39.41,5.9,17.88,169.29,194.64,5.83",
		"2023-01-01 01:00:00,1869.2,6.82,42.16,1.99,22.17,182.84,211.08,7.66",
	)
	f, err := Load(p, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Rows() != 2 {
		t.Fatalf("expected 2 rows, got %d", f.Rows())
	}
	if f.Source != "delhi_aqi.csv" {
		t.Fatalf("unexpected source %q", f.Source)
	}
	pm := f.DF.Col("pm2_5").Float()
	if pm[0] != 169.29 || pm[1] != 182.84 {
		t.Fatalf("unexpected pm2_5 values: %v", pm)
	}
	if got := f.DF.Col("date").Records()[1]; got != "2023-01-01 01:00:00" {
		t.Fatalf("timestamp column should stay text, got %q", got)
	}
}

func TestLoadBlankCellsBecomeNaN(t *testing.T) {
	p := writeCSV(t, "gaps.csv",
		header,
		"2023-01-01 00:00:00,1,2,3,4,5,,7,8",
	)
	f, err := Load(p, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v := f.DF.Col("pm2_5").Float()[0]; !math.IsNaN(v) {
		t.Fatalf("expected NaN for blank cell, got %v", v)
	}
}

func TestLoadTSVAndCustomTimestampColumn(t *testing.T) {
	p := filepath.Join(t.TempDir(), "readings.tsv")
	content := "timestamp\tco\tno\tno2\to3\tso2\tpm2_5\tpm10\tnh3\n" +
		"2023-02-01T08:00:00\t1\t2\t3\t4\t5\t6\t7\t8\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	opt := DefaultLoadOptions()
	opt.TimestampColumn = "timestamp"
	f, err := Load(p, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.TimestampColumn != "timestamp" || f.Rows() != 1 {
		t.Fatalf("unexpected frame: column=%q rows=%d", f.TimestampColumn, f.Rows())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), DefaultLoadOptions())
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestLoadMissingColumns(t *testing.T) {
	p := writeCSV(t, "partial.csv",
		"date,co,no,pm2_5",
		"2023-01-01 00:00:00,1,2,3",
	)
	_, err := Load(p, DefaultLoadOptions())
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	for _, col := range []string{"no2", "o3", "so2", "pm10", "nh3"} {
		if !strings.Contains(err.Error(), col) {
			t.Fatalf("error should name missing column %s: %v", col, err)
		}
	}
}

func TestLoadXLSX(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	rows := [][]any{
		{"date", "co", "no", "no2", "o3", "so2", "pm2_5", "pm10", "nh3"},
		{"2023-03-05 14:00:00", 1.5, 2, 3, 4, 5, 60.5, 70, 8},
		{"2023-03-05 15:00:00", 1.5, 2, 3, 4, 5, 61.5, 71, 8},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	p := filepath.Join(t.TempDir(), "delhi.xlsx")
	if err := wb.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}

	f, err := Load(p, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Rows() != 2 {
		t.Fatalf("expected 2 rows, got %d", f.Rows())
	}
	if got := f.DF.Col("pm2_5").Float(); got[0] != 60.5 || got[1] != 61.5 {
		t.Fatalf("unexpected pm2_5 values: %v", got)
	}
}

func TestLoadCSVWithByteOrderMark(t *testing.T) {
	p := writeCSV(t, "bom.csv",
		"\ufeff"+header,
		"2023-01-01 00:00:00,1,2,3,4,5,6,7,8",
	)
	f, err := Load(p, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := f.DF.Col("date").Records()[0]; got != "2023-01-01 00:00:00" {
		t.Fatalf("unexpected date %q", got)
	}
}

func TestLoadXLSXDateCells(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	rows := [][]any{
		{"date", "co", "no", "no2", "o3", "so2", "pm2_5", "pm10", "nh3"},
		{time.Date(2020, 11, 25, 1, 0, 0, 0, time.UTC), 1.5, 2, 3, 4, 5, 60.5, 70, 8},
		{time.Date(2020, 11, 25, 2, 0, 0, 0, time.UTC), 1.5, 2, 3, 4, 5, 61.5, 71, 8},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	p := filepath.Join(t.TempDir(), "dates.xlsx")
	if err := wb.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}

	f, err := Load(p, DefaultLoadOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tbl, err := Clean(f)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if tbl.Len() != 2 || tbl.Dropped != 0 {
		t.Fatalf("expected 2 rows and 0 dropped, got %d and %d", tbl.Len(), tbl.Dropped)
	}
	want := time.Date(2020, 11, 25, 2, 0, 0, 0, time.UTC)
	if got := tbl.Rows[1].Timestamp; !got.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", got, want)
	}
	if tbl.Rows[1].Hour != 2 {
		t.Fatalf("hour = %d", tbl.Rows[1].Hour)
	}
}

func TestExcelTimestamp(t *testing.T) {
	cases := map[string]string{
		"44160.041666666664":  "2020-11-25T01:00:00",
		"2023-03-05 14:00:00": "2023-03-05 14:00:00",
		"20230305":            "20230305",
		"":                    "",
	}
	for in, want := range cases {
		if got := excelTimestamp(in); got != want {
			t.Fatalf("excelTimestamp(%q) = %q, want %q", in, got, want)
		}
	}
}

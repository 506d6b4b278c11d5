package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// DefaultTimestampColumn is the header of the timestamp column when none is configured.
const DefaultTimestampColumn = "date"

// LoadOptions controls how the input table is read.
type LoadOptions struct {
	// TimestampColumn names the column holding observation times.
	TimestampColumn string
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Sheet selects the XLSX worksheet; empty means the first sheet.
	Sheet string
}

// DefaultLoadOptions returns options matching the standard dataset layout.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{TimestampColumn: DefaultTimestampColumn}
}

// Frame is the raw table as read from disk, before cleaning.
type Frame struct {
	Source          string
	TimestampColumn string
	DF              dataframe.DataFrame
}

// Rows returns the number of data rows in the frame.
func (f *Frame) Rows() int { return f.DF.Nrow() }

// Load reads a CSV, TSV or XLSX file into a Frame. The timestamp column is kept
// as text and pollutant columns are typed as floats; cells that are empty or
// not numeric become NaN.
func Load(path string, opt LoadOptions) (*Frame, error) {
	if opt.TimestampColumn == "" {
		opt.TimestampColumn = DefaultTimestampColumn
	}
	var (
		df  dataframe.DataFrame
		err error
	)
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		df, err = loadXLSX(path, opt)
	} else {
		df, err = loadDelimited(path, opt)
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if err := checkColumns(df, opt.TimestampColumn); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return &Frame{Source: filepath.Base(path), TimestampColumn: opt.TimestampColumn, DF: df}, nil
}

func loadDelimited(path string, opt LoadOptions) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := bufio.NewReader(f)
	if b, err := r.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = r.Discard(len(utf8BOM))
	}
	df := dataframe.ReadCSV(r, append(frameOptions(opt), dataframe.WithDelimiter(delim))...)
	if df.Err != nil {
		return df, fmt.Errorf("read csv: %w", df.Err)
	}
	return df, nil
}

func loadXLSX(path string, opt LoadOptions) (dataframe.DataFrame, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = wb.Close() }()
	sheet := opt.Sheet
	if sheet == "" {
		sheet = wb.GetSheetName(0)
	}
	// raw values keep date cells as serials instead of their display format
	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("sheet %q is empty", sheet)
	}
	// excelize trims trailing empty cells; square the records off against the header.
	width := len(rows[0])
	for i, row := range rows {
		switch {
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		case len(row) > width:
			rows[i] = row[:width]
		}
	}
	if col := indexOf(rows[0], opt.TimestampColumn); col >= 0 {
		for _, row := range rows[1:] {
			row[col] = excelTimestamp(row[col])
		}
	}
	df := dataframe.LoadRecords(rows, frameOptions(opt)...)
	if df.Err != nil {
		return df, fmt.Errorf("read sheet %q: %w", sheet, df.Err)
	}
	return df, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// maxExcelSerial is 9999-12-31, the last date Excel represents.
const maxExcelSerial = 2958465

// excelTimestamp rewrites a raw date serial as a zone-less ISO timestamp.
// Text cells and compact dates such as 20230305 pass through unchanged.
func excelTimestamp(raw string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v <= 0 || v > maxExcelSerial {
		return raw
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return raw
	}
	return t.Round(time.Second).Format("2006-01-02T15:04:05")
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func frameOptions(opt LoadOptions) []dataframe.LoadOption {
	types := map[string]series.Type{opt.TimestampColumn: series.String}
	for _, p := range Pollutants {
		types[string(p)] = series.Float
	}
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(types),
	}
}

func checkColumns(df dataframe.DataFrame, tsCol string) error {
	have := make(map[string]bool, df.Ncol())
	for _, n := range df.Names() {
		have[n] = true
	}
	var missing []string
	if !have[tsCol] {
		missing = append(missing, tsCol)
	}
	for _, p := range Pollutants {
		if !have[string(p)] {
			missing = append(missing, string(p))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

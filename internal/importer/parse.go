// Package importer turns uploaded spreadsheets of unknown layout into
// translocation records.
//
// The pipeline is linear:
//  1. Parse: read a .csv, .xlsx or .xls file into a Table of header labels and
//     string cells
//  2. Resolve: map each semantic field to a header by ordered substring
//     patterns, failing early when a required field has no column
//  3. Normalize: coerce every data row into a record or a RowError
//  4. Summarize: count successes, cap the error list and group by species
//
// Committing the records is left to the caller.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for file names other than .csv, .xlsx or .xls.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrEmptyFile is returned when the file has no header row.
	ErrEmptyFile = errors.New("file contains no header row")

	// ErrFileTooLarge is returned by ReadAll when the input exceeds its limit.
	ErrFileTooLarge = errors.New("file too large")
)

// Format identifies a supported input file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .csv, .xlsx or .xls)", ErrUnsupportedFormat, fileName)
	}
}

// Table is an untyped grid read from a file. Rows may be ragged.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the value at row r, column c, or "" when the row is short or
// the column is unresolved (c < 0).
func (t *Table) Cell(r, c int) string {
	if c < 0 || r < 0 || r >= len(t.Rows) || c >= len(t.Rows[r]) {
		return ""
	}
	return t.Rows[r][c]
}

// Parse reads a whole file into a Table, choosing the reader by extension.
// The first non-skipped row is the header row.
func Parse(fileName string, data []byte) (*Table, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	var records [][]string
	switch format {
	case FormatCSV:
		records, err = parseCSV(data)
	case FormatXLSX:
		records, err = parseXLSX(data)
	case FormatXLS:
		records, err = parseXLS(data)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", format, err)
	}

	return newTable(records)
}

func newTable(records [][]string) (*Table, error) {
	if len(records) == 0 || isEmptyRow(records[0]) {
		return nil, ErrEmptyFile
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = cleanHeader(h)
	}

	return &Table{Headers: headers, Rows: records[1:]}, nil
}

func parseCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(sanitizeUTF8(data), []byte("\ufeff"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// parseXLSX reads the first worksheet of an Office Open XML workbook.
func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

// parseXLS reads the first worksheet of a legacy BIFF workbook. The xls
// reader panics on some malformed files, so panics become errors here.
func parseXLS(data []byte) (records [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("malformed workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, nil
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		// LastCol is one past the last used column.
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		records = append(records, cells)
	}

	// BIFF sheets often report trailing blank rows.
	for len(records) > 0 && isEmptyRow(records[len(records)-1]) {
		records = records[:len(records)-1]
	}
	return records, nil
}

// xlsRow returns nil for rows the sheet never stored.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
		} else {
			buf.WriteRune(r)
		}
		data = data[size:]
	}

	return buf.Bytes()
}

// cleanHeader trims whitespace, a leading BOM and an Excel ="..." wrapper.
func cleanHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ReadAll is a convenience for callers holding a reader instead of bytes.
func ReadAll(fileName string, r io.Reader, limit int64) (*Table, error) {
	if _, err := DetectFormat(fileName); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrFileTooLarge, limit)
	}
	return Parse(fileName, data)
}

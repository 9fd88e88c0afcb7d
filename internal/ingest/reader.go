package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Format is a spreadsheet file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from a file name's extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm", ".xltx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ReadFile reads every row of the named file from r.
func ReadFile(name string, r io.Reader) ([][]Cell, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return ReadXLSX(r)
	}
	return ReadCSV(r)
}

// ReadCSV reads a CSV stream. Quoting is lenient and rows may be ragged.
func ReadCSV(r io.Reader) ([][]Cell, error) {
	cr := csv.NewReader(wrapText(r))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]Cell
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, stringCells(record))
	}
	return rows, nil
}

// ReadXLSX reads the first worksheet of a workbook. Numbers come back
// unformatted so ids and phone numbers survive intact.
func ReadXLSX(r io.Reader) ([][]Cell, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrTooFewRows
	}

	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	rows := make([][]Cell, len(raw))
	for i, record := range raw {
		rows[i] = stringCells(record)
	}
	return rows, nil
}

func stringCells(record []string) []Cell {
	cells := make([]Cell, len(record))
	for i, v := range record {
		cells[i] = StringCell(v)
	}
	return cells
}

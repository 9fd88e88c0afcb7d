// Package ingest implements the spreadsheet import pipeline: reading CSV and
// XLSX files into cells, mapping header columns onto participant fields,
// normalizing each row and deduplicating the result.
package ingest

import (
	"errors"

	"github.com/JonMunkholm/checkin/internal/participant"
)

var (
	// ErrTooFewRows means the sheet lacks a header row plus one data row.
	ErrTooFewRows = errors.New("spreadsheet must contain a header row and at least one data row")

	// ErrNoRecognizedColumns means no header matched any known column.
	ErrNoRecognizedColumns = errors.New("no matching columns found in the spreadsheet header")
)

// Result is a parsed import, ready for preview. Records are not deduplicated.
type Result struct {
	Header      []string                  `json:"header"`
	Mapping     Mapping                   `json:"mapping"`
	Unmapped    []string                  `json:"unmapped,omitempty"`
	Records     []participant.Participant `json:"records"`
	SkippedRows int                       `json:"skippedRows"`
}

// Deduped returns the records with duplicates removed.
func (r *Result) Deduped() []participant.Participant {
	return Dedup(r.Records)
}

// Parse runs the column mapper and row normalizer over rows. The first row is
// the header. Blank data rows are skipped. Errors are returned only for
// input that cannot be imported at all.
func Parse(rows [][]Cell) (*Result, error) {
	if len(rows) < 2 {
		return nil, ErrTooFewRows
	}

	header := HeaderStrings(rows[0])
	mapping := MapColumns(header)
	if len(mapping) == 0 {
		return nil, ErrNoRecognizedColumns
	}

	res := &Result{
		Header:   header,
		Mapping:  mapping,
		Unmapped: mapping.Unmapped(header),
		Records:  make([]participant.Participant, 0, len(rows)-1),
	}
	for _, row := range rows[1:] {
		if IsEmptyRow(row) {
			res.SkippedRows++
			continue
		}
		res.Records = append(res.Records, NormalizeRow(row, header, mapping))
	}

	if len(res.Records) == 0 {
		return nil, ErrTooFewRows
	}
	return res, nil
}

// HeaderStrings renders a header row as strings.
func HeaderStrings(row []Cell) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = c.String()
	}
	return out
}

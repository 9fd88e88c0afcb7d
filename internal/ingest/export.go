package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/checkin/internal/participant"
)

const templateSheet = "Participants"

// WriteCSV writes the canonical header followed by one row per participant.
// With no participants the output is the blank import template.
func WriteCSV(w io.Writer, list []participant.Participant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TemplateHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range list {
		row := Row(p)
		record := make([]string, len(row))
		for i, c := range row {
			record[i] = c.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same content as WriteCSV as a workbook.
func WriteXLSX(w io.Writer, list []participant.Participant) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := TemplateHeader()
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(templateSheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, p := range list {
		row := Row(p)
		values := make([]any, len(row))
		for j, c := range row {
			switch c.Kind {
			case CellNumber:
				values[j] = c.Num
			case CellEmpty:
				values[j] = nil
			default:
				values[j] = c.String()
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(templateSheet, axis, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

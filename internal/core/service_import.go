package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/checkin/internal/ingest"
	"github.com/JonMunkholm/checkin/internal/logging"
	"github.com/JonMunkholm/checkin/internal/participant"
)

// Preview is a parsed upload awaiting confirmation.
type Preview struct {
	ImportID string `json:"importId"`
	Source   string `json:"source"`
	*ingest.Result
}

// Rows returns the number of normalized records.
func (p *Preview) Rows() int {
	return len(p.Records)
}

// ImportResult reports a saved import.
type ImportResult struct {
	ImportID   string                    `json:"importId" yaml:"importId"`
	Source     string                    `json:"source" yaml:"source"`
	Rows       int                       `json:"rows" yaml:"rows"`
	Duplicates int                       `json:"duplicates" yaml:"duplicates"`
	Created    int                       `json:"created" yaml:"created"`
	Skipped    int                       `json:"skipped" yaml:"skipped"`
	Records    []participant.Participant `json:"-" yaml:"-"`
	DurationMs int64                     `json:"durationMs" yaml:"durationMs"`
}

// PreviewImport parses an uploaded spreadsheet without storing any
// participant. name selects the format by extension; reads beyond
// MaxFileSize fail with ingest.ErrFileTooLarge. The preview is kept for
// SavePending until it expires.
func (s *Service) PreviewImport(ctx context.Context, name string, r io.Reader) (*Preview, error) {
	var preview *Preview
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
		defer cancel()

		rows, err := readUpload(ctx, name, ingest.NewLimitedReader(r, s.maxFileSize))
		if err != nil {
			return err
		}
		res, err := ingest.Parse(rows)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		preview = &Preview{ImportID: uuid.NewString(), Source: name, Result: res}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.previews.put(preview)

	logging.WithFields(ctx, "import_id", preview.ImportID, "file", name).Info("import previewed",
		"rows", preview.Rows(),
		"skipped_rows", preview.SkippedRows,
		"mapped_columns", len(preview.Mapping),
		"unmapped_columns", len(preview.Unmapped),
	)
	return preview, nil
}

// readUpload decodes the file on a separate goroutine so a stalled body
// cannot outlive the import timeout.
func readUpload(ctx context.Context, name string, r io.Reader) ([][]ingest.Cell, error) {
	type result struct {
		rows [][]ingest.Cell
		err  error
	}
	done := make(chan result, 1)
	go func() {
		rows, err := ingest.ReadFile(name, r)
		done <- result{rows, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("read %s: %w", name, res.err)
		}
		return res.rows, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("read %s: %w", name, ctx.Err())
	}
}

// SaveImport deduplicates a preview and stores it. Records that collide
// with stored participants on the identity triple are counted as skipped.
func (s *Service) SaveImport(ctx context.Context, preview *Preview) (*ImportResult, error) {
	start := time.Now()
	result := &ImportResult{
		ImportID: preview.ImportID,
		Source:   preview.Source,
		Rows:     preview.Rows(),
	}
	if result.ImportID == "" {
		result.ImportID = uuid.NewString()
	}

	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
		defer cancel()

		unique := preview.Deduped()
		result.Duplicates = len(preview.Records) - len(unique)

		bulk, err := s.CreateMany(ctx, unique)
		if err != nil {
			return err
		}
		result.Created = len(bulk.Created)
		result.Skipped = bulk.Skipped
		result.Records = bulk.Created
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.DurationMs = time.Since(start).Milliseconds()

	opLogger(ctx, "import", "import_id", result.ImportID, "source", result.Source).Info("import saved",
		"rows", result.Rows,
		"duplicates", result.Duplicates,
		"created", result.Created,
		"skipped", result.Skipped,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

// SavePending saves a preview created earlier by PreviewImport or
// PreviewSheet. Each preview can be saved once.
func (s *Service) SavePending(ctx context.Context, importID string) (*ImportResult, error) {
	preview, ok := s.previews.take(importID)
	if !ok {
		return nil, ErrPreviewNotFound
	}
	return s.SaveImport(ctx, preview)
}

// Import previews and saves in one call.
func (s *Service) Import(ctx context.Context, name string, r io.Reader) (*ImportResult, error) {
	preview, err := s.PreviewImport(ctx, name, r)
	if err != nil {
		return nil, err
	}
	s.previews.take(preview.ImportID)
	return s.SaveImport(ctx, preview)
}

// PreviewSheet reads the configured Google Sheet and parses it. An empty
// readRange selects the configured default.
func (s *Service) PreviewSheet(ctx context.Context, readRange string) (*Preview, error) {
	if s.sheets == nil {
		return nil, ErrSheetsDisabled
	}
	if readRange == "" {
		readRange = s.sheetRange
	}

	var preview *Preview
	err := s.limiter.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
		defer cancel()

		rows, err := s.sheets.ReadRows(ctx, readRange)
		if err != nil {
			return err
		}
		res, err := ingest.Parse(rows)
		if err != nil {
			return fmt.Errorf("parse sheet %s: %w", readRange, err)
		}
		preview = &Preview{ImportID: uuid.NewString(), Source: "sheet:" + readRange, Result: res}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.previews.put(preview)
	logging.WithFields(ctx, "import_id", preview.ImportID, "range", readRange).Info("sheet previewed", "rows", preview.Rows())
	return preview, nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/checkin/internal/ingest"
	"github.com/JonMunkholm/checkin/internal/participant"
	"github.com/JonMunkholm/checkin/internal/sheets"
)

// defaultMaxFileSize matches the server's upload limit.
const defaultMaxFileSize int64 = 20 << 20

// PreviewSummary describes a parsed spreadsheet.
type PreviewSummary struct {
	Source      string                    `json:"source" yaml:"source"`
	Rows        int                       `json:"rows" yaml:"rows"`
	Duplicates  int                       `json:"duplicates" yaml:"duplicates"`
	SkippedRows int                       `json:"skippedRows" yaml:"skippedRows"`
	Mapping     ingest.Mapping            `json:"mapping" yaml:"mapping"`
	Unmapped    []string                  `json:"unmapped,omitempty" yaml:"unmapped,omitempty"`
	Records     []participant.Participant `json:"records" yaml:"records"`
}

// ImportSummary reports a finished import.
type ImportSummary struct {
	Source     string `json:"source" yaml:"source"`
	Rows       int    `json:"rows" yaml:"rows"`
	Duplicates int    `json:"duplicates" yaml:"duplicates"`
	Created    int    `json:"created" yaml:"created"`
	Skipped    int    `json:"skipped" yaml:"skipped"`
}

// SheetReader reads rows from a Google Sheet. *sheets.Client satisfies it.
type SheetReader interface {
	ReadRows(ctx context.Context, readRange string) ([][]ingest.Cell, error)
}

// parseFile reads and parses a local CSV or XLSX file.
func parseFile(path string, maxSize int64) (*ingest.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open spreadsheet", err)
	}
	defer f.Close()

	rows, err := ingest.ReadFile(path, ingest.NewLimitedReader(f, maxSize))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read "+path, err)
	}
	res, err := ingest.Parse(rows)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "parse "+path, err)
	}
	return res, nil
}

func summarizePreview(source string, res *ingest.Result) PreviewSummary {
	return PreviewSummary{
		Source:      source,
		Rows:        len(res.Records),
		Duplicates:  len(res.Records) - len(res.Deduped()),
		SkippedRows: res.SkippedRows,
		Mapping:     res.Mapping,
		Unmapped:    res.Unmapped,
		Records:     res.Records,
	}
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		maxSize int64
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Parse a spreadsheet and show the participants it contains",
		Long: `Parse a CSV or XLSX file the same way the server does and print the
column mapping and normalized participants. Nothing is sent to the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parseFile(args[0], maxSize)
			if err != nil {
				return err
			}
			summary := summarizePreview(args[0], res)
			out := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return out.Print(summary, func(w io.Writer) error {
				return writePreviewText(w, summary, limit)
			})
		},
	}
	cmd.Flags().Int64Var(&maxSize, "max-size", defaultMaxFileSize, "largest file accepted, in bytes")
	cmd.Flags().IntVar(&limit, "limit", 20, "rows shown in text output (0 for all)")
	return cmd
}

func writePreviewText(w io.Writer, s PreviewSummary, limit int) error {
	fmt.Fprintf(w, "%s: %d rows, %d duplicates, %d blank rows skipped\n", s.Source, s.Rows, s.Duplicates, s.SkippedRows)

	fields := make([]string, 0, len(s.Mapping))
	for f := range s.Mapping {
		fields = append(fields, string(f))
	}
	slices.Sort(fields)
	fmt.Fprintln(w, "Columns:")
	for _, f := range fields {
		fmt.Fprintf(w, "  %-18s <- %s\n", f, s.Mapping[ingest.Field(f)])
	}
	if len(s.Unmapped) > 0 {
		fmt.Fprintf(w, "Ignored: %v\n", s.Unmapped)
	}
	fmt.Fprintln(w)

	records := s.Records
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	if err := writeTable(w, records); err != nil {
		return err
	}
	if len(records) < len(s.Records) {
		fmt.Fprintf(w, "... %d more rows\n", len(s.Records)-len(records))
	}
	return nil
}

// importParsed deduplicates res and sends the records to the server.
func importParsed(cmd *cobra.Command, opts *RootOptions, source string, res *ingest.Result) error {
	out := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	st, err := opts.newStore()
	if err != nil {
		return err
	}
	ctx, cancel := opts.withTimeout(cmd.Context())
	defer cancel()

	records := res.Deduped()
	out.VerboseLog("sending %d of %d rows to %s", len(records), len(res.Records), opts.Server)
	bulk, err := st.AddMany(ctx, records)
	if err != nil {
		return err
	}

	summary := ImportSummary{
		Source:     source,
		Rows:       len(res.Records),
		Duplicates: len(res.Records) - len(records),
		Created:    len(bulk.Created),
		Skipped:    bulk.Skipped,
	}
	return out.Print(summary, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Imported %d participants from %s (%d already registered, %d duplicate rows removed)\n",
			summary.Created, summary.Source, summary.Skipped, summary.Duplicates)
		return err
	})
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var maxSize int64
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a spreadsheet into the server",
		Long: `Parse a CSV or XLSX file, remove duplicate rows and create the
participants on the server. Participants already registered are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parseFile(args[0], maxSize)
			if err != nil {
				return err
			}
			return importParsed(cmd, rootOpts, args[0], res)
		},
	}
	cmd.Flags().Int64Var(&maxSize, "max-size", defaultMaxFileSize, "largest file accepted, in bytes")
	return cmd
}

// sheetOpener opens a Google Sheet. Tests replace it.
var sheetOpener = func(ctx context.Context, credentials, spreadsheetID string) (SheetReader, error) {
	return sheets.New(ctx, credentials, spreadsheetID)
}

// NewImportSheetCommand creates the import-sheet command.
func NewImportSheetCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		credentials   string
		spreadsheetID string
		readRange     string
		dryRun        bool
	)
	cmd := &cobra.Command{
		Use:   "import-sheet",
		Short: "Import participants from a Google Sheet",
		Long: `Read a Google Sheet with a service account and import it exactly like
a spreadsheet file. With --dry-run the sheet is only previewed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if credentials == "" || spreadsheetID == "" {
				return NewExitError(ExitCommandError, "--credentials and --spreadsheet are required")
			}
			ctx, cancel := rootOpts.withTimeout(cmd.Context())
			defer cancel()

			src, err := sheetOpener(ctx, credentials, spreadsheetID)
			if err != nil {
				return WrapExitError(ExitCommandError, "open sheet", err)
			}
			rows, err := src.ReadRows(ctx, readRange)
			if err != nil {
				return err
			}
			res, err := ingest.Parse(rows)
			if err != nil {
				return WrapExitError(ExitCommandError, "parse sheet", err)
			}

			source := "sheet:" + readRange
			if dryRun {
				summary := summarizePreview(source, res)
				return newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr()).Print(summary, func(w io.Writer) error {
					return writePreviewText(w, summary, 20)
				})
			}
			return importParsed(cmd, rootOpts, source, res)
		},
	}
	cmd.Flags().StringVar(&credentials, "credentials", os.Getenv("GOOGLE_CREDENTIALS_FILE"), "service account credentials JSON file")
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet", os.Getenv("SHEETS_SPREADSHEET_ID"), "spreadsheet id")
	cmd.Flags().StringVar(&readRange, "range", envOr("SHEETS_RANGE", "Sheet1"), "A1 range to read")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview without importing")
	return cmd
}

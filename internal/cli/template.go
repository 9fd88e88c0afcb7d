package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/checkin/internal/ingest"
)

// NewTemplateCommand creates the template command.
func NewTemplateCommand(rootOpts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write a blank import template",
		Long: `Write the import template header. The format follows the extension of
--output (.csv or .xlsx); without --output a CSV template goes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return ingest.WriteCSV(cmd.OutOrStdout(), nil)
			}

			var buf bytes.Buffer
			switch strings.ToLower(filepath.Ext(output)) {
			case ".csv":
				if err := ingest.WriteCSV(&buf, nil); err != nil {
					return err
				}
			case ".xlsx":
				if err := ingest.WriteXLSX(&buf, nil); err != nil {
					return err
				}
			default:
				return NewExitError(ExitCommandError, fmt.Sprintf("unsupported template extension %q: use .csv or .xlsx", filepath.Ext(output)))
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return WrapExitError(ExitCommandError, "write template", err)
			}
			newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr()).VerboseLog("wrote %s", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (.csv or .xlsx)")
	return cmd
}

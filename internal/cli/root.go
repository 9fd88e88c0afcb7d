// Package cli implements the checkin command: spreadsheet previews and
// imports plus check-in operations against a running server.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/checkin/internal/client"
	"github.com/JonMunkholm/checkin/internal/logging"
	"github.com/JonMunkholm/checkin/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (API error, partial family check-in)
	ExitCommandError = 2 // Bad arguments or unreadable input
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server  string
	APIKey  string
	Format  string // "text" | "json" | "yaml"
	Timeout time.Duration
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the checkin CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "checkin",
		Short: "Event check-in from the command line",
		Long: `Preview and import participant spreadsheets, list participants and
check them in against a running check-in server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Verbose {
				// Surface client request logs on stderr.
				slog.SetDefault(logging.New(cmd.ErrOrStderr(), "debug", "text"))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", envOr("CHECKIN_SERVER", "http://localhost:8080"), "check-in server base URL")
	cmd.PersistentFlags().StringVar(&opts.APIKey, "api-key", os.Getenv("CHECKIN_API_KEY"), "API key for the server")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "timeout for each command")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewPreviewCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewImportSheetCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCheckInCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewTemplateCommand(opts))

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Error:", describeError(err))
	return GetExitCode(err)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newStore builds a store backed by the API client for --server.
func (o *RootOptions) newStore() (*store.Store, error) {
	api, err := client.New(o.Server,
		client.WithAPIKey(o.APIKey),
		client.WithHTTPClient(&http.Client{Timeout: o.Timeout}),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "configure client", err)
	}
	return store.New(api), nil
}

// withTimeout bounds a command by --timeout.
func (o *RootOptions) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.Timeout)
}

// describeError adds the server's error code and suggested action when err
// came from the API.
func describeError(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		msg := fmt.Sprintf("%s [%s]", err, apiErr.Code)
		if apiErr.Action != "" {
			msg += "\n" + apiErr.Action
		}
		return msg
	}
	return err.Error()
}

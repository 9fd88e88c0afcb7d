package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/checkin/internal/participant"
	"github.com/JonMunkholm/checkin/internal/store"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var search, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List participants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := rootOpts.newStore()
			if err != nil {
				return err
			}
			ctx, cancel := rootOpts.withTimeout(cmd.Context())
			defer cancel()
			if err := st.FetchAll(ctx); err != nil {
				return err
			}

			list := st.Filter(participant.Query{Search: search, Status: participant.ParseStatus(status)})
			if list == nil {
				list = []participant.Participant{}
			}
			return newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr()).Print(list, func(w io.Writer) error {
				if err := writeTable(w, list); err != nil {
					return err
				}
				_, err := fmt.Fprintf(w, "%d participants\n", len(list))
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "match name, email, phone or registrant id")
	cmd.Flags().StringVar(&status, "status", "all", "all, checked-in or pending")
	return cmd
}

// CheckInSummary reports a check-in command.
type CheckInSummary struct {
	RegistrantID string   `json:"registrantId" yaml:"registrantId"`
	CheckedIn    []string `json:"checkedIn" yaml:"checkedIn"`
	Failed       []string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// NewCheckInCommand creates the checkin command.
func NewCheckInCommand(rootOpts *RootOptions) *cobra.Command {
	var family bool
	cmd := &cobra.Command{
		Use:   "checkin <registrant-id>",
		Short: "Check in a participant or a whole family",
		Long: `Check in the first participant registered under the registrant id,
or with --family every member sharing it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := rootOpts.newStore()
			if err != nil {
				return err
			}
			ctx, cancel := rootOpts.withTimeout(cmd.Context())
			defer cancel()
			if err := st.FetchAll(ctx); err != nil {
				return err
			}

			registrantID := args[0]
			summary := CheckInSummary{RegistrantID: registrantID, CheckedIn: []string{}}
			var runErr error
			if family {
				var res store.FamilyCheckIn
				res, runErr = st.CheckInFamily(ctx, registrantID)
				for _, m := range res.Members {
					if m.Err != nil {
						summary.Failed = append(summary.Failed, m.Identity.FirstName)
					} else {
						summary.CheckedIn = append(summary.CheckedIn, m.Identity.FirstName)
					}
				}
			} else {
				p, ok := st.Find(registrantID)
				if ok {
					if _, runErr = st.CheckInOne(ctx, registrantID); runErr == nil {
						summary.CheckedIn = append(summary.CheckedIn, p.FirstName)
					}
				}
			}
			if runErr != nil && len(summary.CheckedIn) == 0 && len(summary.Failed) == 0 {
				return runErr
			}

			err = newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr()).Print(summary, func(w io.Writer) error {
				if len(summary.CheckedIn) == 0 && len(summary.Failed) == 0 {
					_, err := fmt.Fprintf(w, "No participant with registrant id %s\n", registrantID)
					return err
				}
				for _, name := range summary.CheckedIn {
					fmt.Fprintf(w, "checked in  %s\n", name)
				}
				for _, name := range summary.Failed {
					fmt.Fprintf(w, "FAILED      %s\n", name)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if runErr != nil {
				return WrapExitError(ExitFailure, "check-in incomplete", runErr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&family, "family", false, "check in every member sharing the registrant id")
	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var id participant.Identity
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove one participant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := rootOpts.newStore()
			if err != nil {
				return err
			}
			ctx, cancel := rootOpts.withTimeout(cmd.Context())
			defer cancel()

			n, err := st.RemoveOne(ctx, id)
			if err != nil {
				return err
			}
			return printCount(cmd, rootOpts, n, "removed")
		},
	}
	cmd.Flags().StringVar(&id.RegistrantID, "registrant-id", "", "registrant id")
	cmd.Flags().StringVar(&id.RegistrationType, "type", "", "registration type")
	cmd.Flags().StringVar(&id.FirstName, "first-name", "", "first name")
	for _, name := range []string{"registrant-id", "type", "first-name"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every participant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "refusing to delete every participant without --yes")
			}
			st, err := rootOpts.newStore()
			if err != nil {
				return err
			}
			ctx, cancel := rootOpts.withTimeout(cmd.Context())
			defer cancel()

			n, err := st.ClearAll(ctx)
			if err != nil {
				return err
			}
			return printCount(cmd, rootOpts, n, "removed")
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every participant")
	return cmd
}

func printCount(cmd *cobra.Command, opts *RootOptions, n int64, verb string) error {
	data := map[string]int64{"count": n}
	return newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr()).Print(data, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%d participants %s\n", n, verb)
		return err
	})
}

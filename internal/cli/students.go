package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/quipper/poc/gradebook/internal/roster"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the roster as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			renderRoster(cmd.OutOrStdout(), a.Controller.View())
			return nil
		},
	}
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the class average and exam counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			renderStats(cmd.OutOrStdout(), a.Controller.View())
			return nil
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var draft roster.FormDraft

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add one student",
		Example: `  gradebook add --name Ana --last-name Lopez --subject Math --grade 6.2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var rejected []roster.FieldError
			for _, f := range roster.Fields {
				if !a.Controller.Change(f, draft.Value(f)) {
					rejected = append(rejected, roster.FieldError{Field: f, Error: string(f) + " must not contain digits"})
				}
			}
			if len(rejected) > 0 {
				return validationExit(cmd.ErrOrStderr(), roster.NewValidationError(rejected...))
			}
			st, err := a.Controller.Submit(cmd.Context())
			if err != nil {
				if errors.Is(err, roster.ErrInvalidDraft) {
					return validationExit(cmd.ErrOrStderr(), err)
				}
				return WrapExitError(ExitCommandError, "save student", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (%s, %s): %s\n",
				st.Name, st.LastName, st.Subject, roster.FormatGrade(st.Grade), roster.AppreciationFor(st.Grade))
			return nil
		},
	}

	cmd.Flags().StringVar(&draft.Name, "name", "", "first name")
	cmd.Flags().StringVar(&draft.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&draft.Subject, "subject", "", "subject")
	cmd.Flags().StringVar(&draft.Grade, "grade", "", "grade between 1 and 7")
	return cmd
}

// validationExit prints per-field messages and returns an ExitFailure.
func validationExit(w io.Writer, err error) error {
	var verr *roster.ValidationError
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			fmt.Fprintf(w, "  %s: %s\n", f.Field, f.Error)
		}
	}
	return NewExitError(ExitFailure, roster.InvalidDraftMessage)
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete the student at index (as shown by list)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid index %q", args[0]))
			}
			a, err := rootOpts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var confirm roster.Confirmer = promptConfirmer{in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
			if yes {
				confirm = roster.ConfirmFunc(func(string) bool { return true })
			}
			deleted, err := a.Controller.Delete(cmd.Context(), i, confirm)
			switch {
			case errors.Is(err, roster.ErrIndexOutOfRange):
				return WrapExitError(ExitCommandError, fmt.Sprintf("no student at index %d", i), err)
			case err != nil:
				return WrapExitError(ExitCommandError, "delete student", err)
			case !deleted:
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted student %d\n", i)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// promptConfirmer asks on out and reads one line from in. Only y or yes
// confirms; anything else, including EOF, declines.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(p.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

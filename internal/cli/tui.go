package cli

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/quipper/poc/gradebook/internal/tui"
	"github.com/quipper/poc/gradebook/pkg/common/logger"
)

// NewTUICommand creates the interactive terminal command.
func NewTUICommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Edit the roster in an interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Log lines would tear the alt screen.
			logger.InitializeWriter(rootOpts.Config.LogLevel, io.Discard)

			a, err := rootOpts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return tui.Run(cmd.Context(), a.Controller,
				tea.WithAltScreen(),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()))
		},
	}
}

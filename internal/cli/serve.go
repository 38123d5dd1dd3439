package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	gradebookHandler "github.com/quipper/poc/gradebook/internal/controller/http/gradebook"
	"github.com/quipper/poc/gradebook/internal/server"
	"github.com/quipper/poc/gradebook/pkg/common/logger"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the roster page and JSON API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				rootOpts.Config.HTTP.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("starting server")
			a, err := rootOpts.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := rootOpts.Config
			h := gradebookHandler.NewHandler(a.Controller, a.Repo)
			if err := server.Run(ctx, cfg.HTTP, cfg.Addr(), server.NewRouter(cfg.HTTP, h)); err != nil {
				return WrapExitError(ExitCommandError, "serve", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default 8080, env PORT)")
	return cmd
}

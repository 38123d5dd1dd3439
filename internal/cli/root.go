// Package cli implements the gradebook command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quipper/poc/gradebook/internal/app"
	"github.com/quipper/poc/gradebook/internal/config"
	"github.com/quipper/poc/gradebook/pkg/common/logger"
)

// DotEnvFile is read from the working directory before the config resolves.
const DotEnvFile = ".env"

// RootOptions holds global flags and the config they resolve to.
type RootOptions struct {
	ConfigFile string
	Config     *config.Config

	v *viper.Viper
}

// NewRootCommand creates the root command for the gradebook CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{v: config.New()}

	cmd := &cobra.Command{
		Use:   "gradebook",
		Short: "Gradebook - student roster and grades",
		Long: `Keep a roster of students with one grade each, see the class average,
how many students must take the exam and an appreciation per grade.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigFile, "config", "", "YAML config file")
	pf.String("storage", "", "storage driver (sqlite|redis|memory, default sqlite)")
	pf.String("db", "", "sqlite database path (default ./gradebook.db)")
	pf.String("redis-addr", "", "redis address (default localhost:6379)")
	pf.String("key", "", "storage key holding the roster (default students)")
	pf.String("log-level", "", "log level (debug|info|warn|error, default debug)")

	_ = opts.v.BindPFlag("storage.driver", pf.Lookup("storage"))
	_ = opts.v.BindPFlag("storage.sqlite_path", pf.Lookup("db"))
	_ = opts.v.BindPFlag("storage.redis_addr", pf.Lookup("redis-addr"))
	_ = opts.v.BindPFlag("storage.key", pf.Lookup("key"))
	_ = opts.v.BindPFlag("log_level", pf.Lookup("log-level"))

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTUICommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// load resolves the config and points the logger at logOut.
func (o *RootOptions) load(logOut io.Writer) error {
	if err := config.LoadDotEnv(DotEnvFile); err != nil {
		return WrapExitError(ExitCommandError, "load .env", err)
	}
	cfg, err := config.Load(o.v, o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Config = cfg
	logger.InitializeWriter(cfg.LogLevel, logOut)
	return nil
}

// openApp opens the configured storage. Callers must Close the result.
func (o *RootOptions) openApp(ctx context.Context) (*app.App, error) {
	a, err := app.Open(ctx, o.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open storage", err)
	}
	return a, nil
}

// Main runs the CLI with args and returns the process exit code.
func Main(ctx context.Context, args []string) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return GetExitCode(err)
}

// Package commands implements attendancectl, the operator CLI for the
// attendance scheduler and settings.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/hris-attendance-go/internal/app"
	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var verbose bool

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "attendancectl",
		Short: "Operate the HRIS attendance scheduler",
		Long: `attendancectl runs the attendance tick outside the API server, applies the
database schema and shows the settings in effect for an employee.
It reads the same environment (.env) as the API server.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newTickCmd())
	rootCmd.AddCommand(newSchedulerCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newResolveSettingsCmd())
	rootCmd.AddCommand(newCompanySettingsCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// withApp loads config, wires the app and closes it after fn returns.
func withApp(ctx context.Context, opts app.Options, fn func(a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "attendancectl %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

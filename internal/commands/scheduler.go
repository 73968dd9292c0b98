package commands

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/hris-attendance-go/internal/app"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
)

func newSchedulerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run the attendance tick loop until interrupted",
		Long: `Runs the minute tick without the HTTP server. Start exactly one scheduler
per deployment, with SCHEDULER_ENABLED=false on the API servers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, app.Options{}, func(a *app.App) error {
				scheduler := cron.NewScheduler()
				a.Jobs.RegisterJobs(scheduler, a.Config.Scheduler.TickInterval)
				scheduler.Start()

				<-ctx.Done()
				slog.Info("Signal received, stopping scheduler")
				scheduler.Stop()
				return nil
			})
		},
	}
}

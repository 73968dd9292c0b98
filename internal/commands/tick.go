package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/hris-attendance-go/internal/app"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
)

func newTickCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run one attendance tick and print what it did",
		Long: `Runs reminders, overtime prompts, auto-checkout, mark-absent and the
past-day repair once for every company. With --at the tick runs as if the
clock showed that instant, which is useful for replaying a missed minute.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts app.Options
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at, use RFC3339 such as 2024-06-03T18:30:00+07:00: %w", err)
				}
				opts.Clock = clock.NewFixed(t)
			}

			return withApp(cmd.Context(), opts, func(a *app.App) error {
				report, err := a.Jobs.Tick(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "tick at %s\n", a.Clock.Now().Format(time.RFC3339))
				fmt.Fprintf(out, "  companies:        %d\n", report.Companies)
				fmt.Fprintf(out, "  reminders:        %d\n", report.Reminders)
				fmt.Fprintf(out, "  overtime prompts: %d\n", report.OvertimePrompts)
				fmt.Fprintf(out, "  auto checkouts:   %d\n", report.AutoCheckouts)
				fmt.Fprintf(out, "  marked absent:    %d\n", report.MarkedAbsent)
				fmt.Fprintf(out, "  marked on leave:  %d\n", report.MarkedOnLeave)
				fmt.Fprintf(out, "  repaired:         %d\n", report.Repaired)
				fmt.Fprintf(out, "  failures:         %d\n", report.Failures)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "run as of this RFC3339 instant instead of now")
	return cmd
}

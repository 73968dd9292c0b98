package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/hris-attendance-go/internal/app"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/company"
)

// resolvedSettings mirrors the defaults file layout so the output can be
// pasted back into ATTENDANCE_DEFAULTS_FILE.
type resolvedSettings struct {
	Attendance company.Settings `yaml:"attendance"`
}

func newResolveSettingsCmd() *cobra.Command {
	var employeeID string

	cmd := &cobra.Command{
		Use:   "resolve-settings",
		Short: "Print the attendance settings in effect",
		Long: `Prints the global defaults, or with --employee the result of merging the
defaults, the company overrides and the employee overrides.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
				settings := a.Settings.Defaults()
				if employeeID != "" {
					var err error
					settings, err = a.Attendance.GetEffectiveSettings(cmd.Context(), employeeID)
					if err != nil {
						return fmt.Errorf("resolve settings for %s: %w", employeeID, err)
					}
				}

				return writeYAML(cmd, resolvedSettings{Attendance: settings})
			})
		},
	}

	cmd.Flags().StringVar(&employeeID, "employee", "", "employee ID to resolve for")
	return cmd
}

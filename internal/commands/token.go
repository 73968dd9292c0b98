package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/hris-attendance-go/internal/app"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
)

func newTokenCmd() *cobra.Command {
	var employeeID string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development access token for an employee",
		Long: `Signs an access token with JWT_SECRET_KEY for local testing against the
memory storage driver. Production tokens come from the HRIS auth service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
				emp, err := a.Repos.Employee.GetByID(cmd.Context(), employeeID)
				if err != nil {
					return fmt.Errorf("load employee %s: %w", employeeID, err)
				}

				svc, err := jwt.NewJWTService(a.Config.JWT.Secret, a.Config.JWT.AccessExpiration)
				if err != nil {
					return err
				}

				token, expiresAt, err := svc.GenerateAccessToken(jwt.Claims{
					UserID:     emp.NotificationTarget(),
					EmployeeID: emp.ID,
					CompanyID:  emp.CompanyID,
				})
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), token)
				cmd.PrintErrf("expires %s\n", time.Unix(expiresAt, 0).Format(time.RFC3339))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&employeeID, "employee", "", "employee ID (required)")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}

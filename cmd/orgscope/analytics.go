package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lumigente/lumigente-backend/internal/analytics/domain"
	hdomain "github.com/lumigente/lumigente-backend/internal/hierarchy/domain"
)

func newDashboardCmd() *cobra.Command {
	var userID int64
	var q domain.Query

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Compute the analytics dashboard as seen by a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user-id is required")
			}
			e, err := connect()
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.svc.Directory.Identify(cmd.Context(), hdomain.Subject{UserID: userID})
			if err != nil {
				return err
			}
			d, _, err := e.svc.Engine.Dashboard(cmd.Context(), s, q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), d)
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "requesting account id")
	cmd.Flags().IntVar(&q.PeriodDays, "period", 0, "window in days (default from config)")
	cmd.Flags().StringVar(&q.Department, "department", "", "department filter")
	cmd.Flags().Int64Var(&q.TargetUserID, "target", 0, "user whose metrics to include")
	cmd.Flags().IntVar(&q.Top, "top", 0, "ranking size")
	return cmd
}

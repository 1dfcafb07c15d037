package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/studyplan/app"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show adherence of sessions to the latest plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			rep, err := svc.Report(ctx, userID)
			if err != nil {
				return err
			}
			return printJSON(cmd, rep)
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

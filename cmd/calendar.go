package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/studyplan/app"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Manage busy time",
}

var calendarImportCmd = &cobra.Command{
	Use:   "import <file.ics>",
	Short: "Import events from an iCalendar file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalendarImport,
}

func init() {
	calendarCmd.AddCommand(calendarImportCmd)
	rootCmd.AddCommand(calendarCmd)
}

func runCalendarImport(cmd *cobra.Command, args []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	return withService(func(ctx context.Context, svc *app.Service) error {
		stats, err := svc.ImportCalendar(ctx, userID, f)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(),
			"imported %d events (%d cancelled, %d missing times, %d invalid, %d all-day, %d duplicates)\n",
			stats.Included, stats.Cancelled, stats.MissingTime, stats.Invalid, stats.AllDay, stats.Duplicates)
		return err
	})
}

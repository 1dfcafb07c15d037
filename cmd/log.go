package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/studyplan/app"
	"github.com/kilianp07/studyplan/core/planlog"
)

var (
	logSince string
	logUntil string
	logTask  string
	logJSON  bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show past planning runs from the plan log",
	RunE:  runLog,
}

func init() {
	logCmd.Flags().StringVar(&logSince, "since", "", "only runs at or after this time (RFC3339, \"2006-01-02 15:04\" or \"2006-01-02\")")
	logCmd.Flags().StringVar(&logUntil, "until", "", "only runs at or before this time; a bare date covers the whole day")
	logCmd.Flags().StringVar(&logTask, "task", "", "only runs that allocated this task")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "print the raw records as JSON")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	q := planlog.LogQuery{TaskID: logTask}
	if logSince != "" {
		t, err := parseSince(logSince)
		if err != nil {
			return err
		}
		q.Start = t
	}
	if logUntil != "" {
		t, err := parseDeadline(logUntil)
		if err != nil {
			return fmt.Errorf("invalid --until %q", logUntil)
		}
		q.End = t
	}
	return withService(func(ctx context.Context, svc *app.Service) error {
		recs, err := svc.PlanHistory(ctx, userID, q)
		if err != nil {
			return err
		}
		if logJSON {
			if recs == nil {
				recs = []planlog.LogRecord{}
			}
			return printJSON(cmd, recs)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tPLAN\tTASKS\tEVENTS\tBLOCKS\tUNSCHEDULED")
		for _, r := range recs {
			unscheduled := 0
			for _, a := range r.Allocations {
				unscheduled += a.Unscheduled()
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", r.Timestamp.Format(time.RFC3339), r.PlanID, r.TaskCount, r.EventCount, r.BlockCount, unscheduled)
		}
		return tw.Flush()
	})
}

// parseSince accepts the deadline layouts without moving a bare date to the
// end of its day.
func parseSince(s string) (time.Time, error) {
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --since %q", s)
}

package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/studyplan/app"
	"github.com/kilianp07/studyplan/core/model"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var (
	taskID       string
	taskTitle    string
	taskMinutes  int
	taskDeadline string
)

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or replace a task",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	RunE:    runTaskList,
}

var taskRmCmd = &cobra.Command{
	Use:   "rm <task-id>",
	Short: "Remove a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskRm,
}

func init() {
	taskAddCmd.Flags().StringVar(&taskID, "id", "", "task identifier (generated when empty)")
	taskAddCmd.Flags().StringVarP(&taskTitle, "title", "t", "", "task title")
	taskAddCmd.Flags().IntVarP(&taskMinutes, "minutes", "m", 0, "estimated minutes of work")
	taskAddCmd.Flags().StringVarP(&taskDeadline, "deadline", "d", "", "deadline (RFC3339, \"2006-01-02 15:04\" or \"2006-01-02\")")
	_ = taskAddCmd.MarkFlagRequired("deadline")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskRmCmd)
	rootCmd.AddCommand(taskCmd)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	deadline, err := parseDeadline(taskDeadline)
	if err != nil {
		return err
	}
	return withService(func(ctx context.Context, svc *app.Service) error {
		t, err := svc.AddTask(ctx, model.Task{
			ID:               taskID,
			UserID:           userID,
			Title:            taskTitle,
			EstimatedMinutes: taskMinutes,
			Deadline:         deadline,
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), t.ID)
		return err
	})
}

func runTaskList(cmd *cobra.Command, args []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	return withService(func(ctx context.Context, svc *app.Service) error {
		tasks, err := svc.Tasks(ctx, userID)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tMINUTES\tDEADLINE")
		for _, t := range tasks {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", t.ID, t.Title, t.EstimatedMinutes, t.Deadline.Format(time.RFC3339))
		}
		return tw.Flush()
	})
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	return withService(func(ctx context.Context, svc *app.Service) error {
		return svc.RemoveTask(ctx, userID, args[0])
	})
}

var deadlineLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// parseDeadline accepts RFC3339 or a local date with optional time. A bare
// date means the end of that day.
func parseDeadline(s string) (time.Time, error) {
	for _, layout := range deadlineLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" {
			t = t.AddDate(0, 0, 1).Add(-time.Minute)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q", s)
}

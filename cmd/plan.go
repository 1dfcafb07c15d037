package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/studyplan/app"
	"github.com/kilianp07/studyplan/core/model"
	"github.com/kilianp07/studyplan/pkg/export"
)

var (
	planFormat string
	planOut    string
	planLatest bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a plan and export it",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "json", "output format: json, csv or html")
	planCmd.Flags().StringVarP(&planOut, "out", "o", "", "output file (stdout when empty)")
	planCmd.Flags().BoolVar(&planLatest, "latest", false, "export the stored plan instead of generating a new one")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if err := requireUser(); err != nil {
		return err
	}
	format, err := export.ParseFormat(planFormat)
	if err != nil {
		return err
	}
	return withService(func(ctx context.Context, svc *app.Service) error {
		var plan model.Plan
		if planLatest {
			plan, err = svc.LatestPlan(ctx, userID)
		} else {
			plan, err = svc.GeneratePlan(ctx, userID, time.Now())
		}
		if err != nil {
			return err
		}
		tasks, err := svc.Tasks(ctx, userID)
		if err != nil {
			return err
		}
		titles := make(map[string]string, len(tasks))
		for _, t := range tasks {
			titles[t.ID] = t.Title
		}

		var w io.Writer = cmd.OutOrStdout()
		if planOut != "" {
			f, err := os.Create(planOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return export.Write(w, format, plan, titles)
	})
}

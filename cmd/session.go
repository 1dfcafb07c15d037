package cmd

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/studyplan/app"
)

var sessionFocus float64

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Track work on planned blocks",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start <block-id>",
	Short: "Start working a block of the latest plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			sess, err := svc.StartSession(ctx, userID, args[0], time.Now())
			if err != nil {
				return err
			}
			return printJSON(cmd, sess)
		})
	},
}

var sessionCompleteCmd = &cobra.Command{
	Use:   "complete <session-id>",
	Short: "Complete a session with a focus score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireUser(); err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			sess, err := svc.CompleteSession(ctx, userID, args[0], time.Now(), sessionFocus)
			if err != nil {
				return err
			}
			return printJSON(cmd, sess)
		})
	},
}

func init() {
	sessionCompleteCmd.Flags().Float64Var(&sessionFocus, "focus", 0, "focus score between 0 and 10")
	_ = sessionCompleteCmd.MarkFlagRequired("focus")
	sessionCmd.AddCommand(sessionStartCmd, sessionCompleteCmd)
	rootCmd.AddCommand(sessionCmd)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

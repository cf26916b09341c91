/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"verigate/internal/bootstrap/logging"
	"verigate/internal/errs"
	"verigate/internal/ports"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect verification results",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List verification results, newest first",
	RunE: withApp(func(cmd *cobra.Command, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		project, _ := cmd.Flags().GetString("project")
		issue, _ := cmd.Flags().GetInt64("issue")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := ports.VerificationResultFilter{
			ProjectName: project,
			Limit:       limit,
		}
		if issue > 0 {
			filter.IssueNumber = &issue
		}

		results, err := svcs.Results.ListResults(ctx, filter)
		if err != nil {
			logging.Error(ctx, "list results failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list results")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "result_id\tproject\tissue\tstatus\tbuild\ttests\tplaceholders\tcreated_at"); err != nil {
			return errs.Wrap(err, "write results header")
		}
		for _, result := range results {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%t\t%t\t%d\t%s\n",
				result.ResultID, result.ProjectName, result.IssueNumber, result.Status,
				result.BuildSuccess, result.TestsPassed, result.MockCount, result.CreatedAt,
			); err != nil {
				return errs.Wrap(err, "write results row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush results output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsListCmd)

	resultsListCmd.Flags().String("project", "", "Filter by project name")
	resultsListCmd.Flags().Int64("issue", 0, "Filter by issue number")
	resultsListCmd.Flags().Int("limit", 50, "Maximum rows to return")
}

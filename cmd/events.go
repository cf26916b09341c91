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

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect recorded webhook events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded webhook events",
	RunE: withApp(func(cmd *cobra.Command, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		project, _ := cmd.Flags().GetString("project")
		limit, _ := cmd.Flags().GetInt("limit")
		unprocessed, _ := cmd.Flags().GetBool("unprocessed")

		events, err := svcs.Events.ListEvents(ctx, ports.WebhookEventFilter{
			ProjectName: project,
			OnlyPending: unprocessed,
			Limit:       limit,
		})
		if err != nil {
			logging.Error(ctx, "list events failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list events")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "event_id\ttype\tproject\tissue\tcompletion\tprocessed\tcreated_at"); err != nil {
			return errs.Wrap(err, "write events header")
		}
		for _, event := range events {
			project := "-"
			if event.ProjectName != nil {
				project = *event.ProjectName
			}
			issue := "-"
			if event.IssueNumber != nil {
				issue = fmt.Sprintf("%d", *event.IssueNumber)
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%t\t%s\n",
				event.EventID, event.EventType, project, issue, event.Completion, event.Processed, event.CreatedAt,
			); err != nil {
				return errs.Wrap(err, "write events row")
			}
		}
		if err := w.Flush(); err != nil {
			return errs.Wrap(err, "flush events output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd)

	eventsListCmd.Flags().String("project", "", "Filter by project name")
	eventsListCmd.Flags().Int("limit", 50, "Maximum rows to return")
	eventsListCmd.Flags().Bool("unprocessed", false, "Only events awaiting dispatch")
}

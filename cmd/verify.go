/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"verigate/internal/bootstrap/logging"
	"verigate/internal/errs"
	githubinfra "verigate/internal/infrastructure/github"
	"verigate/internal/usecase/verify"
)

// verifyCmd runs one verification synchronously, outside the processor loop.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run one verification for a project issue",
	RunE: withApp(func(cmd *cobra.Command, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		projectName, _ := cmd.Flags().GetString("project")
		issueNumber, _ := cmd.Flags().GetInt64("issue")
		publish, _ := cmd.Flags().GetBool("publish")

		result, err := svcs.Verify.VerifyIssue(ctx, verify.VerifyInput{
			ProjectName: projectName,
			IssueNumber: issueNumber,
		})
		if err != nil {
			return errs.Wrap(err, "verify issue")
		}

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), result.Summary); err != nil {
			return errs.Wrap(err, "write verification summary")
		}

		if publish {
			publisher, err := githubinfra.NewPublisher(svcs.App.Config.GitHub, svcs.Registry)
			if err != nil {
				return errs.Wrap(err, "build github publisher")
			}
			if err := publisher.PublishVerdict(ctx, result); err != nil {
				return errs.Wrap(err, "publish verdict")
			}
			logging.Info(ctx, "verdict published", slog.String("result_id", result.ResultID))
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("project", "", "Project name from the mapping file")
	verifyCmd.Flags().Int64("issue", 0, "Issue number the verdict belongs to")
	verifyCmd.Flags().Bool("publish", false, "Publish the verdict to the issue thread")
	_ = verifyCmd.MarkFlagRequired("project")
	_ = verifyCmd.MarkFlagRequired("issue")
}

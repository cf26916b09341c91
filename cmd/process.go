/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"verigate/internal/bootstrap/logging"
	"verigate/internal/errs"
	githubinfra "verigate/internal/infrastructure/github"
	"verigate/internal/infrastructure/natsbus"
	"verigate/internal/ports"
	"verigate/internal/usecase/processor"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the background verification processor",
	RunE: withApp(func(cmd *cobra.Command, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))
		cfg := svcs.App.Config

		var publisher ports.VerdictPublisher
		if noPublish, _ := cmd.Flags().GetBool("no-publish"); noPublish {
			logging.Warn(ctx, "publishing disabled; verdicts stay local")
		} else {
			p, err := githubinfra.NewPublisher(cfg.GitHub, svcs.Registry)
			if err != nil {
				return errs.Wrap(err, "build github publisher")
			}
			publisher = p
		}

		var notifier ports.VerdictNotifier
		if strings.TrimSpace(cfg.NATS.URL) != "" {
			n, err := natsbus.NewNotifier(cfg.NATS.URL, cfg.NATS.Subject)
			if err != nil {
				return errs.Wrap(err, "connect verdict bus")
			}
			defer n.Close()
			notifier = n
		}

		runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			if err := svcs.Registry.Watch(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Warn(runCtx, "project registry watch stopped", slog.Any("err", errs.Loggable(err)))
			}
		}()

		proc := processor.New(svcs.Events, svcs.Verify, publisher, notifier, processor.Options{
			Interval:      time.Duration(cfg.Processor.IntervalSeconds) * time.Second,
			MaxConcurrent: cfg.Processor.MaxConcurrent,
			BatchSize:     cfg.Processor.BatchSize,
		})

		if err := proc.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			return errs.Wrap(err, "run processor")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().Bool("no-publish", false, "Skip publishing verdicts back to the issue thread")
}

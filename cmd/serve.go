/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"verigate/internal/bootstrap/logging"
	"verigate/internal/errs"
	"verigate/internal/usecase/ingest"
)

// maxWebhookBody caps inbound payloads; GitHub's own delivery limit is 25 MB.
const maxWebhookBody = 25 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook receiver",
	RunE: withApp(func(cmd *cobra.Command, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr := strings.TrimSpace(svcs.App.Config.Webhook.Addr)
		if flagAddr, _ := cmd.Flags().GetString("addr"); strings.TrimSpace(flagAddr) != "" {
			addr = strings.TrimSpace(flagAddr)
		}
		secret := svcs.App.Config.Webhook.Secret
		if strings.TrimSpace(secret) == "" {
			return errors.New("webhook secret is required; set webhook.secret or VG_WEBHOOK_SECRET")
		}

		server := &http.Server{
			Addr:              addr,
			Handler:           newWebhookRouter(secret, svcs.Ingest),
			ReadHeaderTimeout: 10 * time.Second,
		}

		runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		serveErr := make(chan error, 1)
		go func() {
			serveErr <- server.ListenAndServe()
		}()

		logging.Info(ctx, "webhook server started", slog.String("addr", addr))

		select {
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error(ctx, "webhook server failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "serve webhooks")
			}
		case <-runCtx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logging.Error(ctx, "webhook server shutdown failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "shutdown webhook server")
			}
			logging.Info(ctx, "webhook server stopped")
		}
		return nil
	}),
}

type webhookIngestService interface {
	Ingest(ctx context.Context, input ingest.IngestInput) (ingest.IngestResult, error)
}

type webhookAcceptedResponse struct {
	EventID    string `json:"event_id"`
	DeliveryID string `json:"delivery_id"`
	EventType  string `json:"event_type"`
	Completion bool   `json:"completion"`
}

type webhookErrorResponse struct {
	Error string `json:"error"`
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides webhook.addr)")
}

func newWebhookRouter(secret string, svc webhookIngestService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeWebhookJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/webhooks/github", handleGitHubWebhook(secret, svc))
	return r
}

func handleGitHubWebhook(secret string, svc webhookIngestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			writeWebhookError(w, http.StatusInternalServerError, "ingest service is not configured")
			return
		}

		eventType := strings.TrimSpace(r.Header.Get("X-GitHub-Event"))
		if eventType == "" {
			writeWebhookError(w, http.StatusBadRequest, "missing X-GitHub-Event")
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			writeWebhookError(w, http.StatusBadRequest, "failed to read payload")
			return
		}

		if err := ingest.ValidateSignature(secret, r.Header.Get("X-Hub-Signature-256"), payload); err != nil {
			writeWebhookError(w, http.StatusUnauthorized, ingest.ErrBadSignature.Error())
			return
		}

		out, err := svc.Ingest(r.Context(), ingest.IngestInput{
			DeliveryID: strings.TrimSpace(r.Header.Get("X-GitHub-Delivery")),
			EventType:  eventType,
			Payload:    payload,
		})
		if err != nil {
			logging.Error(r.Context(), "webhook ingestion failed", slog.Any("err", errs.Loggable(err)))
			writeWebhookError(w, http.StatusInternalServerError, "failed to record event")
			return
		}

		writeWebhookJSON(w, http.StatusAccepted, webhookAcceptedResponse{
			EventID:    out.EventID,
			DeliveryID: out.DeliveryID,
			EventType:  out.EventType,
			Completion: out.Completion,
		})
	}
}

func writeWebhookError(w http.ResponseWriter, status int, message string) {
	writeWebhookJSON(w, status, webhookErrorResponse{Error: message})
}

func writeWebhookJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

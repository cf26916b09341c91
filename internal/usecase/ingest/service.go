package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"verigate/internal/bootstrap/logging"
	"verigate/internal/errs"
	"verigate/internal/ports"
	"verigate/internal/registry"
)

// Service records validated webhook events. The single insert is the only
// durable effect; verification happens later on the processor side.
type Service struct {
	events   ports.EventRepository
	registry *registry.Registry
}

func NewService(events ports.EventRepository, reg *registry.Registry) *Service {
	return &Service{
		events:   events,
		registry: reg,
	}
}

type IngestInput struct {
	DeliveryID string
	EventType  string
	Payload    []byte
}

type IngestResult struct {
	EventID     string
	DeliveryID  string
	EventType   string
	ProjectName string
	IssueNumber *int64
	Completion  bool
}

func (s *Service) Ingest(ctx context.Context, input IngestInput) (IngestResult, error) {
	if ctx == nil {
		return IngestResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return IngestResult{}, errs.Wrap(err, "check context")
	}
	if s.events == nil {
		return IngestResult{}, errors.New("event repository is required")
	}
	if s.registry == nil {
		return IngestResult{}, errors.New("project registry is required")
	}

	eventType := strings.TrimSpace(input.EventType)
	if eventType == "" {
		return IngestResult{}, errors.New("event type is required")
	}
	if len(input.Payload) == 0 {
		return IngestResult{}, errors.New("payload is required")
	}

	deliveryID := strings.TrimSpace(input.DeliveryID)
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	fields, err := extractEventFields(eventType, input.Payload)
	if err != nil {
		return IngestResult{}, err
	}

	// Unknown repositories yield a nil project; the event is still stored so
	// the audit trail stays complete, but it will never be dispatched.
	var projectName *string
	if project, ok := s.registry.ResolveRepo(fields.RepoFullName); ok {
		name := project.Name
		projectName = &name
	}

	completion := s.registry.CompletionRules().IsCompletionSignal(fields.Actor, fields.Text)

	created, err := s.events.CreateEvent(ctx, ports.WebhookEventCreate{
		EventID:     uuid.NewString(),
		DeliveryID:  deliveryID,
		EventType:   eventType,
		ProjectName: projectName,
		IssueNumber: fields.IssueNumber,
		Actor:       fields.Actor,
		Completion:  completion,
		Payload:     string(input.Payload),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return IngestResult{}, errs.Wrap(err, "store webhook event")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "ingest"))
	logging.Info(
		logCtx,
		"webhook event stored",
		slog.String("event_id", created.EventID),
		slog.String("event_type", eventType),
		slog.String("repo", fields.RepoFullName),
		slog.Bool("completion", completion),
	)

	out := IngestResult{
		EventID:     created.EventID,
		DeliveryID:  deliveryID,
		EventType:   eventType,
		IssueNumber: fields.IssueNumber,
		Completion:  completion,
	}
	if projectName != nil {
		out.ProjectName = *projectName
	}
	return out, nil
}

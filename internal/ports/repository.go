package ports

import (
	"context"
	"errors"
)

var ErrResultNotFound = errors.New("verification result not found")

// WebhookEvent is a durably recorded inbound event. ProjectName and
// IssueNumber stay nil when the payload could not be resolved; such rows are
// kept for audit and never dispatched.
type WebhookEvent struct {
	EventID      string
	DeliveryID   string
	EventType    string
	ProjectName  *string
	IssueNumber  *int64
	Actor        string
	Completion   bool
	Payload      string
	Processed    bool
	ErrorMessage *string
	ProcessedAt  *string
	CreatedAt    string
}

type WebhookEventCreate struct {
	EventID     string
	DeliveryID  string
	EventType   string
	ProjectName *string
	IssueNumber *int64
	Actor       string
	Completion  bool
	Payload     string
	CreatedAt   string
}

type WebhookEventFilter struct {
	ProjectName   string
	IssueNumber   *int64
	OnlyPending   bool
	OnlyCompleted bool
	Limit         int
}

type VerificationResult struct {
	ResultID      string
	ProjectName   string
	IssueNumber   int64
	Status        string
	BuildSuccess  bool
	TestsPassed   bool
	MocksDetected bool
	BuildOutput   string
	BuildError    string
	TestOutput    string
	TestError     string
	MockFiles     []string
	MockCount     int
	Summary       string
	CreatedAt     string
}

type VerificationResultFilter struct {
	ProjectName string
	IssueNumber *int64
	Limit       int
}

type EventRepository interface {
	CreateEvent(ctx context.Context, input WebhookEventCreate) (WebhookEvent, error)
	GetEvent(ctx context.Context, eventID string) (WebhookEvent, error)
	// ListDispatchable returns unprocessed completion events that carry both a
	// resolved project and an issue number, oldest first.
	ListDispatchable(ctx context.Context, limit int) ([]WebhookEvent, error)
	MarkEventProcessed(ctx context.Context, eventID string, processedAt string, errorMessage *string) error
	ListEvents(ctx context.Context, filter WebhookEventFilter) ([]WebhookEvent, error)
}

type ResultRepository interface {
	CreateResult(ctx context.Context, result VerificationResult) (VerificationResult, error)
	LatestResult(ctx context.Context, projectName string, issueNumber int64) (VerificationResult, error)
	ListResults(ctx context.Context, filter VerificationResultFilter) ([]VerificationResult, error)
}

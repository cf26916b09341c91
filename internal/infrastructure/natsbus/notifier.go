package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"verigate/internal/bootstrap/logging"
	"verigate/internal/errs"
	"verigate/internal/ports"
)

// Notifier fans persisted verdicts out on a NATS subject so downstream
// dashboards and bots can react without polling the database.
type Notifier struct {
	conn    *nats.Conn
	subject string
}

type verdictMessage struct {
	ResultID      string `json:"result_id"`
	ProjectName   string `json:"project_name"`
	IssueNumber   int64  `json:"issue_number"`
	Status        string `json:"status"`
	BuildSuccess  bool   `json:"build_success"`
	TestsPassed   bool   `json:"tests_passed"`
	MocksDetected bool   `json:"mocks_detected"`
	MockCount     int    `json:"mock_count"`
	CreatedAt     string `json:"created_at"`
}

func NewNotifier(url string, subject string) (*Notifier, error) {
	trimmedURL := strings.TrimSpace(url)
	if trimmedURL == "" {
		return nil, errors.New("nats url is required")
	}
	trimmedSubject := strings.TrimSpace(subject)
	if trimmedSubject == "" {
		return nil, errors.New("nats subject is required")
	}

	conn, err := nats.Connect(trimmedURL,
		nats.Name("verigate"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errs.Wrap(err, "connect to nats")
	}
	return &Notifier{conn: conn, subject: trimmedSubject}, nil
}

func (n *Notifier) NotifyVerdict(ctx context.Context, result ports.VerificationResult) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	payload, err := json.Marshal(verdictMessage{
		ResultID:      result.ResultID,
		ProjectName:   result.ProjectName,
		IssueNumber:   result.IssueNumber,
		Status:        result.Status,
		BuildSuccess:  result.BuildSuccess,
		TestsPassed:   result.TestsPassed,
		MocksDetected: result.MocksDetected,
		MockCount:     result.MockCount,
		CreatedAt:     result.CreatedAt,
	})
	if err != nil {
		return errs.Wrap(err, "marshal verdict message")
	}

	if err := n.conn.Publish(n.subject, payload); err != nil {
		return errs.Wrap(err, "publish verdict message")
	}
	logging.Info(ctx, "verdict notified",
		slog.String("component", "natsbus"),
		slog.String("subject", n.subject),
		slog.String("result_id", result.ResultID),
	)
	return nil
}

func (n *Notifier) Close() {
	if n.conn != nil {
		_ = n.conn.Drain()
	}
}

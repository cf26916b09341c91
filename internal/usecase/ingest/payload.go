package ingest

import (
	"encoding/json"
	"strings"

	"verigate/internal/errs"
)

// eventFields is the narrow slice of a webhook payload the ingestor reads:
// acting identity, textual content, repository name, issue number. Everything
// else is retained verbatim in the stored payload.
type eventFields struct {
	RepoFullName string
	IssueNumber  *int64
	Actor        string
	Text         string
}

type rawUser struct {
	Login string `json:"login"`
}

type rawPayload struct {
	Action  string `json:"action"`
	Comment *struct {
		Body string  `json:"body"`
		User rawUser `json:"user"`
	} `json:"comment"`
	Issue *struct {
		Number int64  `json:"number"`
		Title  string `json:"title"`
		Body   string `json:"body"`
	} `json:"issue"`
	PullRequest *struct {
		Number int64  `json:"number"`
		Title  string `json:"title"`
		Body   string `json:"body"`
	} `json:"pull_request"`
	Sender     rawUser `json:"sender"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// extractEventFields pulls the routed fields out of a validated payload. The
// payload shape varies by event type; unknown types still yield the
// repository name so the event can be stored for audit.
func extractEventFields(eventType string, payload []byte) (eventFields, error) {
	var raw rawPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return eventFields{}, errs.Wrap(err, "parse webhook payload")
	}

	fields := eventFields{
		RepoFullName: strings.TrimSpace(raw.Repository.FullName),
		Actor:        strings.TrimSpace(raw.Sender.Login),
	}

	switch strings.TrimSpace(eventType) {
	case "issue_comment":
		if raw.Comment != nil {
			fields.Text = raw.Comment.Body
			if actor := strings.TrimSpace(raw.Comment.User.Login); actor != "" {
				fields.Actor = actor
			}
		}
		if raw.Issue != nil {
			number := raw.Issue.Number
			fields.IssueNumber = &number
		}
	case "issues":
		if raw.Issue != nil {
			number := raw.Issue.Number
			fields.IssueNumber = &number
			fields.Text = strings.TrimSpace(raw.Issue.Title + "\n" + raw.Issue.Body)
		}
	case "pull_request":
		if raw.PullRequest != nil {
			number := raw.PullRequest.Number
			fields.IssueNumber = &number
			fields.Text = strings.TrimSpace(raw.PullRequest.Title + "\n" + raw.PullRequest.Body)
		}
	}

	return fields, nil
}

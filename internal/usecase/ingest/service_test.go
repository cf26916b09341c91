package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"verigate/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "verigate/internal/infrastructure/persistence/sqlite/repository"
	"verigate/internal/ports"
	"verigate/internal/registry"
)

const testMapping = `
[completion]
actors = ["agent[bot]"]
keywords = ["implementation complete", "ready for review"]

[projects.billing]
repo = "acme/billing-service"
workspace = "/srv/workspaces/billing"
`

func setupService(t *testing.T) (*Service, ports.EventRepository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.WebhookEvent{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	mappingPath := filepath.Join(t.TempDir(), "projects.toml")
	if err := os.WriteFile(mappingPath, []byte(testMapping), 0o644); err != nil {
		t.Fatalf("write projects file: %v", err)
	}
	reg, err := registry.Load(mappingPath)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}

	events := sqliterepo.NewEventRepository(db)
	return NewService(events, reg), events
}

func commentPayload(repo string, issue int64, actor string, body string) []byte {
	return []byte(fmt.Sprintf(
		`{"action":"created","issue":{"number":%d},"comment":{"body":%q,"user":{"login":%q}},"repository":{"full_name":%q},"sender":{"login":%q}}`,
		issue, body, actor, repo, actor,
	))
}

func TestIngestStoresCompletionEvent(t *testing.T) {
	svc, events := setupService(t)
	ctx := context.Background()

	out, err := svc.Ingest(ctx, IngestInput{
		DeliveryID: "delivery-1",
		EventType:  "issue_comment",
		Payload:    commentPayload("acme/billing-service", 42, "agent[bot]", "Implementation complete, ready for review."),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	if out.ProjectName != "billing" {
		t.Fatalf("project = %q, want billing", out.ProjectName)
	}
	if out.IssueNumber == nil || *out.IssueNumber != 42 {
		t.Fatalf("issue = %v, want 42", out.IssueNumber)
	}
	if !out.Completion {
		t.Fatalf("expected completion classification")
	}

	stored, err := events.GetEvent(ctx, out.EventID)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if stored.Processed {
		t.Fatalf("new event must not be processed")
	}
	if !strings.Contains(stored.Payload, `"full_name":"acme/billing-service"`) {
		t.Fatalf("payload must be retained verbatim, got %s", stored.Payload)
	}

	batch, err := events.ListDispatchable(ctx, 10)
	if err != nil {
		t.Fatalf("ListDispatchable() error = %v", err)
	}
	if len(batch) != 1 || batch[0].EventID != out.EventID {
		t.Fatalf("dispatchable batch = %+v, want the stored event", batch)
	}
}

func TestIngestUnmappedRepoIsStoredButNeverDispatched(t *testing.T) {
	svc, events := setupService(t)
	ctx := context.Background()

	out, err := svc.Ingest(ctx, IngestInput{
		DeliveryID: "delivery-2",
		EventType:  "issue_comment",
		Payload:    commentPayload("acme/unmapped", 7, "agent[bot]", "implementation complete"),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if out.ProjectName != "" {
		t.Fatalf("project = %q, want empty for unmapped repo", out.ProjectName)
	}

	stored, err := events.GetEvent(ctx, out.EventID)
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if stored.ProjectName != nil {
		t.Fatalf("stored project = %v, want nil", stored.ProjectName)
	}

	batch, err := events.ListDispatchable(ctx, 10)
	if err != nil {
		t.Fatalf("ListDispatchable() error = %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("unmapped event must never be dispatchable, got %+v", batch)
	}
}

func TestIngestNonCompletionComment(t *testing.T) {
	svc, events := setupService(t)
	ctx := context.Background()

	out, err := svc.Ingest(ctx, IngestInput{
		EventType: "issue_comment",
		Payload:   commentPayload("acme/billing-service", 42, "human-dev", "implementation complete"),
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if out.Completion {
		t.Fatalf("human actor must not classify as completion")
	}
	if out.DeliveryID == "" {
		t.Fatalf("missing delivery id must be generated")
	}

	batch, err := events.ListDispatchable(ctx, 10)
	if err != nil {
		t.Fatalf("ListDispatchable() error = %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("non-completion event must not be dispatchable")
	}
}

func TestIngestPullRequestEvent(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	payload := []byte(`{"action":"opened","pull_request":{"number":12,"title":"Fix gateway","body":"ready for review"},"repository":{"full_name":"acme/billing-service"},"sender":{"login":"agent[bot]"}}`)
	out, err := svc.Ingest(ctx, IngestInput{
		EventType: "pull_request",
		Payload:   payload,
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if out.IssueNumber == nil || *out.IssueNumber != 12 {
		t.Fatalf("issue = %v, want 12", out.IssueNumber)
	}
	if !out.Completion {
		t.Fatalf("pull request opened by automation with keyword must classify as completion")
	}
}

func TestIngestRejectsEmptyInput(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, IngestInput{EventType: "", Payload: []byte(`{}`)}); err == nil {
		t.Fatalf("Ingest() expected error for empty event type")
	}
	if _, err := svc.Ingest(ctx, IngestInput{EventType: "issues"}); err == nil {
		t.Fatalf("Ingest() expected error for empty payload")
	}
	if _, err := svc.Ingest(ctx, IngestInput{EventType: "issues", Payload: []byte(`not json`)}); err == nil {
		t.Fatalf("Ingest() expected error for malformed payload")
	}
}

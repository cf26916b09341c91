package uow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"verigate/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "verigate/internal/infrastructure/persistence/sqlite/repository"
	"verigate/internal/ports"
)

func setupUow(t *testing.T) (*UnitOfWork, ports.EventRepository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.WebhookEvent{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewUnitOfWork(db), sqliterepo.NewEventRepository(db)
}

func insertEvent(ctx context.Context, events ports.EventRepository) (ports.WebhookEvent, error) {
	return events.CreateEvent(ctx, ports.WebhookEventCreate{
		EventID:    uuid.NewString(),
		DeliveryID: uuid.NewString(),
		EventType:  "issues",
		Actor:      "agent[bot]",
		Payload:    "{}",
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func TestWithTxCommits(t *testing.T) {
	u, events := setupUow(t)

	var created ports.WebhookEvent
	err := u.WithTx(context.Background(), func(ctx context.Context) error {
		var insertErr error
		created, insertErr = insertEvent(ctx, events)
		return insertErr
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	if _, err := events.GetEvent(context.Background(), created.EventID); err != nil {
		t.Fatalf("GetEvent() after commit error = %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	u, events := setupUow(t)

	boom := errors.New("boom")
	var created ports.WebhookEvent
	err := u.WithTx(context.Background(), func(ctx context.Context) error {
		var insertErr error
		created, insertErr = insertEvent(ctx, events)
		if insertErr != nil {
			return insertErr
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want %v", err, boom)
	}

	if _, err := events.GetEvent(context.Background(), created.EventID); err == nil {
		t.Fatal("GetEvent() after rollback should fail")
	}
}

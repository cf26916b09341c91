package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"verigate/internal/errs"
	"verigate/internal/infrastructure/persistence/sqlite/model"
	"verigate/internal/ports"
)

type EventRepository struct {
	db *gorm.DB
}

var _ ports.EventRepository = (*EventRepository)(nil)

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *EventRepository) CreateEvent(ctx context.Context, input ports.WebhookEventCreate) (ports.WebhookEvent, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.WebhookEvent{}, err
	}

	if strings.TrimSpace(input.EventID) == "" {
		return ports.WebhookEvent{}, errors.New("event id is required")
	}

	row := model.WebhookEvent{
		EventID:     input.EventID,
		DeliveryID:  input.DeliveryID,
		EventType:   input.EventType,
		ProjectName: input.ProjectName,
		IssueNumber: input.IssueNumber,
		Actor:       input.Actor,
		Completion:  input.Completion,
		Payload:     input.Payload,
		Processed:   false,
		CreatedAt:   input.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.WebhookEvent{}, errs.Wrap(err, "insert webhook event")
	}
	return mapEvent(row), nil
}

func (r *EventRepository) GetEvent(ctx context.Context, eventID string) (ports.WebhookEvent, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.WebhookEvent{}, err
	}

	var row model.WebhookEvent
	if err := db.Where("event_id = ?", eventID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.WebhookEvent{}, fmt.Errorf("webhook event %s not found", eventID)
		}
		return ports.WebhookEvent{}, errs.Wrap(err, "query webhook event")
	}
	return mapEvent(row), nil
}

func (r *EventRepository) ListDispatchable(ctx context.Context, limit int) ([]ports.WebhookEvent, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.WebhookEvent{}).
		Where("processed = ?", false).
		Where("completion = ?", true).
		Where("project_name IS NOT NULL").
		Where("issue_number IS NOT NULL").
		Order("created_at asc, event_id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.WebhookEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query dispatchable events")
	}

	items := make([]ports.WebhookEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEvent(row))
	}
	return items, nil
}

// MarkEventProcessed flips processed exactly once; an already processed row is
// left untouched so the transition never reverts or repeats.
func (r *EventRepository) MarkEventProcessed(ctx context.Context, eventID string, processedAt string, errorMessage *string) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"processed":     true,
		"processed_at":  processedAt,
		"error_message": errorMessage,
	}
	if err := db.Model(&model.WebhookEvent{}).
		Where("event_id = ? AND processed = ?", eventID, false).
		Updates(updates).Error; err != nil {
		return errs.Wrap(err, "mark event processed")
	}
	return nil
}

func (r *EventRepository) ListEvents(ctx context.Context, filter ports.WebhookEventFilter) ([]ports.WebhookEvent, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.WebhookEvent{})
	if name := strings.TrimSpace(filter.ProjectName); name != "" {
		query = query.Where("project_name = ?", name)
	}
	if filter.IssueNumber != nil {
		query = query.Where("issue_number = ?", *filter.IssueNumber)
	}
	if filter.OnlyPending {
		query = query.Where("processed = ?", false)
	}
	if filter.OnlyCompleted {
		query = query.Where("completion = ?", true)
	}
	query = query.Order("created_at desc, event_id desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.WebhookEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query webhook events")
	}

	items := make([]ports.WebhookEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEvent(row))
	}
	return items, nil
}

func mapEvent(row model.WebhookEvent) ports.WebhookEvent {
	return ports.WebhookEvent{
		EventID:      row.EventID,
		DeliveryID:   row.DeliveryID,
		EventType:    row.EventType,
		ProjectName:  row.ProjectName,
		IssueNumber:  row.IssueNumber,
		Actor:        row.Actor,
		Completion:   row.Completion,
		Payload:      row.Payload,
		Processed:    row.Processed,
		ErrorMessage: row.ErrorMessage,
		ProcessedAt:  row.ProcessedAt,
		CreatedAt:    row.CreatedAt,
	}
}

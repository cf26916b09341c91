package model

type WebhookEvent struct {
	EventID      string  `gorm:"column:event_id;type:text;primaryKey"`
	DeliveryID   string  `gorm:"column:delivery_id;type:text;not null;index"`
	EventType    string  `gorm:"column:event_type;type:text;not null"`
	ProjectName  *string `gorm:"column:project_name;type:text;index"`
	IssueNumber  *int64  `gorm:"column:issue_number;index"`
	Actor        string  `gorm:"column:actor;type:text;not null"`
	Completion   bool    `gorm:"column:completion;not null;default:0;index"`
	Payload      string  `gorm:"column:payload;type:text;not null"`
	Processed    bool    `gorm:"column:processed;not null;default:0;index"`
	ErrorMessage *string `gorm:"column:error_message;type:text"`
	ProcessedAt  *string `gorm:"column:processed_at;type:text"`
	CreatedAt    string  `gorm:"column:created_at;type:text;not null;index"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

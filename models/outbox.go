package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/utils"
	"gorm.io/gorm"
)

// LedgerEventRecord is the transactional outbox row for the ledger feed.
// It is written inside the committing transaction; publishing happens after
// commit via the outbox dispatcher.
type LedgerEventRecord struct {
	ID            int                 `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	OccurredAt    time.Time           `gorm:"index;not null" json:"occurred_at"`
	ReferenceId   int                 `json:"reference_id"`
	ReferenceType LedgerReferenceType `gorm:"size:4;not null;index" json:"reference_type"`
	Action        FeedAction          `gorm:"size:1;not null" json:"action"`
	Payload       []byte              `gorm:"type:blob" json:"payload"`
	IsProcessed   bool                `gorm:"index;not null" json:"is_processed"`
	// Publish metadata (publish happens after commit via dispatcher).
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	// Processing metadata (consumer side).
	LastProcessError *string    `gorm:"type:text" json:"last_process_error"`
	ProcessedAt      *time.Time `gorm:"index" json:"processed_at"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToLedgerFeedMessage(record LedgerEventRecord) config.LedgerFeedMessage {
	return config.LedgerFeedMessage{
		ID:            record.ID,
		OccurredAt:    record.OccurredAt,
		ReferenceId:   record.ReferenceId,
		ReferenceType: string(record.ReferenceType),
		Action:        string(record.Action),
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}

// PublishToLedgerFeed writes the event record inside the caller's DB
// transaction but does NOT publish to Pub/Sub; the dispatcher picks it up
// after commit.
func PublishToLedgerFeed(ctx context.Context, tx *gorm.DB, occurredAt time.Time, refId int, refType LedgerReferenceType, obj interface{}) error {
	payload, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	record := LedgerEventRecord{
		OccurredAt:    occurredAt,
		ReferenceId:   refId,
		ReferenceType: refType,
		Action:        FeedActionCreate,
		Payload:       payload,
		IsProcessed:   false,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

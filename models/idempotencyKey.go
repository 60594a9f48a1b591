package models

import "time"

// TransferIdempotencyKey provides durable, DB-backed idempotency for
// transfers. Unique constraint: (sender_id, idempotency_key). The recorded
// outcome lets a replayed request return the original result byte-for-byte.
type TransferIdempotencyKey struct {
	ID             int               `gorm:"primary_key" json:"id"`
	SenderId       string            `gorm:"size:64;not null;index:uniq_transfer_idem,unique" json:"sender_id"`
	IdempotencyKey string            `gorm:"size:255;not null;index:uniq_transfer_idem,unique" json:"idempotency_key"`
	Status         IdempotencyStatus `gorm:"size:20;not null;index" json:"status"`
	TransferId     *int              `json:"transfer_id"`
	NewBalance     *int64            `json:"new_balance"`
	LastError      *string           `gorm:"type:text" json:"last_error"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// FeedIdempotencyKey provides durable idempotency for ledger feed consumers.
// Unique constraint: (handler_name, message_id). At-least-once delivery from
// Pub/Sub is made safe by inserting the key in the handler's transaction.
type FeedIdempotencyKey struct {
	ID          int               `gorm:"primary_key" json:"id"`
	HandlerName string            `gorm:"size:100;not null;index:uniq_feed_idem,unique" json:"handler_name"`
	MessageId   string            `gorm:"size:255;not null;index:uniq_feed_idem,unique" json:"message_id"`
	Status      IdempotencyStatus `gorm:"size:20;not null;index" json:"status"`
	LastError   *string           `gorm:"type:text" json:"last_error"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

package workflow

import (
	"errors"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/taptapmatrix/tap_backend/models"
	"gorm.io/gorm"
)

var ErrIdempotencyInProgress = errors.New("idempotency in progress")

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// BeginTransferIdempotency inserts STARTED for (sender, key). If a SUCCEEDED
// row exists, it returns (prior, nil) meaning "replay the recorded outcome".
func BeginTransferIdempotency(tx *gorm.DB, senderId, key string) (prior *models.TransferIdempotencyKey, err error) {
	row := models.TransferIdempotencyKey{
		SenderId:       senderId,
		IdempotencyKey: key,
		Status:         models.IdempotencyStatusStarted,
	}
	if err := tx.Create(&row).Error; err == nil {
		return nil, nil
	} else if !isDuplicateKeyErr(err) {
		return nil, err
	}

	var existing models.TransferIdempotencyKey
	if err := tx.Where("sender_id = ? AND idempotency_key = ?", senderId, key).
		First(&existing).Error; err != nil {
		return nil, err
	}

	switch existing.Status {
	case models.IdempotencyStatusSucceeded:
		return &existing, nil
	case models.IdempotencyStatusStarted:
		// If another request is currently executing, surface a retriable
		// conflict. If it's stale, reuse the row (set STARTED again).
		if time.Since(existing.UpdatedAt) < 5*time.Minute {
			return nil, ErrIdempotencyInProgress
		}
		return nil, tx.Model(&models.TransferIdempotencyKey{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{"status": models.IdempotencyStatusStarted, "last_error": nil}).Error
	default:
		return nil, tx.Model(&models.TransferIdempotencyKey{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{"status": models.IdempotencyStatusStarted, "last_error": nil}).Error
	}
}

// MarkTransferIdempotencySucceeded records the outcome in the same
// transaction as the transfer effects, so a crash between them cannot
// produce a duplicate-accepting retry.
func MarkTransferIdempotencySucceeded(tx *gorm.DB, senderId, key string, transferId int, newBalance int64) error {
	return tx.Model(&models.TransferIdempotencyKey{}).
		Where("sender_id = ? AND idempotency_key = ?", senderId, key).
		Updates(map[string]interface{}{
			"status":      models.IdempotencyStatusSucceeded,
			"transfer_id": transferId,
			"new_balance": newBalance,
			"last_error":  nil,
		}).Error
}

// BeginFeedIdempotency inserts STARTED. If SUCCEEDED exists, returns
// (true, nil) meaning "skip safely".
func BeginFeedIdempotency(tx *gorm.DB, handlerName, messageId string) (skip bool, err error) {
	key := models.FeedIdempotencyKey{
		HandlerName: handlerName,
		MessageId:   messageId,
		Status:      models.IdempotencyStatusStarted,
	}
	if err := tx.Create(&key).Error; err == nil {
		return false, nil
	} else if !isDuplicateKeyErr(err) {
		return false, err
	}

	var existing models.FeedIdempotencyKey
	if err := tx.Where("handler_name = ? AND message_id = ?", handlerName, messageId).
		First(&existing).Error; err != nil {
		return false, err
	}

	switch existing.Status {
	case models.IdempotencyStatusSucceeded:
		return true, nil
	case models.IdempotencyStatusStarted:
		// If another worker is currently processing, ask Pub/Sub to retry.
		if time.Since(existing.UpdatedAt) < 5*time.Minute {
			return false, ErrIdempotencyInProgress
		}
		return false, tx.Model(&models.FeedIdempotencyKey{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{"status": models.IdempotencyStatusStarted, "last_error": nil}).Error
	default:
		return false, tx.Model(&models.FeedIdempotencyKey{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{"status": models.IdempotencyStatusStarted, "last_error": nil}).Error
	}
}

func MarkFeedIdempotencySucceeded(tx *gorm.DB, handlerName, messageId string) error {
	return tx.Model(&models.FeedIdempotencyKey{}).
		Where("handler_name = ? AND message_id = ?", handlerName, messageId).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusSucceeded, "last_error": nil}).Error
}

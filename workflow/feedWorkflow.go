package workflow

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/models"
	"gorm.io/gorm"
)

const dailySummaryHandlerName = "daily-summary"

// ProcessLedgerFeedMessage folds one ledger feed message into the daily
// summary projection. Safe to call more than once for the same message:
// the feed idempotency key makes redelivery a no-op.
func ProcessLedgerFeedMessage(ctx context.Context, db *gorm.DB, logger *logrus.Logger, msg config.LedgerFeedMessage) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skip, err := BeginFeedIdempotency(tx, dailySummaryHandlerName, feedMessageId(msg))
		if err != nil {
			return err
		}
		if skip {
			return nil
		}

		day := models.SummaryDay(msg.OccurredAt)
		switch models.LedgerReferenceType(msg.ReferenceType) {
		case models.LedgerReferenceTypeTransfer:
			var transfer models.Transfer
			if err := json.Unmarshal(msg.Payload, &transfer); err != nil {
				return err
			}
			if err := models.AccumulateDailySummary(tx, day, 1,
				decimal.NewFromInt(transfer.GrossAmount),
				decimal.NewFromInt(transfer.BurnAmount),
				decimal.NewFromInt(transfer.ReserveAmount),
				decimal.Zero); err != nil {
				return err
			}
		case models.LedgerReferenceTypeVestingRelease:
			var release models.VestingRelease
			if err := json.Unmarshal(msg.Payload, &release); err != nil {
				return err
			}
			if err := models.AccumulateDailySummary(tx, day, 0,
				decimal.Zero, decimal.Zero, decimal.Zero,
				decimal.NewFromInt(release.Amount)); err != nil {
				return err
			}
		default:
			// Treasury and withdrawal events are not part of the daily
			// summary; acknowledge them so they are not redelivered.
		}

		if msg.ID > 0 {
			now := time.Now().UTC()
			if err := tx.Model(&models.LedgerEventRecord{}).
				Where("id = ?", msg.ID).
				Updates(map[string]interface{}{
					"is_processed": true,
					"processed_at": &now,
				}).Error; err != nil {
				return err
			}
		}

		return MarkFeedIdempotencySucceeded(tx, dailySummaryHandlerName, feedMessageId(msg))
	})
	if err != nil {
		config.LogError(logger, "workflow", "ProcessLedgerFeedMessage", feedMessageId(msg), msg, err)
		markFeedProcessFailed(ctx, db, msg, err)
	}
	return err
}

func feedMessageId(msg config.LedgerFeedMessage) string {
	return msg.ReferenceType + ":" + strconv.Itoa(msg.ID)
}

func markFeedProcessFailed(ctx context.Context, db *gorm.DB, msg config.LedgerFeedMessage, cause error) {
	if msg.ID <= 0 {
		return
	}
	text := cause.Error()
	_ = db.WithContext(ctx).Model(&models.LedgerEventRecord{}).
		Where("id = ?", msg.ID).
		Update("last_process_error", &text).Error
}

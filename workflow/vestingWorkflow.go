package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/models"
	"github.com/taptapmatrix/tap_backend/utils"
	"gorm.io/gorm"
)

type ClaimResult struct {
	ScheduleId         int   `json:"schedule_id"`
	Amount             int64 `json:"amount"`
	ClaimedAmount      int64 `json:"claimed_amount"`
	RemainingClaimable int64 `json:"remaining_claimable"`
	ReleaseId          int   `json:"release_id"`
}

// ClaimVesting releases the claimable portion of a schedule: the schedule's
// claimed amount, the release record and the beneficiary's ledger credit are
// committed as one durable unit.
//
// requested nil means "claim everything claimable"; otherwise the actual
// claim is min(requested, claimable).
func ClaimVesting(ctx context.Context, db *gorm.DB, logger *logrus.Logger, scheduleId int, requested *int64, automatic bool, now time.Time) (*ClaimResult, error) {
	if requested != nil && *requested <= 0 {
		return nil, models.ErrInvalidAmount
	}

	var result ClaimResult
	// Lock on the pinned connection, not the transaction, so concurrent
	// claims on the same schedule fully serialize across the commit.
	err := db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := AcquireScheduleLock(conn, scheduleId); err != nil {
			return err
		}
		defer ReleaseScheduleLock(conn, scheduleId)

		return conn.Transaction(func(tx *gorm.DB) error {
			return claimVestingTx(ctx, tx, scheduleId, requested, automatic, now, &result)
		})
	})
	if err != nil {
		config.LogError(logger, "vestingWorkflow.go", "ClaimVesting", "transaction", scheduleId, err)
		return nil, err
	}
	return &result, nil
}

func claimVestingTx(ctx context.Context, tx *gorm.DB, scheduleId int, requested *int64, automatic bool, now time.Time, result *ClaimResult) error {
	var schedule models.VestingSchedule
	if err := tx.Where("id = ?", scheduleId).Take(&schedule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		}
		return err
	}

	if schedule.IsRevoked {
		return models.ErrScheduleRevoked
	}

	comp := schedule.ComputeVested(now)
	if err := comp.ClaimableErr(); err != nil {
		return err
	}

	amount := comp.Claimable
	if requested != nil && *requested < amount {
		amount = *requested
	}

	release := models.VestingRelease{
		ScheduleId:  schedule.ID,
		Amount:      amount,
		IsAutomatic: automatic,
	}
	if err := tx.Create(&release).Error; err != nil {
		return err
	}

	if err := tx.Model(&models.VestingSchedule{}).
		Where("id = ?", schedule.ID).
		Update("claimed_amount", gorm.Expr("claimed_amount + ?", amount)).Error; err != nil {
		return err
	}

	if _, err := models.AppendEntry(tx, schedule.UserId, amount, models.LedgerReasonVestingClaim, models.LedgerReferenceTypeVestingRelease, release.ID, nil); err != nil {
		return err
	}

	*result = ClaimResult{
		ScheduleId:         schedule.ID,
		Amount:             amount,
		ClaimedAmount:      schedule.ClaimedAmount + amount,
		RemainingClaimable: comp.Claimable - amount,
		ReleaseId:          release.ID,
	}

	return models.PublishToLedgerFeed(ctx, tx, release.ReleasedAt, release.ID, models.LedgerReferenceTypeVestingRelease, release)
}

// RevokeVestingSchedule stops all future claims. Already-released amounts
// stay in the beneficiary's ledger.
func RevokeVestingSchedule(ctx context.Context, db *gorm.DB, scheduleId int) error {
	res := db.WithContext(ctx).Model(&models.VestingSchedule{}).
		Where("id = ? AND is_revoked = false", scheduleId).
		Update("is_revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// AutoReleaseDueSchedules claims everything claimable across active
// schedules, marking the releases automatic. Used by the cron runner.
func AutoReleaseDueSchedules(ctx context.Context, db *gorm.DB, logger *logrus.Logger, now time.Time) (released int, err error) {
	var schedules []models.VestingSchedule
	if err := db.WithContext(ctx).
		Where("is_revoked = false AND claimed_amount < total_amount AND start_date <= ?", now).
		Find(&schedules).Error; err != nil {
		return 0, err
	}

	for _, schedule := range schedules {
		comp := schedule.ComputeVested(now)
		if comp.Claimable == 0 {
			continue
		}
		if _, err := ClaimVesting(ctx, db, logger, schedule.ID, nil, true, now); err != nil {
			// NothingClaimable can race with a manual claim; skip quietly.
			if errors.Is(err, models.ErrNothingClaimable) {
				continue
			}
			config.LogError(logger, "vestingWorkflow.go", "AutoReleaseDueSchedules", "ClaimVesting", schedule.ID, err)
			continue
		}
		released++
	}
	return released, nil
}

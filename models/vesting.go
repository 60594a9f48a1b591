package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// VestingSchedule is a time-locked grant. Only claim operations and
// revocation ever mutate it; schedules are never deleted.
type VestingSchedule struct {
	ID            int        `gorm:"primary_key" json:"id"`
	UserId        string     `gorm:"size:64;not null;index" json:"user_id"`
	TotalAmount   int64      `gorm:"not null" json:"total_amount"`
	ClaimedAmount int64      `gorm:"not null;default:0" json:"claimed_amount"`
	StartDate     time.Time  `gorm:"not null" json:"start_date"`
	CliffDate     *time.Time `json:"cliff_date"`
	EndDate       time.Time  `gorm:"not null" json:"end_date"`
	IsRevoked     bool       `gorm:"not null;default:false" json:"is_revoked"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// VestingRelease is an immutable record of one claim against a schedule.
// The sum of a schedule's releases equals its claimed amount.
type VestingRelease struct {
	ID          int       `gorm:"primary_key" json:"id"`
	ScheduleId  int       `gorm:"not null;index" json:"schedule_id"`
	Amount      int64     `gorm:"not null" json:"amount"`
	IsAutomatic bool      `gorm:"not null;default:false" json:"is_automatic"`
	ReleasedAt  time.Time `gorm:"autoCreateTime" json:"released_at"`
}

type VestingComputation struct {
	Status    VestingStatus `json:"status"`
	Vested    int64         `json:"vested"`
	Claimable int64         `json:"claimable"`
}

// ComputeVested evaluates a schedule at the given instant.
//
// Linear interpolation runs from the cliff date (or start date when no
// cliff) to the end date, truncated toward zero. Claimable never goes
// negative even if the claimed amount already covers everything vested.
func (s VestingSchedule) ComputeVested(now time.Time) VestingComputation {
	var status VestingStatus
	var vested int64

	switch {
	case now.Before(s.StartDate):
		status = VestingStatusNotStarted
		vested = 0
	case s.CliffDate != nil && now.Before(*s.CliffDate):
		status = VestingStatusCliffPeriod
		vested = 0
	case !now.Before(s.EndDate):
		status = VestingStatusFullyVested
		vested = s.TotalAmount
	default:
		status = VestingStatusVesting
		vestingStart := s.StartDate
		if s.CliffDate != nil {
			vestingStart = *s.CliffDate
		}
		elapsedSec := int64(now.Sub(vestingStart) / time.Second)
		windowSec := int64(s.EndDate.Sub(vestingStart) / time.Second)
		if windowSec <= 0 {
			// Degenerate (sub-second) window; everything vests at once.
			vested = s.TotalAmount
		} else {
			// floor(total_amount * elapsed / window), truncated toward zero.
			vested = decimal.NewFromInt(s.TotalAmount).
				Mul(decimal.NewFromInt(elapsedSec)).
				Div(decimal.NewFromInt(windowSec)).
				Floor().
				IntPart()
			if vested > s.TotalAmount {
				vested = s.TotalAmount
			}
			if vested < 0 {
				vested = 0
			}
		}
	}

	claimable := vested - s.ClaimedAmount
	if claimable < 0 {
		claimable = 0
	}

	return VestingComputation{
		Status:    status,
		Vested:    vested,
		Claimable: claimable,
	}
}

// ClaimableErr reports why nothing can be claimed right now, or nil when a
// claim can proceed. A schedule that is mid-vesting but fully caught up on
// claims gets ErrNothingClaimable; before the start or cliff the caller
// learns which gate is still closed.
func (c VestingComputation) ClaimableErr() error {
	switch c.Status {
	case VestingStatusNotStarted:
		return ErrNotStarted
	case VestingStatusCliffPeriod:
		return ErrCliffPeriod
	}
	if c.Claimable == 0 {
		return ErrNothingClaimable
	}
	return nil
}

package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireSenderLock serializes balance-check-then-debit per sender across
// instances using MySQL advisory locks. Two concurrent transfers from the
// same sender must not both pass the balance check before either commits.
// NOTE: GET_LOCK is connection-scoped. Acquire and release on a pinned
// connection (gorm's Connection) that wraps the posting transaction, never
// inside the transaction itself: releasing before COMMIT lets the next
// holder read a stale balance.
func AcquireSenderLock(conn *gorm.DB, senderId string) error {
	lockName := fmt.Sprintf("tap-transfer:%s", senderId)
	var ok int
	if err := conn.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire transfer lock for sender=%s", senderId)
	}
	return nil
}

func ReleaseSenderLock(conn *gorm.DB, senderId string) {
	lockName := fmt.Sprintf("tap-transfer:%s", senderId)
	var _ok int
	_ = conn.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// AcquireScheduleLock serializes claims against one vesting schedule; the
// same pinned-connection contract as AcquireSenderLock applies.
func AcquireScheduleLock(conn *gorm.DB, scheduleId int) error {
	lockName := fmt.Sprintf("tap-vesting:%d", scheduleId)
	var ok int
	if err := conn.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire vesting lock for schedule=%d", scheduleId)
	}
	return nil
}

func ReleaseScheduleLock(conn *gorm.DB, scheduleId int) {
	lockName := fmt.Sprintf("tap-vesting:%d", scheduleId)
	var _ok int
	_ = conn.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

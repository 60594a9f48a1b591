package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// System accounts. Tax proceeds are booked against these so the ledger-wide
// sum stays conserved while the value is out of user circulation.
const (
	SystemBurnUserId    = "sys:burn"
	SystemReserveUserId = "sys:reserve"
)

// LedgerEntry is an immutable, append-only record. A user's balance is
// always the signed sum of their entries; entries are never updated or
// deleted (they are the audit trail).
type LedgerEntry struct {
	ID            int                 `gorm:"primary_key" json:"id"`
	UserId        string              `gorm:"size:64;not null;index;index:idx_le_user_created,priority:1" json:"user_id"`
	Amount        int64               `gorm:"not null" json:"amount"`
	Reason        LedgerReason        `gorm:"size:30;not null;index" json:"reason"`
	ReferenceType LedgerReferenceType `gorm:"size:4" json:"reference_type"`
	ReferenceId   int                 `gorm:"index" json:"reference_id"`
	WalletId      *string             `gorm:"size:128" json:"wallet_id"`
	CreatedAt     time.Time           `gorm:"autoCreateTime;index:idx_le_user_created,priority:2" json:"created_at"`
}

// GetBalance returns the derived balance for a user: the sum of all their
// ledger entries. A user with no entries has balance 0.
func GetBalance(ctx context.Context, db *gorm.DB, userId string) (int64, error) {
	var balance int64
	err := db.WithContext(ctx).
		Model(&LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userId).
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// AppendEntry inserts one immutable ledger entry. It must only be called
// inside the caller's transaction, paired with the balancing entries of the
// same operation; a lone debit or credit must never be committed.
func AppendEntry(tx *gorm.DB, userId string, amount int64, reason LedgerReason, refType LedgerReferenceType, refId int, walletId *string) (*LedgerEntry, error) {
	entry := LedgerEntry{
		UserId:        userId,
		Amount:        amount,
		Reason:        reason,
		ReferenceType: refType,
		ReferenceId:   refId,
		WalletId:      walletId,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// DebitsInTrailing24h sums the magnitudes of all debits a user made in the
// rolling 24-hour window ending at now (wall clock, not calendar day).
func DebitsInTrailing24h(tx *gorm.DB, userId string, now time.Time) (int64, error) {
	var total int64
	err := tx.
		Model(&LedgerEntry{}).
		Select("COALESCE(SUM(-amount), 0)").
		Where("user_id = ? AND amount < 0 AND created_at > ?", userId, now.Add(-24*time.Hour)).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ListEntriesForUser returns a user's entries, newest first, for statements.
func ListEntriesForUser(ctx context.Context, db *gorm.DB, userId string, limit int, offset int) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	q := db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at DESC, id DESC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListEntriesForUserBetween returns one user's entries in [from, to),
// oldest first. Used by the statement export.
func ListEntriesForUserBetween(ctx context.Context, db *gorm.DB, userId string, from, to time.Time) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	err := db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userId, from, to).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

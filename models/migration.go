package models

import (
	"log"

	"github.com/taptapmatrix/tap_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&LedgerEntry{}, &Transfer{}, &Withdrawal{},
		&VestingSchedule{}, &VestingRelease{},
		&TreasuryWallet{}, &TreasurySigner{}, &TreasuryTransaction{}, &TreasuryTransactionSignature{},
		&TransferIdempotencyKey{},
		&LedgerEventRecord{},
		&DailySummary{},
		&FeedIdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}

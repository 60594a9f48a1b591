package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailySummary is a small, query-friendly aggregate table used by dashboards.
//
// Grain: summary_date (UTC midnight). Values are stored as positive numbers.
//
// NOTE: This table is derived data and can be rebuilt from the ledger
// (cmd/backfill-daily-summary).
type DailySummary struct {
	SummaryDate time.Time `gorm:"primaryKey" json:"summary_date"`

	TransferCount int64           `gorm:"not null;default:0" json:"transfer_count"`
	GrossVolume   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gross_volume"`
	BurnTotal     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"burn_total"`
	ReserveTotal  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reserve_total"`
	ClaimTotal    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"claim_total"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SummaryDay truncates an instant to its UTC day bucket.
func SummaryDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AccumulateDailySummary upserts one day's aggregates with transactional
// increments, so concurrent consumers never lose updates.
func AccumulateDailySummary(tx *gorm.DB, day time.Time, transfers int64, gross, burn, reserve, claim decimal.Decimal) error {
	row := DailySummary{
		SummaryDate:   day,
		TransferCount: transfers,
		GrossVolume:   gross,
		BurnTotal:     burn,
		ReserveTotal:  reserve,
		ClaimTotal:    claim,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "summary_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"transfer_count": gorm.Expr("transfer_count + ?", transfers),
			"gross_volume":   gorm.Expr("gross_volume + ?", gross),
			"burn_total":     gorm.Expr("burn_total + ?", burn),
			"reserve_total":  gorm.Expr("reserve_total + ?", reserve),
			"claim_total":    gorm.Expr("claim_total + ?", claim),
		}),
	}).Create(&row).Error
}

// backfill-daily-summary rebuilds daily_summaries from the durable rows
// (transfers and vesting_releases). The projection is derived data, so the
// rebuild simply recomputes each day bucket and replaces the row.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     go run ./cmd/backfill-daily-summary -from 2026-01-01 -to 2026-02-01
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/taptapmatrix/tap_backend/config"
	"github.com/taptapmatrix/tap_backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transferDayRow struct {
	Day          time.Time `gorm:"column:day"`
	Transfers    int64     `gorm:"column:transfers"`
	GrossVolume  int64     `gorm:"column:gross_volume"`
	BurnTotal    int64     `gorm:"column:burn_total"`
	ReserveTotal int64     `gorm:"column:reserve_total"`
}

type claimDayRow struct {
	Day        time.Time `gorm:"column:day"`
	ClaimTotal int64     `gorm:"column:claim_total"`
}

func main() {
	from := flag.String("from", "", "Start date (YYYY-MM-DD, inclusive). Required.")
	to := flag.String("to", "", "End date (YYYY-MM-DD, exclusive). Defaults to tomorrow UTC.")
	flag.Parse()

	fromDay, err := time.Parse("2006-01-02", *from)
	if err != nil {
		fmt.Fprintln(os.Stderr, "-from is required (YYYY-MM-DD)")
		os.Exit(1)
	}
	toDay := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	if *to != "" {
		toDay, err = time.Parse("2006-01-02", *to)
		if err != nil {
			fmt.Fprintln(os.Stderr, "-to must be YYYY-MM-DD")
			os.Exit(1)
		}
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	// Ensure schema is up-to-date (creates daily_summaries if missing).
	models.MigrateTable()

	var transferRows []transferDayRow
	if err := db.WithContext(ctx).Raw(`
		SELECT DATE(created_at) AS day,
		       COUNT(*)           AS transfers,
		       SUM(gross_amount)  AS gross_volume,
		       SUM(burn_amount)   AS burn_total,
		       SUM(reserve_amount) AS reserve_total
		FROM transfers
		WHERE created_at >= ? AND created_at < ?
		GROUP BY DATE(created_at)
	`, fromDay, toDay).Scan(&transferRows).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to aggregate transfers: %v\n", err)
		os.Exit(1)
	}

	var claimRows []claimDayRow
	if err := db.WithContext(ctx).Raw(`
		SELECT DATE(released_at) AS day,
		       SUM(amount)       AS claim_total
		FROM vesting_releases
		WHERE released_at >= ? AND released_at < ?
		GROUP BY DATE(released_at)
	`, fromDay, toDay).Scan(&claimRows).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to aggregate vesting releases: %v\n", err)
		os.Exit(1)
	}

	summaries := map[time.Time]*models.DailySummary{}
	dayFor := func(t time.Time) *models.DailySummary {
		day := models.SummaryDay(t)
		if s, ok := summaries[day]; ok {
			return s
		}
		s := &models.DailySummary{SummaryDate: day}
		summaries[day] = s
		return s
	}
	for _, r := range transferRows {
		s := dayFor(r.Day)
		s.TransferCount = r.Transfers
		s.GrossVolume = decimal.NewFromInt(r.GrossVolume)
		s.BurnTotal = decimal.NewFromInt(r.BurnTotal)
		s.ReserveTotal = decimal.NewFromInt(r.ReserveTotal)
	}
	for _, r := range claimRows {
		dayFor(r.Day).ClaimTotal = decimal.NewFromInt(r.ClaimTotal)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Remove any rows for days that no longer have activity, then replace.
		if err := tx.Where("summary_date >= ? AND summary_date < ?", fromDay, toDay).
			Delete(&models.DailySummary{}).Error; err != nil {
			return err
		}
		for _, s := range summaries {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "summary_date"}},
				UpdateAll: true,
			}).Create(s).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write summaries: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Backfilled %d day(s) between %s and %s\n", len(summaries), fromDay.Format("2006-01-02"), toDay.Format("2006-01-02"))
}

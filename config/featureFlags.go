package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// TaxWaiverActive reports whether the promotional 0%-tax window is open.
// Commerce transfers inside the window pass the full gross amount to the receiver.
//
// Set via env:
// - TAP_TAX_WAIVER_UNTIL=2026-12-31T23:59:59Z (RFC3339)
func TaxWaiverActive(now time.Time) bool {
	raw := strings.TrimSpace(os.Getenv("TAP_TAX_WAIVER_UNTIL"))
	if raw == "" {
		return false
	}
	until, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false
	}
	return now.Before(until)
}

// DailyTransferCap is the maximum total TAP a sender may debit in any
// trailing 24-hour window.
//
// Set via env:
// - TAP_DAILY_TRANSFER_CAP=100000
func DailyTransferCap() int64 {
	raw := strings.TrimSpace(os.Getenv("TAP_DAILY_TRANSFER_CAP"))
	if raw == "" {
		return 100000
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 100000
	}
	return n
}

// StrictWithdrawalGating restricts personal withdrawals to the user's
// on-file wallet address.
//
// Set via env:
// - TAP_STRICT_WITHDRAWALS=true
func StrictWithdrawalGating() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("TAP_STRICT_WITHDRAWALS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

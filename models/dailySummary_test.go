package models

import (
	"testing"
	"time"
)

func TestSummaryDay_TruncatesToUTCDay(t *testing.T) {
	yangon := time.FixedZone("MMT", 6*3600+1800)
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 3, 5, 23, 59, 59, 999999999, time.UTC), time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		// 01:00 local on Mar 6 in UTC+6:30 is still Mar 5 in UTC.
		{time.Date(2026, 3, 6, 1, 0, 0, 0, yangon), time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		if got := SummaryDay(c.in); !got.Equal(c.want) {
			t.Fatalf("SummaryDay(%s): expected %s, got %s", c.in, c.want, got)
		}
	}
}

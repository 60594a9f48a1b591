package workflow

import (
	"testing"
	"time"
)

func TestBackoffForAttempt(t *testing.T) {
	initial := 5 * time.Second
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{5, 80 * time.Second},
		{8, 10 * time.Minute},  // capped
		{50, 10 * time.Minute}, // stays capped, no overflow
	}
	for _, c := range cases {
		if got := BackoffForAttempt(initial, c.attempt); got != c.want {
			t.Fatalf("attempt=%d expected %s, got %s", c.attempt, c.want, got)
		}
	}
}

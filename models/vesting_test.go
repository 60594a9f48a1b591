package models

import (
	"errors"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestComputeVested_Statuses(t *testing.T) {
	cliff := day(30)
	s := VestingSchedule{
		TotalAmount: 1000,
		StartDate:   day(0),
		CliffDate:   &cliff,
		EndDate:     day(130),
	}

	if got := s.ComputeVested(day(-1)); got.Status != VestingStatusNotStarted || got.Vested != 0 {
		t.Fatalf("before start: got %+v", got)
	}
	if got := s.ComputeVested(day(10)); got.Status != VestingStatusCliffPeriod || got.Vested != 0 {
		t.Fatalf("inside cliff: got %+v", got)
	}
	if got := s.ComputeVested(day(60)); got.Status != VestingStatusVesting {
		t.Fatalf("mid window: got %+v", got)
	}
	if got := s.ComputeVested(day(130)); got.Status != VestingStatusFullyVested || got.Vested != 1000 {
		t.Fatalf("at end: got %+v", got)
	}
	if got := s.ComputeVested(day(500)); got.Status != VestingStatusFullyVested || got.Vested != 1000 {
		t.Fatalf("long after end: got %+v", got)
	}
}

func TestComputeVested_LinearMidpoint(t *testing.T) {
	s := VestingSchedule{
		TotalAmount: 1000,
		StartDate:   day(0),
		EndDate:     day(100),
	}
	got := s.ComputeVested(day(50))
	if got.Status != VestingStatusVesting {
		t.Fatalf("expected vesting status, got %s", got.Status)
	}
	if got.Vested != 500 {
		t.Fatalf("midpoint of 1000 over 100 days: expected 500, got %d", got.Vested)
	}
}

func TestComputeVested_CliffShiftsInterpolationStart(t *testing.T) {
	cliff := day(50)
	s := VestingSchedule{
		TotalAmount: 1000,
		StartDate:   day(0),
		CliffDate:   &cliff,
		EndDate:     day(150),
	}
	// 25 days into a 100-day post-cliff window.
	got := s.ComputeVested(day(75))
	if got.Vested != 250 {
		t.Fatalf("expected 250 vested 25d past cliff, got %d", got.Vested)
	}
}

// Vested amounts never decrease over time and always stay within
// [0, total].
func TestComputeVested_Property_MonotoneAndBounded(t *testing.T) {
	cliff := day(17)
	s := VestingSchedule{
		TotalAmount: 997, // prime, exercises flooring
		StartDate:   day(0),
		CliffDate:   &cliff,
		EndDate:     day(91),
	}

	prev := int64(-1)
	for h := -24; h <= 24*100; h++ {
		now := day(0).Add(time.Duration(h) * time.Hour)
		got := s.ComputeVested(now)
		if got.Vested < 0 || got.Vested > s.TotalAmount {
			t.Fatalf("at %s vested %d out of bounds", now, got.Vested)
		}
		if got.Vested < prev {
			t.Fatalf("at %s vested decreased from %d to %d", now, prev, got.Vested)
		}
		prev = got.Vested
	}
	if prev != s.TotalAmount {
		t.Fatalf("expected full amount vested at the end, got %d", prev)
	}
}

func TestComputeVested_ClaimableNeverNegative(t *testing.T) {
	s := VestingSchedule{
		TotalAmount:   1000,
		ClaimedAmount: 600,
		StartDate:     day(0),
		EndDate:       day(100),
	}
	// 500 vested at the midpoint but 600 already claimed.
	got := s.ComputeVested(day(50))
	if got.Claimable != 0 {
		t.Fatalf("expected claimable 0 when claimed exceeds vested, got %d", got.Claimable)
	}

	got = s.ComputeVested(day(100))
	if got.Claimable != 400 {
		t.Fatalf("expected 400 claimable when fully vested, got %d", got.Claimable)
	}
}

// Each blocked claim reports its own gate: before the start, inside the
// cliff, and caught-up mid-vesting are three different errors.
func TestClaimableErr_DistinguishesGates(t *testing.T) {
	cliff := day(30)
	s := VestingSchedule{
		TotalAmount: 1000,
		StartDate:   day(0),
		CliffDate:   &cliff,
		EndDate:     day(130),
	}

	if err := s.ComputeVested(day(-1)).ClaimableErr(); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("before start: expected ErrNotStarted, got %v", err)
	}
	if err := s.ComputeVested(day(10)).ClaimableErr(); !errors.Is(err, ErrCliffPeriod) {
		t.Fatalf("inside cliff: expected ErrCliffPeriod, got %v", err)
	}
	if err := s.ComputeVested(day(80)).ClaimableErr(); err != nil {
		t.Fatalf("mid-vesting with claimable: expected nil, got %v", err)
	}

	caughtUp := s
	caughtUp.ClaimedAmount = 1000
	if err := caughtUp.ComputeVested(day(80)).ClaimableErr(); !errors.Is(err, ErrNothingClaimable) {
		t.Fatalf("caught up mid-vesting: expected ErrNothingClaimable, got %v", err)
	}
	if err := caughtUp.ComputeVested(day(200)).ClaimableErr(); !errors.Is(err, ErrNothingClaimable) {
		t.Fatalf("fully vested and claimed: expected ErrNothingClaimable, got %v", err)
	}
}

func TestComputeVested_DegenerateWindowVestsAtOnce(t *testing.T) {
	s := VestingSchedule{
		TotalAmount: 1000,
		StartDate:   day(0),
		EndDate:     day(0).Add(time.Millisecond),
	}
	got := s.ComputeVested(day(0).Add(time.Microsecond))
	if got.Vested != 1000 {
		t.Fatalf("sub-second window should vest everything, got %d", got.Vested)
	}
}

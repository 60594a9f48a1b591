package workflow

import (
	"errors"
	"testing"

	"github.com/taptapmatrix/tap_backend/models"
)

func TestComputeTax_CommerceSplit(t *testing.T) {
	got, err := ComputeTax(1000, models.TransferCategoryCommerce, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Burn != 30 || got.Reserve != 60 || got.ReceiverAmount != 910 {
		t.Fatalf("expected 30/60/910, got %d/%d/%d", got.Burn, got.Reserve, got.ReceiverAmount)
	}
	if got.PercentageApplied != 9 {
		t.Fatalf("expected 9 percent applied, got %d", got.PercentageApplied)
	}
	if got.Waived {
		t.Fatal("commerce transfer without waiver must not be marked waived")
	}
}

func TestComputeTax_SocialIsNeverTaxed(t *testing.T) {
	got, err := ComputeTax(50, models.TransferCategorySocial, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Burn != 0 || got.Reserve != 0 || got.ReceiverAmount != 50 {
		t.Fatalf("expected 0/0/50, got %d/%d/%d", got.Burn, got.Reserve, got.ReceiverAmount)
	}

	// Social stays untaxed during a waiver window too, and is not reported as waived.
	got, err = ComputeTax(50, models.TransferCategorySocial, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ReceiverAmount != 50 || got.Waived {
		t.Fatalf("social during waiver: expected full 50 and waived=false, got %d waived=%v", got.ReceiverAmount, got.Waived)
	}
}

func TestComputeTax_WaivedCommerce(t *testing.T) {
	got, err := ComputeTax(1000, models.TransferCategoryCommerce, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Burn != 0 || got.Reserve != 0 || got.ReceiverAmount != 1000 {
		t.Fatalf("expected full gross under waiver, got %d/%d/%d", got.Burn, got.Reserve, got.ReceiverAmount)
	}
	if !got.Waived {
		t.Fatal("waived commerce transfer must be marked waived")
	}
}

// Remainder from integer flooring goes to the receiver, so the three parts
// always reconstruct the gross exactly.
func TestComputeTax_Property_SplitConserved(t *testing.T) {
	amounts := []int64{1, 2, 3, 33, 99, 100, 101, 999, 1000, 1001, 12345, 999999999}
	for _, gross := range amounts {
		got, err := ComputeTax(gross, models.TransferCategoryCommerce, false)
		if err != nil {
			t.Fatalf("gross=%d unexpected error: %v", gross, err)
		}
		if got.Burn+got.Reserve+got.ReceiverAmount != gross {
			t.Fatalf("gross=%d split not conserved: %d+%d+%d", gross, got.Burn, got.Reserve, got.ReceiverAmount)
		}
		if got.Burn != gross*3/100 || got.Reserve != gross*6/100 {
			t.Fatalf("gross=%d wrong floors: burn=%d reserve=%d", gross, got.Burn, got.Reserve)
		}
		if got.ReceiverAmount < gross-got.Burn-got.Reserve {
			t.Fatalf("gross=%d rounding must favor the receiver", gross)
		}
	}
}

func TestComputeTax_SmallAmountsFloorToZero(t *testing.T) {
	// Below 34 the 3% burn floors to 0; below 17 the 6% reserve floors to 0.
	got, err := ComputeTax(10, models.TransferCategoryCommerce, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Burn != 0 || got.Reserve != 0 || got.ReceiverAmount != 10 {
		t.Fatalf("expected 0/0/10 for tiny commerce transfer, got %d/%d/%d", got.Burn, got.Reserve, got.ReceiverAmount)
	}
}

func TestComputeTax_RejectsInvalidInput(t *testing.T) {
	if _, err := ComputeTax(0, models.TransferCategoryCommerce, false); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if _, err := ComputeTax(-5, models.TransferCategorySocial, false); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}
	if _, err := ComputeTax(100, models.TransferCategory("gambling"), false); !errors.Is(err, models.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

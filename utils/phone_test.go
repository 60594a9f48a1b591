package utils

import "testing"

func TestValidatePhoneNumber(t *testing.T) {
	if err := ValidatePhoneNumber("+16502530000", "US"); err != nil {
		t.Fatalf("valid E.164 number rejected: %v", err)
	}
	if err := ValidatePhoneNumber("650-253-0000", "US"); err != nil {
		t.Fatalf("valid national number rejected: %v", err)
	}
	if err := ValidatePhoneNumber("12345", "US"); err == nil {
		t.Fatal("short junk number accepted")
	}
	if err := ValidatePhoneNumber("", "US"); err == nil {
		t.Fatal("empty number accepted")
	}
}

func TestFormatPhoneNumber_E164(t *testing.T) {
	got, err := FormatPhoneNumber("650-253-0000", "US")
	if err != nil {
		t.Fatalf("format failed: %v", err)
	}
	if got != "+16502530000" {
		t.Fatalf("expected +16502530000, got %s", got)
	}

	if _, err := FormatPhoneNumber("12345", "US"); err == nil {
		t.Fatal("short junk number formatted")
	}
}

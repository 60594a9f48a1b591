package utils

import (
	"fmt"

	"github.com/ttacon/libphonenumber"
)

// DefaultRegion resolves national-format numbers during parsing.
var DefaultRegion = "MM"

// ValidatePhoneNumber parses and validates a phone number for the given
// region. E.164 input ("+95...") overrides the region hint.
func ValidatePhoneNumber(phoneNumber, region string) error {
	p, err := libphonenumber.Parse(phoneNumber, region)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}
	return nil
}

// FormatPhoneNumber normalizes a valid number to E.164 for storage.
func FormatPhoneNumber(phoneNumber, region string) (string, error) {
	p, err := libphonenumber.Parse(phoneNumber, region)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid")
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorDetection(t *testing.T) {
	err := Validationf("coordinates out of boundaries: [%d, %d]", 5, -1)
	if !IsValidation(err) {
		t.Error("Expected IsValidation to match a ValidationError")
	}
	if err.Error() != "coordinates out of boundaries: [5, -1]" {
		t.Errorf("Unexpected message: %q", err.Error())
	}

	wrapped := fmt.Errorf("reading volume: %w", err)
	if !IsValidation(wrapped) {
		t.Error("Expected IsValidation to match through wrapping")
	}
	if IsValidation(errors.New("plain")) {
		t.Error("Expected plain errors not to match")
	}
	if IsValidation(ErrInvalidTimeSeries) {
		t.Error("Expected the invalid-series sentinel not to match")
	}
}

func TestDecodeIndexList(t *testing.T) {
	out, err := DecodeIndexList("[3,7,9]")
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(out) != 3 || out[0] != 3 || out[1] != 7 || out[2] != 9 {
		t.Errorf("Expected [3 7 9], got %v", out)
	}

	out, err = DecodeIndexList("")
	if err != nil || out != nil {
		t.Errorf("Expected nil list for empty input, got %v, %v", out, err)
	}

	if _, err := DecodeIndexList("not json"); err == nil {
		t.Error("Expected error for malformed input")
	}
	if _, err := DecodeIndexList(`["a"]`); err == nil {
		t.Error("Expected error for non-integer entries")
	}
}

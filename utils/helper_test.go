package utils

import (
	"errors"
	"testing"
)

func TestIsValidPhone(t *testing.T) {
	cases := map[string]bool{
		"9876543210":    true,
		"0000000000":    true,
		"98765":         false,
		"98765432100":   false,
		"98765abcde":    false,
		"":              false,
		"98765 43210":   false,
		"+919876543210": false,
	}
	for in, expected := range cases {
		if got := IsValidPhone(in); got != expected {
			t.Fatalf("IsValidPhone(%q) expected %v, got %v", in, expected, got)
		}
	}
}

func TestIsValidGSTIN(t *testing.T) {
	cases := map[string]bool{
		"33AAAAA0000A1Z5": true,
		"33aaaaa0000a1z5": true,
		"33AAAAA0000A1Y5": false,
		"33AAAAA0000A1Z":  false,
		"":                false,
	}
	for in, expected := range cases {
		if got := IsValidGSTIN(in); got != expected {
			t.Fatalf("IsValidGSTIN(%q) expected %v, got %v", in, expected, got)
		}
	}
}

func TestIsConfirmed(t *testing.T) {
	cases := []struct {
		input, token string
		expected     bool
	}{
		{"DELETE", "DELETE", true},
		{"delete", "DELETE", true},
		{"  Restore ", "RESTORE", true},
		{"DELET", "DELETE", false},
		{"", "DELETE", false},
		{"RESTORE", "DELETE", false},
	}
	for _, tc := range cases {
		if got := IsConfirmed(tc.input, tc.token); got != tc.expected {
			t.Fatalf("IsConfirmed(%q, %q) expected %v, got %v", tc.input, tc.token, tc.expected, got)
		}
	}
}

func TestWhatsAppNumber(t *testing.T) {
	got, err := WhatsAppNumber("9876543210")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "919876543210" {
		t.Fatalf("expected 919876543210, got %s", got)
	}
	if _, err := WhatsAppNumber("12"); err == nil {
		t.Fatalf("expected an error for a short number")
	}
}

type validated struct {
	Phone string `validate:"phone10"`
	Name  string `validate:"required"`
	Date  string `validate:"isodate"`
}

func TestValidateStruct_ReportsFirstFieldWithMessage(t *testing.T) {
	messages := map[string]string{"Phone": "bad phone", "Name": "need name"}

	err := ValidateStruct(validated{Phone: "123", Name: ""}, messages)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "Phone" || ve.Error() != "bad phone" {
		t.Fatalf("expected Phone/bad phone, got %s/%s", ve.Field, ve.Error())
	}

	err = ValidateStruct(validated{Phone: "9876543210", Name: "A", Date: "2024-13-01"}, messages)
	if !errors.As(err, &ve) || ve.Field != "Date" {
		t.Fatalf("expected Date validation error, got %v", err)
	}

	if err := ValidateStruct(validated{Phone: "9876543210", Name: "A"}, messages); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}
}

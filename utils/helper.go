package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "IN"

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	// 2 digit state code, PAN (5 letters, 4 digits, 1 letter), entity number, 'Z', checksum.
	gstinPattern = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("gstin", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsValidGSTIN(s)
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsValidDate(s)
	})
	return v
}

// IsValidPhone accepts exactly ten ASCII digits.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

func IsValidGSTIN(gstin string) bool {
	return gstinPattern.MatchString(strings.ToUpper(strings.TrimSpace(gstin)))
}

// WhatsAppNumber returns the digits wa.me expects: country code and national
// number with no plus sign.
func WhatsAppNumber(phone string) (string, error) {
	p, err := libphonenumber.Parse(phone, CountryCode)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid")
	}
	e164 := libphonenumber.Format(p, libphonenumber.E164)
	return strings.TrimPrefix(e164, "+"), nil
}

// IsConfirmed is the typed-confirmation check used before destructive actions.
func IsConfirmed(input, token string) bool {
	return strings.ToUpper(strings.TrimSpace(input)) == strings.ToUpper(token)
}

// ValidateStruct runs the validator tags on v. The first failing field is
// reported as a ValidationError; messages maps field name to its message.
func ValidateStruct(v any, messages map[string]string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return NewValidationError("", err.Error())
	}
	fe := validationErrors[0]
	if msg, ok := messages[fe.Field()]; ok {
		return NewValidationError(fe.Field(), msg)
	}
	return NewValidationError(fe.Field(), fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
}

// ContainsFold is a case-insensitive substring test.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

package utils

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePhoneNumber validates against the given region ("ID" for Indonesia).
func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	parsed, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(parsed) {
		return ErrorInvalidPhoneNumber
	}
	return nil
}

// NormalizePhoneNumber converts a local number to E.164 digits without the
// plus sign ("0812..." -> "62812..."), the format the WhatsApp gateways expect.
func NormalizePhoneNumber(phoneNumber, countryCode string) (string, error) {
	parsed, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return "", err
	}
	formatted := libphonenumber.Format(parsed, libphonenumber.E164)
	return strings.TrimPrefix(formatted, "+"), nil
}

func ProcessValidationErrors(err error) map[string]string {

	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// Binding can also fail on malformed JSON, not just field rules.
		errorResponse["error"] = err.Error()
		return errorResponse
	}

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	if len(defaults) > 0 {
		return defaults[0]
	}
	var zero T
	return zero
}

func NilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FormatRupiah renders a whole-rupiah decimal with Indonesian thousand
// separators: 1250000 -> "1.250.000".
func FormatRupiah(amount decimal.Decimal) string {
	digits := amount.Round(0).String()
	negative := strings.HasPrefix(digits, "-")
	if negative {
		digits = digits[1:]
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// ConvertToDate truncates a time to midnight in the given IANA timezone.
func ConvertToDate(t time.Time, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc), nil
}

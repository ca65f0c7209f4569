package validation

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used to parse numbers given without a country code.
const DefaultPhoneRegion = "BR"

// DateLayout is the wire format for calendar dates such as birthdays.
const DateLayout = "2006-01-02"

// New returns a validator with the custom tags registered and field names
// reported by their json tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// registration only fails for empty tags or nil funcs
	_ = v.RegisterValidation("cpf", validateCPF)
	_ = v.RegisterValidation("phone", validatePhone)
	_ = v.RegisterValidation("past", validatePast)
	_ = v.RegisterValidation("maxbytes", validateMaxBytes)
	return v
}

func validateCPF(fl validator.FieldLevel) bool {
	return IsValidCPF(fl.Field().String())
}

// empty phone numbers are allowed; use required to forbid them
func validatePhone(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if raw == "" {
		return true
	}
	return IsValidPhone(raw)
}

// past accepts time.Time values and DateLayout strings
func validatePast(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case time.Time:
		return !v.IsZero() && v.Before(time.Now())
	case string:
		t, err := time.Parse(DateLayout, v)
		return err == nil && t.Before(time.Now())
	default:
		return false
	}
}

// maxbytes limits the encoded length of a string, e.g. maxbytes=72 for bcrypt input
func validateMaxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

func IsValidPhone(raw string) bool {
	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

// NormalizePhone renders a valid number in E.164. Invalid input is returned unchanged.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// DigitsOnly strips formatting such as dots and dashes from a CPF.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidCPF checks length and both check digits of a Brazilian CPF.
// Formatting characters are ignored.
func IsValidCPF(raw string) bool {
	cpf := DigitsOnly(raw)
	if len(cpf) != 11 {
		return false
	}

	allSame := true
	for i := 1; i < 11; i++ {
		if cpf[i] != cpf[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	return cpf[9] == cpfCheckDigit(cpf[:9]) && cpf[10] == cpfCheckDigit(cpf[:10])
}

func cpfCheckDigit(digits string) byte {
	sum := 0
	weight := len(digits) + 1
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * weight
		weight--
	}
	rem := (sum * 10) % 11
	if rem == 10 {
		rem = 0
	}
	return byte('0' + rem)
}

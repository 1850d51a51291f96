package taxreturn

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	"github.com/gallaway-jp/freedomtax/internal/util"
)

var (
	digitsRE = regexp.MustCompile(`^\d+$`)
	emailRE  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	stateRE  = regexp.MustCompile(`^[A-Z]{2}$`)
	dateRE   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// einInvalidPrefixes are the two-digit EIN prefixes the IRS has never issued.
var einInvalidPrefixes = map[string]bool{
	"00": true, "07": true, "08": true, "09": true, "17": true,
	"18": true, "19": true, "28": true, "29": true, "49": true,
	"69": true, "70": true, "78": true, "79": true, "89": true,
	"96": true, "97": true,
}

// Reusable string rules in the jellydator/validation style.
var (
	emailRule = validation.NewStringRuleWithError(
		emailRE.MatchString,
		validation.NewError("validation_email_format", "must be a valid email address"),
	)
	stateRule = validation.NewStringRuleWithError(
		stateRE.MatchString,
		validation.NewError("validation_state_format", "must be a two-letter state abbreviation"),
	)
	dateRule = validation.NewStringRuleWithError(
		dateRE.MatchString,
		validation.NewError("validation_date_format", "must be formatted YYYY-MM-DD"),
	)
	filingStatusRule = validation.In(
		StatusSingle, StatusMarriedJoint, StatusMarriedSeparate, StatusHeadOfHousehold,
	).Error("must be one of single, married_joint, married_separate, head_of_household")
	deductionMethodRule = validation.In(
		DeductionStandard, DeductionItemized,
	).Error("must be standard or itemized")
)

// maxLengthFor returns the per-field maximum string length.
func maxLengthFor(name string) int {
	switch name {
	case "first_name", "middle_initial", "last_name", "occupation",
		"employer", "payer", "description":
		return MaxNameLength
	case "address", "city":
		return MaxAddressLength
	case "email":
		return MaxEmailLength
	default:
		return MaxStringLength
	}
}

// validateField normalizes raw for the leaf field addressed by path. The
// target's Go type selects the value class (string, monetary, count) and
// the field name selects the specific rule. Pure and safe for concurrent
// use; the tree is only touched by the caller after success.
func validateField(path, name string, target reflect.Value, raw any) (any, error) {
	if target.Type() == reflect.TypeOf(decimal.Decimal{}) {
		return validateCurrency(path, raw)
	}

	switch target.Kind() {
	case reflect.String:
		s, ok := raw.(string)
		if !ok {
			return nil, fieldErrorf(path, ReasonInvalidFormat, "must be a string")
		}
		return validateString(path, name, s)
	case reflect.Int:
		return validateCount(path, raw)
	default:
		return nil, fieldErrorf(path, ReasonInvalidFormat, "field type %s is not settable", target.Type())
	}
}

func validateString(path, name, raw string) (any, error) {
	s := util.Normalize(strings.TrimSpace(raw))

	switch name {
	case "ssn":
		return validateSSN(path, s)
	case "employer_ein":
		return validateEIN(path, s)
	case "email":
		if err := validation.RuneLength(0, MaxEmailLength).Validate(s); err != nil {
			return nil, fieldErrorf(path, ReasonTooLong, "must be at most %d characters", MaxEmailLength)
		}
		if err := emailRule.Validate(s); err != nil {
			return nil, fieldErrorf(path, ReasonInvalidFormat, "%v", err)
		}
		return s, nil
	case "zip":
		return validateZIP(path, s)
	case "phone":
		return validatePhone(path, s)
	case "state":
		s = strings.ToUpper(s)
		if err := stateRule.Validate(s); err != nil {
			return nil, fieldErrorf(path, ReasonInvalidFormat, "%v", err)
		}
		return s, nil
	case "date_of_birth", "date":
		if err := dateRule.Validate(s); err != nil {
			return nil, fieldErrorf(path, ReasonInvalidFormat, "%v", err)
		}
		return s, nil
	case "status":
		if err := filingStatusRule.Validate(s); err != nil {
			return nil, fieldErrorf(path, ReasonInvalidFormat, "%v", err)
		}
		return s, nil
	case "method":
		if err := deductionMethodRule.Validate(s); err != nil {
			return nil, fieldErrorf(path, ReasonInvalidFormat, "%v", err)
		}
		return s, nil
	default:
		max := maxLengthFor(name)
		if err := validation.RuneLength(0, max).Validate(s); err != nil {
			return nil, fieldErrorf(path, ReasonTooLong, "must be at most %d characters", max)
		}
		return s, nil
	}
}

// validateSSN strips separators and applies the SSA issuance rules: nine
// digits, area not 000/666/9xx, group not 00, serial not 0000.
func validateSSN(path, raw string) (any, error) {
	s := stripSeparators(raw)
	if !digitsRE.MatchString(s) || len(s) != 9 {
		return nil, fieldErrorf(path, ReasonInvalidFormat, "SSN must be 9 digits")
	}
	area, group, serial := s[:3], s[3:5], s[5:]
	if area == "000" || area == "666" || area[0] == '9' {
		return nil, fieldErrorf(path, ReasonInvalidFormat, "SSN area number %s is not issued", area)
	}
	if group == "00" {
		return nil, fieldErrorf(path, ReasonInvalidFormat, "SSN group number 00 is not issued")
	}
	if serial == "0000" {
		return nil, fieldErrorf(path, ReasonInvalidFormat, "SSN serial number 0000 is not issued")
	}
	return s, nil
}

func validateEIN(path, raw string) (any, error) {
	s := stripSeparators(raw)
	if !digitsRE.MatchString(s) || len(s) != 9 {
		return nil, fieldErrorf(path, ReasonInvalidFormat, "EIN must be 9 digits")
	}
	if einInvalidPrefixes[s[:2]] {
		return nil, fieldErrorf(path, ReasonInvalidFormat, "EIN prefix %s is not issued", s[:2])
	}
	return s, nil
}

func validateZIP(path, raw string) (any, error) {
	s := stripSeparators(raw)
	if !digitsRE.MatchString(s) || (len(s) != 5 && len(s) != 9) {
		return nil, fieldErrorf(path, ReasonInvalidFormat, "ZIP code must be 5 or 9 digits")
	}
	return s, nil
}

func validatePhone(path, raw string) (any, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	if len(s) == 11 && s[0] == '1' {
		s = s[1:]
	}
	if len(s) != 10 {
		return nil, fieldErrorf(path, ReasonInvalidFormat, "phone number must have 10 digits")
	}
	return s, nil
}

// validateCurrency parses raw into a non-negative decimal capped at
// MaxMonetaryValue, rounded to the cent.
func validateCurrency(path string, raw any) (any, error) {
	var d decimal.Decimal
	switch v := raw.(type) {
	case decimal.Decimal:
		d = v
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		cleaned = strings.TrimPrefix(cleaned, "$")
		parsed, err := decimal.NewFromString(cleaned)
		if err != nil {
			return nil, fieldErrorf(path, ReasonInvalidFormat, "must be a number")
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(v)
	case float32:
		d = decimal.NewFromFloat32(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	default:
		return nil, fieldErrorf(path, ReasonInvalidFormat, "must be a number, got %T", raw)
	}

	if d.IsNegative() {
		return nil, fieldErrorf(path, ReasonOutOfRange, "must not be negative")
	}
	if d.GreaterThan(MaxMonetaryValue) {
		return nil, fieldErrorf(path, ReasonOutOfRange, "must not exceed %s", MaxMonetaryValue)
	}
	return d.Round(2), nil
}

// validateCount parses raw into a small non-negative integer (dependent
// counts and the like).
func validateCount(path string, raw any) (any, error) {
	const maxCount = 99
	var n int
	switch v := raw.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != float64(int(v)) {
			return nil, fieldErrorf(path, ReasonInvalidFormat, "must be a whole number")
		}
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fieldErrorf(path, ReasonInvalidFormat, "must be a whole number")
		}
		n = parsed
	default:
		return nil, fieldErrorf(path, ReasonInvalidFormat, "must be a whole number, got %T", raw)
	}
	if n < 0 {
		return nil, fieldErrorf(path, ReasonOutOfRange, "must not be negative")
	}
	if n > maxCount {
		return nil, fieldErrorf(path, ReasonOutOfRange, "must not exceed %d", maxCount)
	}
	return n, nil
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '.', ' ':
			return -1
		}
		return r
	}, s)
}

package taxreturn

import (
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringTarget() reflect.Value {
	var s string
	return reflect.ValueOf(&s).Elem()
}

func decimalTarget() reflect.Value {
	var d decimal.Decimal
	return reflect.ValueOf(&d).Elem()
}

func intTarget() reflect.Value {
	var n int
	return reflect.ValueOf(&n).Elem()
}

func TestValidateSSN(t *testing.T) {
	t.Run("valid with separators normalizes to digits", func(t *testing.T) {
		got, err := validateField("personal_info.ssn", "ssn", stringTarget(), "123-45-6789")
		require.NoError(t, err)
		assert.Equal(t, "123456789", got)
	})

	t.Run("reserved area 000", func(t *testing.T) {
		_, err := validateField("personal_info.ssn", "ssn", stringTarget(), "000-12-3456")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)

		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, ReasonInvalidFormat, fe.Reason)
	})

	t.Run("reserved area 666", func(t *testing.T) {
		_, err := validateField("personal_info.ssn", "ssn", stringTarget(), "666-12-3456")
		assert.Error(t, err)
	})

	t.Run("area 9xx", func(t *testing.T) {
		_, err := validateField("personal_info.ssn", "ssn", stringTarget(), "912-34-5678")
		assert.Error(t, err)
	})

	t.Run("group 00", func(t *testing.T) {
		_, err := validateField("personal_info.ssn", "ssn", stringTarget(), "123-00-6789")
		assert.Error(t, err)
	})

	t.Run("serial 0000", func(t *testing.T) {
		_, err := validateField("personal_info.ssn", "ssn", stringTarget(), "123-45-0000")
		assert.Error(t, err)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := validateField("personal_info.ssn", "ssn", stringTarget(), "12345678")
		assert.Error(t, err)
	})

	t.Run("non-digits", func(t *testing.T) {
		_, err := validateField("personal_info.ssn", "ssn", stringTarget(), "12345678a")
		assert.Error(t, err)
	})
}

func TestValidateEIN(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := validateField("p", "employer_ein", stringTarget(), "12-3456789")
		require.NoError(t, err)
		assert.Equal(t, "123456789", got)
	})

	t.Run("unissued prefix", func(t *testing.T) {
		_, err := validateField("p", "employer_ein", stringTarget(), "07-3456789")
		assert.Error(t, err)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := validateField("p", "employer_ein", stringTarget(), "1234")
		assert.Error(t, err)
	})
}

func TestValidateEmail(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := validateField("p", "email", stringTarget(), "taxpayer@example.com")
		require.NoError(t, err)
		assert.Equal(t, "taxpayer@example.com", got)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := validateField("p", "email", stringTarget(), "not-an-email")
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, ReasonInvalidFormat, fe.Reason)
	})

	t.Run("too long", func(t *testing.T) {
		long := strings.Repeat("a", MaxEmailLength) + "@example.com"
		_, err := validateField("p", "email", stringTarget(), long)
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, ReasonTooLong, fe.Reason)
	})
}

func TestValidateZIP(t *testing.T) {
	t.Run("five digits", func(t *testing.T) {
		got, err := validateField("p", "zip", stringTarget(), "98101")
		require.NoError(t, err)
		assert.Equal(t, "98101", got)
	})

	t.Run("nine digits with hyphen", func(t *testing.T) {
		got, err := validateField("p", "zip", stringTarget(), "98101-1234")
		require.NoError(t, err)
		assert.Equal(t, "981011234", got)
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := validateField("p", "zip", stringTarget(), "9810")
		assert.Error(t, err)
	})

	t.Run("letters", func(t *testing.T) {
		_, err := validateField("p", "zip", stringTarget(), "9810a")
		assert.Error(t, err)
	})
}

func TestValidatePhone(t *testing.T) {
	t.Run("formatted", func(t *testing.T) {
		got, err := validateField("p", "phone", stringTarget(), "(206) 555-0147")
		require.NoError(t, err)
		assert.Equal(t, "2065550147", got)
	})

	t.Run("leading country code dropped", func(t *testing.T) {
		got, err := validateField("p", "phone", stringTarget(), "1-206-555-0147")
		require.NoError(t, err)
		assert.Equal(t, "2065550147", got)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := validateField("p", "phone", stringTarget(), "555-0147")
		assert.Error(t, err)
	})
}

func TestValidateCurrency(t *testing.T) {
	t.Run("string with symbols", func(t *testing.T) {
		got, err := validateField("p", "wages", decimalTarget(), "$52,000.50")
		require.NoError(t, err)
		assert.True(t, got.(decimal.Decimal).Equal(decimal.RequireFromString("52000.50")))
	})

	t.Run("float rounds to cents", func(t *testing.T) {
		got, err := validateField("p", "wages", decimalTarget(), 10.005)
		require.NoError(t, err)
		assert.True(t, got.(decimal.Decimal).Equal(decimal.RequireFromString("10.01")))
	})

	t.Run("negative is out of range", func(t *testing.T) {
		_, err := validateField("p", "wages", decimalTarget(), -100)
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, ReasonOutOfRange, fe.Reason)
	})

	t.Run("exceeds maximum", func(t *testing.T) {
		_, err := validateField("p", "wages", decimalTarget(), "1000000000.00")
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, ReasonOutOfRange, fe.Reason)
	})

	t.Run("not numeric", func(t *testing.T) {
		_, err := validateField("p", "wages", decimalTarget(), "lots")
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, ReasonInvalidFormat, fe.Reason)
	})

	t.Run("maximum bound accepted", func(t *testing.T) {
		got, err := validateField("p", "wages", decimalTarget(), "999999999.99")
		require.NoError(t, err)
		assert.True(t, got.(decimal.Decimal).Equal(MaxMonetaryValue))
	})
}

func TestValidateEnums(t *testing.T) {
	t.Run("filing status", func(t *testing.T) {
		got, err := validateField("filing_status.status", "status", stringTarget(), StatusMarriedJoint)
		require.NoError(t, err)
		assert.Equal(t, StatusMarriedJoint, got)

		_, err = validateField("filing_status.status", "status", stringTarget(), "divorced")
		assert.Error(t, err)
	})

	t.Run("deduction method", func(t *testing.T) {
		got, err := validateField("deductions.method", "method", stringTarget(), DeductionItemized)
		require.NoError(t, err)
		assert.Equal(t, DeductionItemized, got)

		_, err = validateField("deductions.method", "method", stringTarget(), "both")
		assert.Error(t, err)
	})
}

func TestValidateStringLengths(t *testing.T) {
	t.Run("name at limit", func(t *testing.T) {
		_, err := validateField("p", "first_name", stringTarget(), strings.Repeat("a", MaxNameLength))
		assert.NoError(t, err)
	})

	t.Run("name over limit", func(t *testing.T) {
		_, err := validateField("p", "first_name", stringTarget(), strings.Repeat("a", MaxNameLength+1))
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, ReasonTooLong, fe.Reason)
	})

	t.Run("address limit is wider", func(t *testing.T) {
		_, err := validateField("p", "address", stringTarget(), strings.Repeat("a", MaxAddressLength))
		assert.NoError(t, err)

		_, err = validateField("p", "address", stringTarget(), strings.Repeat("a", MaxAddressLength+1))
		assert.Error(t, err)
	})

	t.Run("fullwidth text normalized before measuring", func(t *testing.T) {
		got, err := validateField("p", "first_name", stringTarget(), "ＡＢ")
		require.NoError(t, err)
		assert.Equal(t, "AB", got)
	})
}

func TestValidateCount(t *testing.T) {
	t.Run("int", func(t *testing.T) {
		got, err := validateField("p", "qualifying_children", intTarget(), 3)
		require.NoError(t, err)
		assert.Equal(t, 3, got)
	})

	t.Run("integral float from JSON", func(t *testing.T) {
		got, err := validateField("p", "qualifying_children", intTarget(), float64(2))
		require.NoError(t, err)
		assert.Equal(t, 2, got)
	})

	t.Run("fractional rejected", func(t *testing.T) {
		_, err := validateField("p", "qualifying_children", intTarget(), 1.5)
		assert.Error(t, err)
	})

	t.Run("negative rejected", func(t *testing.T) {
		_, err := validateField("p", "qualifying_children", intTarget(), -1)
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, ReasonOutOfRange, fe.Reason)
	})

	t.Run("string accepted", func(t *testing.T) {
		got, err := validateField("p", "qualifying_children", intTarget(), "4")
		require.NoError(t, err)
		assert.Equal(t, 4, got)
	})
}

func TestValidateState(t *testing.T) {
	got, err := validateField("p", "state", stringTarget(), "wa")
	require.NoError(t, err)
	assert.Equal(t, "WA", got)

	_, err = validateField("p", "state", stringTarget(), "Washington")
	assert.Error(t, err)
}

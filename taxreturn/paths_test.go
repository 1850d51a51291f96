package taxreturn

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	t.Run("plain segments", func(t *testing.T) {
		segs, err := parsePath("personal_info.ssn")
		require.NoError(t, err)
		require.Len(t, segs, 2)
		assert.Equal(t, "personal_info", segs[0].name)
		assert.False(t, segs[0].hasIndex)
		assert.Equal(t, "ssn", segs[1].name)
	})

	t.Run("indexed segment", func(t *testing.T) {
		segs, err := parsePath("income.w2_forms[2].wages")
		require.NoError(t, err)
		require.Len(t, segs, 3)
		assert.Equal(t, "w2_forms", segs[1].name)
		assert.True(t, segs[1].hasIndex)
		assert.Equal(t, 2, segs[1].index)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := parsePath("")
		assert.ErrorIs(t, err, ErrUnknownPath)
	})

	t.Run("malformed index", func(t *testing.T) {
		for _, p := range []string{"income.w2_forms[", "income.w2_forms[x]", "income.w2_forms[-1]"} {
			_, err := parsePath(p)
			assert.ErrorIs(t, err, ErrUnknownPath, p)
		}
	})

	t.Run("empty segment", func(t *testing.T) {
		_, err := parsePath("personal_info..ssn")
		assert.ErrorIs(t, err, ErrUnknownPath)
	})
}

func TestGet(t *testing.T) {
	ret := NewTaxReturn(2025)
	ret.PersonalInfo.FirstName = "Ada"
	ret.Income.W2Forms = append(ret.Income.W2Forms, W2Form{
		Employer: "Initech",
		Wages:    decimal.RequireFromString("52000"),
	})

	t.Run("scalar leaf", func(t *testing.T) {
		v, ok := ret.Get("personal_info.first_name")
		require.True(t, ok)
		assert.Equal(t, "Ada", v)
	})

	t.Run("list field", func(t *testing.T) {
		v, ok := ret.Get("income.w2_forms")
		require.True(t, ok)
		assert.Len(t, v.([]W2Form), 1)
	})

	t.Run("indexed leaf", func(t *testing.T) {
		v, ok := ret.Get("income.w2_forms[0].wages")
		require.True(t, ok)
		assert.True(t, v.(decimal.Decimal).Equal(decimal.RequireFromString("52000")))
	})

	t.Run("unknown path", func(t *testing.T) {
		_, ok := ret.Get("personal_info.favorite_color")
		assert.False(t, ok)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, ok := ret.Get("income.w2_forms[5].wages")
		assert.False(t, ok)
	})

	t.Run("metadata readable", func(t *testing.T) {
		v, ok := ret.Get("metadata.tax_year")
		require.True(t, ok)
		assert.Equal(t, 2025, v)
	})
}

func TestGetDefault(t *testing.T) {
	ret := NewTaxReturn(2025)

	assert.Equal(t, "none", ret.GetDefault("personal_info.favorite_color", "none"))
	assert.Equal(t, "", ret.GetDefault("personal_info.first_name", "none"))
}

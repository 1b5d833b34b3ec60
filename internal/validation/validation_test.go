package validation

import (
	"testing"

	"gymhub/internal/apperr"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string   `json:"name" validate:"required,max=10"`
	Days     int      `json:"duration_days,omitempty" validate:"gt=0"`
	Features []string `json:"features" validate:"dive,required"`
	Note     string   `json:"-" validate:"max=3"`
	Code     string   `validate:"max=3"`
}

func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Struct(sample{Name: "Gold", Days: 30, Features: []string{"sauna"}}))
	})

	t.Run("collects every failed field", func(t *testing.T) {
		err := Struct(sample{Days: 0, Features: []string{""}})
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		assert.Contains(t, err.Error(), "name is required")
		assert.Contains(t, err.Error(), "duration_days must be greater than 0")
		assert.Contains(t, err.Error(), "features[0] is required")
	})
}

func TestFields(t *testing.T) {
	errs := Fields(sample{Name: "a very long plan name", Days: 1})
	require.Len(t, errs, 1)
	assert.Equal(t, "name", errs[0].Field)
	assert.Equal(t, "max", errs[0].Tag)
	assert.Equal(t, "name must be at most 10", errs[0].Message)

	assert.Nil(t, Fields(sample{Name: "ok", Days: 1}))
}

func TestFieldsWithoutJSONName(t *testing.T) {
	errs := Fields(sample{Name: "ok", Days: 1, Note: "toolong", Code: "toolong"})
	require.Len(t, errs, 2)

	fields := []string{errs[0].Field, errs[1].Field}
	assert.ElementsMatch(t, []string{"Note", "Code"}, fields)
}

func TestPrice(t *testing.T) {
	tests := []struct {
		price string
		ok    bool
	}{
		{"0", true},
		{"29.99", true},
		{"30.10", true},
		{"12.500", true},
		{"-1", false},
		{"9.999", false},
		{"0.001", false},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			err := Price(decimal.RequireFromString(tt.price))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		})
	}
}

package currencyutils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		amountStr string
		expected  string
		hasError  bool
	}{
		{"Simple decimal", "123.45", "123.45", false},
		{"Comma decimal separator", "123,45", "123.45", false},
		{"Ringgit prefix", "RM7.70", "7.70", false},
		{"Ringgit prefix with space", "RM 45.90", "45.90", false},
		{"Lowercase label", "rm 3.20", "3.20", false},
		{"ISO code", "MYR 12.00", "12", false},
		{"Trailing code", "12.00 MYR", "12", false},
		{"Thousands with comma", "1,234.56", "1234.56", false},
		{"European format", "1.234,56", "1234.56", false},
		{"Apostrophe thousands", "1'234.56", "1234.56", false},
		{"Dotted thousands", "1.234.567", "1234567", false},
		{"Colon left over from label", ": 45.90", "45.90", false},
		{"Empty string", "", "", true},
		{"Label only", "RM", "", true},
		{"Malformed decimal", "123.45.67", "", true},
		{"Non-numeric", "abc", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseAmount(tc.amountStr)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			expected := decimal.RequireFromString(tc.expected)
			assert.True(t, expected.Equal(result), "expected %s but got %s", expected, result)
		})
	}
}

func TestParseAmount_EmptyIsSentinel(t *testing.T) {
	_, err := ParseAmount("  ")
	assert.ErrorIs(t, err, ErrEmptyAmount)
}

func TestAmountPattern(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Milk 1L           4.50", []string{"4.50"}},
		{"TOTAL RM7.70", []string{"7.70"}},
		{"TOTAL: RM 1,045.90", []string{"1,045.90"}},
		{"Qty 2 x 3.10 6.20", []string{"3.10", "6.20"}},
		{"CALL US AT 012-3456789", nil},
		{"12/06/2023", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountPattern.FindAllString(tt.text, -1))
		})
	}
}

func TestFindAmounts(t *testing.T) {
	got := FindAmounts("Subtotal 40.00 Tax 5,90 TOTAL RM 45.90")
	require.Len(t, got, 3)
	assert.Equal(t, "5.9", got[1].String())
	assert.Empty(t, FindAmounts("no numbers here"))
}

func TestFormatAmount(t *testing.T) {
	amount := decimal.RequireFromString("7.7")
	assert.Equal(t, "RM 7.70", FormatAmount(amount, "MYR"))
	assert.Equal(t, "RM 7.70", FormatAmount(amount, "rm"))
	assert.Equal(t, "SGD 7.70", FormatAmount(amount, "sgd"))
	assert.Equal(t, "7.70", FormatAmount(amount, ""))
}

func TestRangeHelpers(t *testing.T) {
	lo, hi := decimal.Zero, decimal.NewFromInt(10000)
	assert.True(t, InRange(decimal.RequireFromString("4.50"), lo, hi))
	assert.False(t, InRange(decimal.Zero, lo, hi))
	assert.False(t, InRange(hi, lo, hi))
	assert.True(t, IsPositive(decimal.RequireFromString("0.01")))
}

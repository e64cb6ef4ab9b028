package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLines(t *testing.T) {
	assert.Nil(t, Lines(""))
	assert.Equal(t, []string{"TESCO EXTRA", "", "Bread 3.20"}, Lines("  TESCO EXTRA \r\n\nBread 3.20"))
	assert.Equal(t, []string{"TESCO EXTRA", "Bread 3.20"}, NonEmptyLines("TESCO EXTRA\n \nBread 3.20\n"))
}

func TestLowerAndFold(t *testing.T) {
	assert.Equal(t, "starbucks cofee", Lower("STARBUCKS COFEE"))
	// decomposed e + combining acute composes to the single rune form
	assert.Equal(t, "caf\u00e9", Lower("CAFE\u0301"))
	assert.True(t, ContainsFold("Guardian Pharmacy", "PHARMACY"))
	assert.False(t, ContainsFold("Guardian", "watson"))
	assert.True(t, ContainsAnyFold("Thank You!", []string{"RECEIPT", "THANK YOU"}))
	assert.False(t, ContainsAnyFold("Milk 4.50", []string{"RECEIPT", "THANK YOU"}))
}

func TestIsUpper(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"TESCO EXTRA", true},
		{"AEON BIG (M) SDN BHD", true},
		{"Tesco", false},
		{"12/06/2023", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUpper(tt.in))
		})
	}
}

func TestHasDigitRun(t *testing.T) {
	assert.True(t, HasDigitRun("TEL: 03-2345", 4))
	assert.True(t, HasDigitRun("2023", 4))
	assert.False(t, HasDigitRun("NO. 12 JALAN 345", 4))
	assert.False(t, HasDigitRun("", 4))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "Milk 1L", CollapseSpaces("  Milk \t  1L  "))
}

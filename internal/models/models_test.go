package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCorrectionKind(t *testing.T) {
	tests := []struct {
		in      string
		want    CorrectionKind
		wantErr bool
	}{
		{in: "merchant", want: CorrectionMerchant},
		{in: " TERM ", want: CorrectionTerm},
		{in: "Merchant", want: CorrectionMerchant},
		{in: "vendor", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCorrectionKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDictionaryDocument_OverlayAndClone(t *testing.T) {
	base := NewDictionaryDocument()
	base.Set(CorrectionMerchant, "STARBUCKS COFEE", "Starbucks")
	base.Set(CorrectionTerm, "T0TAL", "TOTAL")

	clone := base.Clone()
	clone.Set(CorrectionTerm, "T0TAL", "TOTAL!")
	assert.Equal(t, "TOTAL", base.Terms["T0TAL"], "clone must not alias the original maps")

	user := DictionaryDocument{Merchants: map[string]string{"STARBUCKS COFEE": "Starbucks Coffee"}}
	base.Overlay(user)
	assert.Equal(t, "Starbucks Coffee", base.Merchants["STARBUCKS COFEE"])
	assert.Equal(t, 2, base.Len())
	assert.False(t, base.IsEmpty())
	assert.True(t, DictionaryDocument{}.IsEmpty())
}

func TestDictionaryDocument_Sanitized(t *testing.T) {
	doc := DictionaryDocument{
		Merchants: map[string]string{"TESC0": "Tesco", " ": "blank", "AEON": ""},
		Terms:     map[string]string{"RECIEPT": "RECEIPT"},
	}
	clean, dropped := doc.Sanitized()
	assert.Equal(t, 2, dropped)
	assert.Equal(t, map[string]string{"TESC0": "Tesco"}, clean.Merchants)
	assert.Equal(t, map[string]string{"RECIEPT": "RECEIPT"}, clean.Terms)
}

func TestTemplateRecord_Validate(t *testing.T) {
	valid := TemplateRecord{
		MerchantName:  "Tesco",
		HeaderPattern: "TESCO",
		DatePattern:   `(\d{2}/\d{2}/\d{4})`,
		TotalPattern:  `TOTAL\s+(\S+)`,
		ItemPattern:   `^(.+?)\s+(\d+\.\d{2})$`,
	}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, "tesco", valid.Key())

	invalid := valid
	invalid.MerchantName = ""
	invalid.ItemPattern = " "
	err := invalid.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "merchantName")
	assert.Contains(t, err.Error(), "itemPattern")
}

func TestReceiptData_ToRow(t *testing.T) {
	r := ReceiptData{
		MerchantName: "Tesco Extra",
		Date:         "12/06/2023",
		TotalAmount:  decimal.RequireFromString("7.7"),
		LineItems: []LineItem{
			{Description: "Milk 1L", Amount: decimal.RequireFromString("4.50")},
			{Description: "Bread", Amount: decimal.RequireFromString("3.2")},
		},
		Category: CategoryLifestyle,
	}

	row := r.ToRow("a.txt")
	assert.Equal(t, "7.70", row.TotalAmount)
	assert.Equal(t, 2, row.ItemCount)
	assert.Equal(t, "Milk 1L=4.50; Bread=3.20", row.Items)
	assert.True(t, r.ItemsTotal().Equal(decimal.RequireFromString("7.70")))
	assert.Equal(t, "X", r.WithMerchantName("X").MerchantName)
	assert.Equal(t, "Tesco Extra", r.MerchantName)
}

func TestIsKnownCategory(t *testing.T) {
	assert.True(t, IsKnownCategory(CategoryMedical))
	assert.False(t, IsKnownCategory("Groceries"))
	assert.Len(t, AvailableCategories, 6)
}

func TestDictionaryDocument_Entries(t *testing.T) {
	doc := DictionaryDocument{
		Merchants: map[string]string{"tesc0": "Tesco", "aeon big": "AEON"},
		Terms:     map[string]string{"T0TAL": "TOTAL"},
	}

	assert.Equal(t, []CorrectionEntry{
		{Original: "aeon big", Corrected: "AEON", Kind: CorrectionMerchant},
		{Original: "tesc0", Corrected: "Tesco", Kind: CorrectionMerchant},
		{Original: "T0TAL", Corrected: "TOTAL", Kind: CorrectionTerm},
	}, doc.Entries())
	assert.Empty(t, DictionaryDocument{}.Entries())
}

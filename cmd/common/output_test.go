package common_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"smarttax/receipt-ocr/cmd/common"
	"smarttax/receipt-ocr/internal/models"
)

func sampleReceipt() models.ReceiptData {
	return models.ReceiptData{
		MerchantName: "Tesco",
		Date:         "15/06/2023",
		TotalAmount:  decimal.RequireFromString("45.90"),
		LineItems: []models.LineItem{
			{Description: "Milk", Amount: decimal.RequireFromString("5.90")},
			{Description: "Bread", Amount: decimal.RequireFromString("40.00")},
		},
		Category: "Lifestyle Expenses",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "json", want: common.FormatJSON},
		{in: " YAML ", want: common.FormatYAML},
		{in: "yml", want: common.FormatYAML},
		{in: "csv", want: common.FormatCSV},
		{in: "Text", want: common.FormatText},
		{in: "txt", want: common.FormatText},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := common.ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadInput(t *testing.T) {
	got, err := common.ReadInput("", strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	got, err = common.ReadInput("-", strings.NewReader("dash"))
	require.NoError(t, err)
	assert.Equal(t, "dash", got)

	path := filepath.Join(t.TempDir(), "receipt.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))
	got, err = common.ReadInput(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from file", got)

	_, err = common.ReadInput(filepath.Join(t.TempDir(), "missing.txt"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncode_JSON(t *testing.T) {
	data, err := common.Encode(sampleReceipt(), common.FormatJSON, "", ',')
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Tesco", decoded["merchantName"])
	assert.Equal(t, "45.9", decoded["totalAmount"])
}

func TestEncode_YAML(t *testing.T) {
	data, err := common.Encode(sampleReceipt(), common.FormatYAML, "", ',')
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "Tesco", decoded["merchantName"])
	assert.Equal(t, "15/06/2023", decoded["date"])
}

func TestEncode_CSV(t *testing.T) {
	data, err := common.Encode(sampleReceipt(), common.FormatCSV, "receipt.txt", ';')
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Source;Merchant;Date;Total;Category;ItemCount;Items", lines[0])
	assert.Contains(t, lines[1], "receipt.txt;Tesco;15/06/2023;45.90")
	assert.Contains(t, lines[1], "Milk=5.90; Bread=40.00")

	_, err = common.Encode("not a receipt", common.FormatCSV, "", ',')
	assert.Error(t, err)
}

func TestEncode_Text(t *testing.T) {
	data, err := common.Encode(sampleReceipt(), common.FormatText, "", ',')
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "Merchant: Tesco")
	assert.Contains(t, out, "Date:     15/06/2023")
	assert.Contains(t, out, "Items:")
	assert.Regexp(t, `Milk\s+RM 5\.90`, out)
	assert.Regexp(t, `Bread\s+RM 40\.00`, out)
	assert.Contains(t, out, "Total:    RM 45.90")

	empty := sampleReceipt()
	empty.LineItems = nil
	data, err = common.Encode(empty, common.FormatText, "", ',')
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Items:")

	_, err = common.Encode(map[string]string{}, common.FormatText, "", ',')
	assert.Error(t, err)
}

func TestWriteOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, common.WriteOutput("", []byte("hello"), &buf))
	assert.Equal(t, "hello", buf.String())

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, common.WriteOutput(path, []byte("{}"), &buf))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

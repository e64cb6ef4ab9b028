package common

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
)

// TestCSVRow represents a test CSV row for gocsv unmarshaling
type TestCSVRow struct {
	Merchant string `csv:"Merchant"`
	Total    string `csv:"Total"`
}

func TestReadCSVFile(t *testing.T) {
	tempDir := t.TempDir()
	csvContent := "Merchant,Total\nTESCO,7.70\n,\nAEON,12.00\n"
	path := filepath.Join(tempDir, "test.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvContent), 0600))

	rows, err := ReadCSVFile[TestCSVRow](path, ',', logging.NewMockLogger())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "TESCO", rows[0].Merchant)
	assert.Equal(t, "7.70", rows[0].Total)
	assert.Equal(t, "", rows[1].Merchant)
	assert.Equal(t, "AEON", rows[2].Merchant)

	_, err = ReadCSVFile[TestCSVRow](filepath.Join(tempDir, "missing.csv"), ',', nil)
	assert.Error(t, err)
}

func TestWriteCSV_RoundTripWithDelimiter(t *testing.T) {
	rows := []models.ReceiptRow{
		{Source: "a.txt", MerchantName: "TESCO; EXTRA", Date: "2023-06-12", TotalAmount: "7.70", Category: models.CategoryLifestyle, ItemCount: 2, Items: "Milk=4.50"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows, ';', true))
	assert.Contains(t, buf.String(), "Source;Merchant;Date;Total;Category;ItemCount;Items")
	assert.Contains(t, buf.String(), `"TESCO; EXTRA"`)

	back, err := ReadCSV[models.ReceiptRow](&buf, ';')
	require.NoError(t, err)
	assert.Equal(t, rows, back)
}

func TestWriteCSV_WithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []TestCSVRow{{Merchant: "AEON", Total: "1.00"}}, 0, false))
	assert.Equal(t, "AEON,1.00\n", buf.String())
}

func TestParseDelimiter(t *testing.T) {
	assert.Equal(t, ';', ParseDelimiter(";"))
	assert.Equal(t, '\t', ParseDelimiter("\t"))
	assert.Equal(t, ',', ParseDelimiter(""))
}

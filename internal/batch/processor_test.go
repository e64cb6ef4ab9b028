package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
)

// lineExtractor reads "merchant|date|total|category" from the first line.
type lineExtractor struct{}

func (lineExtractor) Extract(raw string) (models.ReceiptData, error) {
	if strings.HasPrefix(raw, "FAIL") {
		return models.ReceiptData{}, errors.New("invalid receipt input")
	}
	parts := strings.Split(strings.TrimSpace(raw), "|")
	return models.ReceiptData{
		MerchantName: parts[0],
		Date:         parts[1],
		TotalAmount:  decimal.RequireFromString(parts[2]),
		Category:     parts[3],
		LineItems:    []models.LineItem{},
		RawText:      raw,
	}, nil
}

func writeReceipts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
	return dir
}

func TestDateRange_String(t *testing.T) {
	assert.Equal(t, "", DateRange{}.String())
	dr := DateRange{
		Start: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "2023-06-01_2023-06-30", dr.String())
}

func TestDateRange_Include(t *testing.T) {
	mid := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	early := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	late := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	dr := DateRange{}.Include(mid).Include(time.Time{}).Include(early).Include(late).Include(mid)
	assert.Equal(t, early, dr.Start)
	assert.Equal(t, late, dr.End)
}

func TestProcessDirectory(t *testing.T) {
	dir := writeReceipts(t, map[string]string{
		"c.txt":    "AEON|01/07/2023|12.00|Lifestyle Expenses",
		"a.txt":    "GUARDIAN|12/06/2023|30.50|Medical",
		"b.txt":    "WATSONS|not a date|5.00|Medical",
		"d.txt":    "FAIL",
		"notes.md": "ignored",
		"e.txt":    "GUARDIAN|12/06/2023|30.50|Medical",
		"f.TXT":    "POPULAR|2023-05-20|45.00|Education",
	})

	logger := logging.NewMockLogger()
	report, err := NewProcessor(lineExtractor{}, 2, logger).ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)

	var order []string
	for _, r := range report.Results {
		order = append(order, r.Source)
	}
	assert.Equal(t, []string{"f.TXT", "a.txt", "e.txt", "c.txt", "b.txt", "d.txt"}, order)

	assert.Equal(t, Stats{Total: 6, Extracted: 5, Failed: 1, Categorized: 4, Duplicates: 1}, report.Stats)
	assert.Equal(t, "2023-05-20_2023-07-01", report.DateRange.String())
	assert.True(t, logger.HasEntry("WARN", "Potential duplicate receipt"))
	assert.True(t, logger.HasEntry("ERROR", "Failed to extract receipt"))

	rows := report.Rows()
	require.Len(t, rows, 5)
	assert.Equal(t, "2023-05-20", rows[0].Date)
	assert.Equal(t, "2023-06-12", rows[1].Date)
	assert.Equal(t, "not a date", rows[4].Date)
	assert.Equal(t, "30.50", rows[1].TotalAmount)
}

func TestProcessDirectory_Missing(t *testing.T) {
	_, err := NewProcessor(lineExtractor{}, 0, nil).ProcessDirectory(context.Background(), filepath.Join(t.TempDir(), "none"))
	assert.Error(t, err)
}

func TestProcessFiles_Cancelled(t *testing.T) {
	dir := writeReceipts(t, map[string]string{"a.txt": "AEON|01/07/2023|12.00|Lifestyle Expenses"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProcessor(lineExtractor{}, 1, nil).ProcessFiles(ctx, []string{filepath.Join(dir, "a.txt")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessFiles_UnreadableFile(t *testing.T) {
	report, err := NewProcessor(lineExtractor{}, 1, logging.NewMockLogger()).
		ProcessFiles(context.Background(), []string{filepath.Join(t.TempDir(), "gone.txt")})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stats.Failed)
	assert.Empty(t, report.Rows())
}

func TestStats(t *testing.T) {
	assert.Equal(t, 0.0, Stats{}.SuccessRate())
	s := Stats{Total: 4, Extracted: 3, Failed: 1}
	assert.Equal(t, 75.0, s.SuccessRate())

	logger := logging.NewMockLogger()
	s.LogSummary(logger, "/receipts")
	entries := logger.GetEntriesByLevel("INFO")
	require.Len(t, entries, 1)
	rate, ok := entries[0].FieldValue("success_rate")
	require.True(t, ok)
	assert.Equal(t, 75.0, rate)
}

func TestGenerateOutputFilename(t *testing.T) {
	assert.Equal(t, "receipts.csv", GenerateOutputFilename(DateRange{}))
	dr := DateRange{}.Include(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "receipts_2024-02-01_2024-02-01.csv", GenerateOutputFilename(dr))
}

// Package batch extracts every receipt text file of a directory and
// aggregates the results for CSV export.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"smarttax/receipt-ocr/internal/dateutils"
	"smarttax/receipt-ocr/internal/fileutils"
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
)

// DefaultWorkers bounds concurrent extractions.
const DefaultWorkers = 4

// ReceiptExtension is the extension of OCR text files.
const ReceiptExtension = ".txt"

// Extractor turns raw OCR text into a receipt.
type Extractor interface {
	Extract(raw string) (models.ReceiptData, error)
}

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s",
		dr.Start.Format(dateutils.DateLayoutISO),
		dr.End.Format(dateutils.DateLayoutISO))
}

// Include widens the range to cover t. Zero times are ignored.
func (dr DateRange) Include(t time.Time) DateRange {
	if t.IsZero() {
		return dr
	}
	if dr.Start.IsZero() || t.Before(dr.Start) {
		dr.Start = t
	}
	if dr.End.IsZero() || t.After(dr.End) {
		dr.End = t
	}
	return dr
}

// Result is the extraction of one file.
type Result struct {
	Source  string
	Receipt models.ReceiptData
	// When is the parsed receipt date, zero if the date is not a calendar date.
	When time.Time
	Err  error
}

// Stats counts the outcome of a batch.
type Stats struct {
	Total       int
	Extracted   int
	Failed      int
	Categorized int
	Duplicates  int
}

// SuccessRate is the percentage of files extracted without error.
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Extracted) / float64(s.Total) * 100
}

// LogSummary logs the batch statistics.
func (s Stats) LogSummary(logger logging.Logger, dir string) {
	logger.Info("Batch summary",
		logging.Field{Key: logging.FieldSource, Value: dir},
		logging.Field{Key: "total_files", Value: s.Total},
		logging.Field{Key: "extracted", Value: s.Extracted},
		logging.Field{Key: "failed", Value: s.Failed},
		logging.Field{Key: "categorized", Value: s.Categorized},
		logging.Field{Key: "duplicates", Value: s.Duplicates},
		logging.Field{Key: "success_rate", Value: s.SuccessRate()})
}

// Report is the outcome of ProcessDirectory.
type Report struct {
	Results   []Result
	Stats     Stats
	DateRange DateRange
}

// Rows returns the CSV rows of every successful result, dates rendered as
// ISO when they parse.
func (r Report) Rows() []models.ReceiptRow {
	rows := make([]models.ReceiptRow, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Err != nil {
			continue
		}
		row := res.Receipt.ToRow(res.Source)
		if iso := dateutils.ToISODate(res.Receipt.Date); iso != "" {
			row.Date = iso
		}
		rows = append(rows, row)
	}
	return rows
}

// Processor runs an Extractor over directories of receipt text files.
type Processor struct {
	extractor Extractor
	workers   int
	logger    logging.Logger
}

// NewProcessor creates a Processor. workers below 1 selects DefaultWorkers.
func NewProcessor(extractor Extractor, workers int, logger logging.Logger) *Processor {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Processor{extractor: extractor, workers: workers, logger: logging.OrDefault(logger)}
}

// ProcessDirectory extracts every .txt file in dir. A file that cannot be
// read or extracted is recorded as failed and the batch continues. Results
// are ordered by receipt date, then by file name.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) (Report, error) {
	files, err := fileutils.ListFilesWithExtension(dir, ReceiptExtension)
	if err != nil {
		return Report{}, fmt.Errorf("error listing receipts: %w", err)
	}
	return p.ProcessFiles(ctx, files)
}

// ProcessFiles extracts the given files.
func (p *Processor) ProcessFiles(ctx context.Context, files []string) (Report, error) {
	results := make([]Result, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.processFile(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	sortResults(results)

	report := Report{Results: results}
	for _, res := range results {
		report.Stats.Total++
		if res.Err != nil {
			report.Stats.Failed++
			continue
		}
		report.Stats.Extracted++
		if res.Receipt.Category != models.DefaultCategory {
			report.Stats.Categorized++
		}
		report.DateRange = report.DateRange.Include(res.When)
	}
	report.Stats.Duplicates = p.detectAndLogDuplicates(results)
	return report, nil
}

func (p *Processor) processFile(file string) Result {
	res := Result{Source: filepath.Base(file)}

	data, err := os.ReadFile(file)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", res.Source, err)
		p.logger.WithError(err).Error("Failed to read receipt", logging.Field{Key: logging.FieldFile, Value: file})
		return res
	}

	receipt, err := p.extractor.Extract(string(data))
	if err != nil {
		res.Err = fmt.Errorf("extract %s: %w", res.Source, err)
		p.logger.WithError(err).Error("Failed to extract receipt", logging.Field{Key: logging.FieldFile, Value: file})
		return res
	}
	res.Receipt = receipt
	if t, err := dateutils.ParseDate(receipt.Date); err == nil {
		res.When = t
	}

	p.logger.Debug("Extracted receipt",
		logging.Field{Key: logging.FieldFile, Value: res.Source},
		logging.Field{Key: logging.FieldMerchant, Value: receipt.MerchantName})
	return res
}

// sortResults orders results chronologically. Failed results and undated
// receipts sort last, ties by file name.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		if a.When.IsZero() != b.When.IsZero() {
			return !a.When.IsZero()
		}
		if !a.When.Equal(b.When) {
			return a.When.Before(b.When)
		}
		return a.Source < b.Source
	})
}

// detectAndLogDuplicates warns about receipts with the same merchant, date
// and total. Duplicates are kept.
func (p *Processor) detectAndLogDuplicates(results []Result) int {
	seen := make(map[string]string)
	count := 0
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(res.Receipt.MerchantName)) + "|" +
			res.Receipt.Date + "|" + res.Receipt.TotalAmount.StringFixed(2)
		if first, ok := seen[key]; ok {
			count++
			p.logger.Warn("Potential duplicate receipt",
				logging.Field{Key: logging.FieldFile, Value: res.Source},
				logging.Field{Key: "duplicate_of", Value: first},
				logging.Field{Key: logging.FieldMerchant, Value: res.Receipt.MerchantName},
				logging.Field{Key: logging.FieldAmount, Value: res.Receipt.TotalAmount.StringFixed(2)})
			continue
		}
		seen[key] = res.Source
	}
	return count
}

// GenerateOutputFilename creates the file name of a consolidated export:
// receipts_{start}_{end}.csv, or receipts.csv without a date range.
func GenerateOutputFilename(dateRange DateRange) string {
	if s := dateRange.String(); s != "" {
		return "receipts_" + s + ".csv"
	}
	return "receipts.csv"
}

// Package extractor derives receipt fields from free OCR text when no
// merchant template applies. Every heuristic degrades to a default value
// rather than failing.
package extractor

import (
	"strings"

	"github.com/shopspring/decimal"

	"smarttax/receipt-ocr/internal/categorizer"
	"smarttax/receipt-ocr/internal/currencyutils"
	"smarttax/receipt-ocr/internal/dateutils"
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
	"smarttax/receipt-ocr/internal/textutils"
)

// Defaults
const (
	DefaultMerchantScanLines = 5
	DefaultMerchantMinLength = 10
)

// DefaultMaxItemPrice is the exclusive upper bound of a plausible item price.
var DefaultMaxItemPrice = decimal.NewFromInt(10000)

// FieldExtractor extracts merchant, date, total, line items and category.
type FieldExtractor struct {
	categorizer       *categorizer.Categorizer
	merchantScanLines int
	maxItemPrice      decimal.Decimal
	preferDateLabel   bool
	clock             dateutils.Clock
	logger            logging.Logger
}

// Option customizes a FieldExtractor.
type Option func(*FieldExtractor)

// WithMerchantScanLines sets how many leading lines may hold the merchant.
func WithMerchantScanLines(n int) Option {
	return func(e *FieldExtractor) {
		if n > 0 {
			e.merchantScanLines = n
		}
	}
}

// WithMaxItemPrice sets the exclusive upper bound for item prices.
func WithMaxItemPrice(max decimal.Decimal) Option {
	return func(e *FieldExtractor) {
		if max.IsPositive() {
			e.maxItemPrice = max
		}
	}
}

// WithDateLabelPriority controls whether lines mentioning "date" are
// searched for a date before all other lines.
func WithDateLabelPriority(enabled bool) Option {
	return func(e *FieldExtractor) {
		e.preferDateLabel = enabled
	}
}

// WithClock sets the clock used for the today fallback date.
func WithClock(clock dateutils.Clock) Option {
	return func(e *FieldExtractor) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// New creates a FieldExtractor. A nil categorizer selects the default
// keyword chain.
func New(cat *categorizer.Categorizer, logger logging.Logger, opts ...Option) *FieldExtractor {
	logger = logging.OrDefault(logger)
	if cat == nil {
		cat = categorizer.New(logger)
	}
	e := &FieldExtractor{
		categorizer:       cat,
		merchantScanLines: DefaultMerchantScanLines,
		maxItemPrice:      DefaultMaxItemPrice,
		preferDateLabel:   true,
		clock:             dateutils.SystemClock,
		logger:            logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs every field heuristic over text. RawText is set to text.
func (e *FieldExtractor) Extract(text string) models.ReceiptData {
	merchant := e.ExtractMerchantName(text)
	items := e.ExtractLineItems(text)
	return models.ReceiptData{
		MerchantName: merchant,
		Date:         e.ExtractDate(text),
		TotalAmount:  e.ExtractTotal(text),
		LineItems:    items,
		Category:     e.categorizer.Categorize(merchant, items),
		RawText:      text,
	}
}

// ExtractMerchantName returns the first of the leading non-empty lines that
// looks like a store name: all upper case or longer than ten characters, no
// receipt/invoice/phone label and no run of four digits. When none qualifies
// the first non-empty line is used, and UnknownMerchant for blank text.
func (e *FieldExtractor) ExtractMerchantName(text string) string {
	all := textutils.NonEmptyLines(text)
	if len(all) == 0 {
		return models.UnknownMerchant
	}
	lines := all
	if len(lines) > e.merchantScanLines {
		lines = lines[:e.merchantScanLines]
	}
	for _, line := range lines {
		if !textutils.IsUpper(line) && len([]rune(line)) <= DefaultMerchantMinLength {
			continue
		}
		if textutils.ContainsAnyFold(line, merchantExclusions) {
			continue
		}
		if textutils.HasDigitRun(line, 4) {
			continue
		}
		return line
	}
	return all[0]
}

// ExtractDate returns the first date found, as printed. Lines mentioning
// "date" are searched first when label priority is on. Falls back to today
// as DD/MM/YYYY.
func (e *FieldExtractor) ExtractDate(text string) string {
	lines := textutils.NonEmptyLines(text)
	if e.preferDateLabel {
		var labelled []string
		for _, line := range lines {
			if textutils.ContainsFold(line, "date") {
				labelled = append(labelled, line)
			}
		}
		if date, ok := findDate(labelled); ok {
			return date
		}
	}
	if date, ok := findDate(lines); ok {
		return date
	}
	return dateutils.Today(e.clock)
}

func findDate(lines []string) (string, bool) {
	for _, line := range lines {
		for _, p := range datePatterns {
			if m := p.FindString(line); m != "" {
				return m, true
			}
		}
	}
	return "", false
}

// stripDates blanks out date substrings so "12.06.2023" is not read as the
// amount 12.06.
func stripDates(line string) string {
	for _, p := range datePatterns {
		line = p.ReplaceAllString(line, " ")
	}
	return line
}

// ExtractTotal looks for the total on lines carrying a total indicator first
// and falls back to the largest amount anywhere in the text.
func (e *FieldExtractor) ExtractTotal(text string) decimal.Decimal {
	lines := textutils.NonEmptyLines(text)

	for _, line := range lines {
		if !isTotalLine(line) {
			continue
		}
		line = stripDates(line)
		for _, p := range totalPatterns {
			m := p.FindStringSubmatch(line)
			if len(m) < 2 {
				continue
			}
			if v, err := currencyutils.ParseAmount(m[1]); err == nil {
				return v
			}
		}
	}

	best := decimal.Zero
	found := false
	for _, line := range lines {
		for _, v := range currencyutils.FindAmounts(stripDates(line)) {
			if !found || v.GreaterThan(best) {
				best, found = v, true
			}
		}
	}
	if found {
		e.logger.Debug("Total taken as largest amount", logging.Field{Key: logging.FieldAmount, Value: best.String()})
	}
	return best
}

// ExtractLineItems returns one item per line that ends in a plausible price:
// the last amount on the line is the price and the text before it the
// description.
func (e *FieldExtractor) ExtractLineItems(text string) []models.LineItem {
	items := []models.LineItem{}
	for _, line := range textutils.NonEmptyLines(text) {
		if textutils.ContainsAnyFold(line, itemExclusions) {
			continue
		}
		if item, ok := e.parseItemLine(line); ok {
			items = append(items, item)
		}
	}
	return items
}

func (e *FieldExtractor) parseItemLine(line string) (models.LineItem, bool) {
	line = stripDates(line)
	locs := currencyutils.AmountPattern.FindAllStringIndex(line, -1)
	if len(locs) == 0 {
		return models.LineItem{}, false
	}
	last := locs[len(locs)-1]

	price, err := currencyutils.ParseAmount(line[last[0]:last[1]])
	if err != nil || !currencyutils.InRange(price, decimal.Zero, e.maxItemPrice) {
		return models.LineItem{}, false
	}

	description := trailingCurrency.ReplaceAllString(line[:last[0]], "")
	description = textutils.CollapseSpaces(strings.TrimRight(description, " :-"))
	if description == "" {
		description = models.DefaultItemName
	}
	return models.LineItem{Description: description, Amount: price}, true
}

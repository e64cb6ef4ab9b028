package templates

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"smarttax/receipt-ocr/internal/currencyutils"
	"smarttax/receipt-ocr/internal/logging"
	"smarttax/receipt-ocr/internal/models"
	"smarttax/receipt-ocr/internal/parsererror"
	"smarttax/receipt-ocr/internal/textutils"
)

// DefaultHeaderLines is how many leading lines are searched before the
// full text when identifying a merchant.
const DefaultHeaderLines = 5

// Matcher identifies the merchant of a receipt and applies its template.
type Matcher struct {
	store       *Store
	headerLines int
	logger      logging.Logger
}

// NewMatcher creates a Matcher over store. headerLines below 1 selects
// DefaultHeaderLines.
func NewMatcher(store *Store, headerLines int, logger logging.Logger) *Matcher {
	if headerLines < 1 {
		headerLines = DefaultHeaderLines
	}
	return &Matcher{store: store, headerLines: headerLines, logger: logging.OrDefault(logger)}
}

// IdentifyMerchant returns the key of the template whose header pattern
// matches. Every template is first tried against each of the leading header
// lines; only when none matches there is the full text searched. Within a
// pass, templates are tried in store order and the first hit wins.
func (m *Matcher) IdentifyMerchant(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	templates := m.store.Templates()
	lines := textutils.Lines(text)
	if len(lines) > m.headerLines {
		lines = lines[:m.headerLines]
	}

	for _, t := range templates {
		for _, line := range lines {
			if t.Header.MatchString(line) {
				return t.Key, true
			}
		}
	}
	for _, t := range templates {
		if t.Header.MatchString(text) {
			return t.Key, true
		}
	}
	return "", false
}

// MatchReceipt extracts a receipt with the template of the identified
// merchant. The merchant name is the template's canonical name and the
// category is taken from the template as is. ok is false when no template
// matches.
func (m *Matcher) MatchReceipt(text string) (models.ReceiptData, bool) {
	key, ok := m.IdentifyMerchant(text)
	if !ok {
		return models.ReceiptData{}, false
	}
	t, ok := m.store.Get(key)
	if !ok {
		// the store was replaced between identification and lookup
		return models.ReceiptData{}, false
	}

	logger := m.logger.WithField(logging.FieldTemplate, t.MerchantName)
	logger.Debug("Template matched")

	return models.ReceiptData{
		MerchantName: t.MerchantName,
		Date:         m.extractDate(t, text),
		TotalAmount:  m.extractTotal(t, text, logger),
		LineItems:    m.extractItems(t, text, logger),
		Category:     t.Category,
		RawText:      text,
	}, true
}

func (m *Matcher) extractDate(t *Template, text string) string {
	match := t.Date.FindStringSubmatch(text)
	if len(match) < 2 {
		return models.UnknownDate
	}
	if date := strings.TrimSpace(match[1]); date != "" {
		return date
	}
	return models.UnknownDate
}

func (m *Matcher) extractTotal(t *Template, text string, logger logging.Logger) decimal.Decimal {
	match := t.Total.FindStringSubmatch(text)
	if len(match) < 2 || strings.TrimSpace(match[1]) == "" {
		return decimal.Zero
	}
	amount, err := currencyutils.ParseAmount(match[1])
	if err != nil {
		logger.WithError(&parsererror.ParseError{Parser: "template", Field: "total", Value: match[1], Err: err}).
			Debug("Template total did not parse")
		return decimal.Zero
	}
	return amount
}

func (m *Matcher) extractItems(t *Template, text string, logger logging.Logger) []models.LineItem {
	items := []models.LineItem{}
	for _, match := range t.Item.FindAllStringSubmatch(text, -1) {
		description := strings.TrimSpace(match[1])
		amountStr := strings.TrimSpace(match[2])
		amount, err := currencyutils.ParseAmount(amountStr)
		if err == nil && amount.IsNegative() {
			err = fmt.Errorf("negative amount")
		}
		if err != nil {
			logger.WithError(&parsererror.ParseError{Parser: "template", Field: "item", Value: amountStr, Err: err}).
				Debug("Skipping template item with unparseable amount")
			continue
		}
		if description == "" {
			description = models.DefaultItemName
		}
		items = append(items, models.LineItem{Description: description, Amount: amount})
	}
	return items
}

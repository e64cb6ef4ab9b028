package extractor

import (
	"regexp"

	"smarttax/receipt-ocr/internal/currencyutils"
	"smarttax/receipt-ocr/internal/textutils"
)

const monthNames = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[a-z]*\.?`

// datePatterns are tried in order on each line.
var datePatterns = []*regexp.Regexp{
	// DD/MM/YYYY, DD-MM-YY, DD.MM.YYYY
	regexp.MustCompile(`\b\d{1,2}[/.\-]\d{1,2}[/.\-](?:\d{4}|\d{2})\b`),
	// YYYY-MM-DD
	regexp.MustCompile(`\b\d{4}[/.\-]\d{1,2}[/.\-]\d{1,2}\b`),
	// DD Mon YYYY
	regexp.MustCompile(`(?i)\b\d{1,2}\s+` + monthNames + `\s+\d{4}\b`),
	// Mon DD, YYYY
	regexp.MustCompile(`(?i)\b` + monthNames + `\s+\d{1,2},?\s+\d{4}\b`),
}

var amount = currencyutils.AmountPattern.String()

// totalPatterns are tried in order on each total-indicator line.
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:RM|MYR)\s*(` + amount + `)`),
	regexp.MustCompile(`(?i)(?:TOTAL|AMOUNT)\s*:?\s*(?:RM|MYR)?\s*(` + amount + `)`),
	regexp.MustCompile(`(` + amount + `)`),
}

// totalIndicators mark lines that may carry the receipt total. The currency
// labels only count as whole tokens so words like "Farm" do not qualify.
var totalIndicators = []string{"total", "amount", "grand total", "subtotal"}

var currencyIndicator = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:RM|MYR)(?:[^\p{L}]|$)`)

func isTotalLine(line string) bool {
	return textutils.ContainsAnyFold(line, totalIndicators) || currencyIndicator.MatchString(line)
}

// merchantExclusions disqualify a header line as the merchant name.
var merchantExclusions = []string{"RECEIPT", "INVOICE", "TEL:"}

// itemExclusions disqualify a line as a purchased item. TOTAL keeps total and
// subtotal lines out of the item list.
var itemExclusions = []string{"RECEIPT", "INVOICE", "TEL:", "THANK YOU", "CUSTOMER", "TOTAL"}

// trailingCurrency strips a currency label left between description and price.
var trailingCurrency = regexp.MustCompile(`(?i)[\s:]*\b(?:RM|MYR)[\s:]*$`)

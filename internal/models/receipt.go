// Package models provides the data structures shared by the extraction
// components: the receipt record, correction dictionary documents and
// template records.
package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Default field values used when extraction finds nothing.
const (
	UnknownMerchant = "Unknown Merchant"
	UnknownDate     = "Unknown Date"
	DefaultItemName = "Item"
)

// LineItem is one purchased product line.
type LineItem struct {
	Description string          `json:"description" yaml:"description"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
}

// ReceiptData is the structured result of an extraction. RawText always holds
// the original OCR input, never the corrected text.
type ReceiptData struct {
	MerchantName string          `json:"merchantName" yaml:"merchantName"`
	Date         string          `json:"date" yaml:"date"`
	TotalAmount  decimal.Decimal `json:"totalAmount" yaml:"totalAmount"`
	LineItems    []LineItem      `json:"lineItems" yaml:"lineItems"`
	Category     string          `json:"category" yaml:"category"`
	RawText      string          `json:"rawText" yaml:"rawText"`
}

// ItemsTotal sums the line item amounts.
func (r ReceiptData) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range r.LineItems {
		sum = sum.Add(item.Amount)
	}
	return sum
}

// WithMerchantName returns a copy of r with the merchant name replaced.
func (r ReceiptData) WithMerchantName(name string) ReceiptData {
	r.MerchantName = name
	return r
}

// ReceiptRow is the flattened CSV form of a ReceiptData.
type ReceiptRow struct {
	Source       string `csv:"Source"`
	MerchantName string `csv:"Merchant"`
	Date         string `csv:"Date"`
	TotalAmount  string `csv:"Total"`
	Category     string `csv:"Category"`
	ItemCount    int    `csv:"ItemCount"`
	Items        string `csv:"Items"`
}

// ToRow flattens r for CSV output. Items are rendered as
// "description=amount" pairs joined by "; ".
func (r ReceiptData) ToRow(source string) ReceiptRow {
	items := make([]string, 0, len(r.LineItems))
	for _, item := range r.LineItems {
		items = append(items, item.Description+"="+item.Amount.StringFixed(2))
	}
	return ReceiptRow{
		Source:       source,
		MerchantName: r.MerchantName,
		Date:         r.Date,
		TotalAmount:  r.TotalAmount.StringFixed(2),
		Category:     r.Category,
		ItemCount:    len(r.LineItems),
		Items:        strings.Join(items, "; "),
	}
}

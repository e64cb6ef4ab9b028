// Package common contains shared functionality for command handlers
package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	csvutil "smarttax/receipt-ocr/internal/common"
	"smarttax/receipt-ocr/internal/currencyutils"
	"smarttax/receipt-ocr/internal/fileutils"
	"smarttax/receipt-ocr/internal/models"
)

// Output formats accepted by --format.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
	FormatText = "text"
)

// ParseFormat normalizes a --format value.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case FormatJSON, FormatYAML, FormatCSV, FormatText:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (json, yaml, csv or text)", s)
	}
}

// ReadInput returns the contents of path, or of stdin when path is empty
// or "-".
func ReadInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := fileutils.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Encode renders v in format. CSV and text are only defined for receipts, so
// v must then be a models.ReceiptData.
func Encode(v interface{}, format, source string, delimiter rune) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode JSON: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
	case FormatCSV:
		receipt, ok := v.(models.ReceiptData)
		if !ok {
			return nil, fmt.Errorf("csv output requires a receipt, got %T", v)
		}
		rows := []models.ReceiptRow{receipt.ToRow(source)}
		if err := csvutil.WriteCSV(&buf, rows, delimiter, true); err != nil {
			return nil, err
		}
	case FormatText:
		receipt, ok := v.(models.ReceiptData)
		if !ok {
			return nil, fmt.Errorf("text output requires a receipt, got %T", v)
		}
		writeText(&buf, receipt)
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return buf.Bytes(), nil
}

func writeText(w io.Writer, r models.ReceiptData) {
	fmt.Fprintf(w, "Merchant: %s\n", r.MerchantName)
	fmt.Fprintf(w, "Date:     %s\n", r.Date)
	fmt.Fprintf(w, "Category: %s\n", r.Category)
	if len(r.LineItems) > 0 {
		fmt.Fprintln(w, "Items:")
		for _, item := range r.LineItems {
			fmt.Fprintf(w, "  %-30s %12s\n", item.Description, currencyutils.FormatAmount(item.Amount, currencyutils.DefaultCurrency))
		}
	}
	fmt.Fprintf(w, "Total:    %s\n", currencyutils.FormatAmount(r.TotalAmount, currencyutils.DefaultCurrency))
}

// WriteOutput writes data to path, or to w when path is empty.
func WriteOutput(path string, data []byte, w io.Writer) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := fileutils.WriteFile(path, data, models.PermissionReportFile); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

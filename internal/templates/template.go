// Package templates matches receipts from known merchants against
// per-merchant regular expression templates and extracts fields with them.
package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"

	"smarttax/receipt-ocr/internal/models"
	"smarttax/receipt-ocr/internal/parsererror"
)

//go:embed default_templates.json
var defaultBundle []byte

// Template is a compiled merchant template.
type Template struct {
	Key          string
	MerchantName string
	Category     string
	Priority     int

	Header *regexp.Regexp
	Date   *regexp.Regexp
	Total  *regexp.Regexp
	Item   *regexp.Regexp

	order  int
	record models.TemplateRecord
}

// Record returns the source record the template was compiled from.
func (t *Template) Record() models.TemplateRecord {
	return t.record
}

// Compile validates rec and compiles its patterns. Header, date and total
// patterns match case-insensitively; the item pattern is also multi-line.
// Errors are *parsererror.TemplateError.
func Compile(rec models.TemplateRecord) (*Template, error) {
	if err := rec.Validate(); err != nil {
		return nil, &parsererror.TemplateError{Merchant: rec.MerchantName, Err: err}
	}

	t := &Template{
		Key:          rec.Key(),
		MerchantName: rec.MerchantName,
		Category:     rec.Category,
		Priority:     rec.Priority,
		record:       rec,
	}
	if t.Category == "" {
		t.Category = models.DefaultCategory
	}

	patterns := []struct {
		field   string
		source  string
		flags   string
		groups  int
		compile **regexp.Regexp
	}{
		{"headerPattern", rec.HeaderPattern, "(?i)", 0, &t.Header},
		{"datePattern", rec.DatePattern, "(?i)", 1, &t.Date},
		{"totalPattern", rec.TotalPattern, "(?i)", 1, &t.Total},
		{"itemPattern", rec.ItemPattern, "(?im)", 2, &t.Item},
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p.flags + p.source)
		if err != nil {
			return nil, &parsererror.TemplateError{Merchant: rec.MerchantName, Field: p.field, Pattern: p.source, Err: err}
		}
		if re.NumSubexp() < p.groups {
			return nil, &parsererror.TemplateError{
				Merchant: rec.MerchantName,
				Field:    p.field,
				Pattern:  p.source,
				Err:      fmt.Errorf("needs at least %d capture group(s), has %d", p.groups, re.NumSubexp()),
			}
		}
		*p.compile = re
	}
	return t, nil
}

// Bundle formats accepted by DecodeBundle.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DecodeBundle parses a template bundle of the given format.
func DecodeBundle(data []byte, format string) (models.TemplateBundle, error) {
	var bundle models.TemplateBundle
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &bundle)
	case FormatYAML, "yml":
		err = yaml.Unmarshal(data, &bundle)
	default:
		return bundle, fmt.Errorf("unsupported template bundle format %q", format)
	}
	if err != nil {
		return bundle, fmt.Errorf("failed to decode %s template bundle: %w", format, err)
	}
	return bundle, nil
}

// DefaultRecords returns the templates bundled with the binary.
func DefaultRecords() ([]models.TemplateRecord, error) {
	bundle, err := DecodeBundle(defaultBundle, FormatJSON)
	if err != nil {
		return nil, err
	}
	return bundle.Templates, nil
}

// FormatForPath picks the bundle format from a file extension.
func FormatForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// ReadBundleFile reads the templates of a JSON or YAML bundle file.
func ReadBundleFile(path string) ([]models.TemplateRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template bundle: %w", err)
	}
	bundle, err := DecodeBundle(data, FormatForPath(path))
	if err != nil {
		return nil, err
	}
	return bundle.Templates, nil
}
